package capture

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/quickbasket/storefront/core/search"
)

type Kind int

const (
	KindAbsent Kind = iota
	KindText
	KindBinary
)

// Payload is the client-side file-or-text variant, resolved once before
// the request is built.
type Payload struct {
	kind    Kind
	name    string
	content []byte
	text    string
}

func BinaryPayload(name string, content []byte) Payload {
	return Payload{kind: KindBinary, name: name, content: content}
}

func TextPayload(text string) Payload {
	return Payload{kind: KindText, text: text}
}

func (p Payload) Kind() Kind { return p.kind }

// Uploader posts one payload plus its search tag to the upload endpoint.
// Transport errors and 5xx answers are retried with exponential backoff,
// 4xx answers are not.
type Uploader struct {
	URL        string
	Client     *http.Client
	Log        logrus.FieldLogger
	MaxRetries uint64
	RetryBase  time.Duration
}

func NewUploader(url string, log logrus.FieldLogger) *Uploader {
	return &Uploader{
		URL:        url,
		Client:     &http.Client{Timeout: 30 * time.Second},
		Log:        log,
		MaxRetries: 3,
		RetryBase:  500 * time.Millisecond,
	}
}

type serverAnswer struct {
	Message string           `json:"message"`
	Error   string           `json:"error"`
	File    *search.FileInfo `json:"fileInfo"`
	ID      string           `json:"id"`
}

func (u *Uploader) Upload(ctx context.Context, tag search.Type, p Payload) (search.Ack, error) {
	if p.kind == KindAbsent {
		return search.Ack{}, errors.New("no payload to submit")
	}

	body, contentType, err := encodeForm(tag, p)
	if err != nil {
		return search.Ack{}, fmt.Errorf("building multipart form: %w", err)
	}

	var ack search.Ack
	attempt := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.URL, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", contentType)

		res, err := u.Client.Do(req)
		if err != nil {
			u.Log.WithField("message", err).Warn("upload attempt failed")
			return err
		}
		defer res.Body.Close()

		var answer serverAnswer
		if err := json.NewDecoder(res.Body).Decode(&answer); err != nil && res.StatusCode < 300 {
			return backoff.Permanent(fmt.Errorf("decoding upload response: %w", err))
		}

		switch {
		case res.StatusCode >= 500:
			return serverError(res.StatusCode, answer)

		case res.StatusCode >= 400:
			return backoff.Permanent(serverError(res.StatusCode, answer))
		}

		ack = search.Ack{ID: answer.ID, Message: answer.Message, FileInfo: answer.File}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = u.RetryBase

	err = backoff.Retry(attempt, backoff.WithContext(backoff.WithMaxRetries(bo, u.MaxRetries), ctx))
	if err != nil {
		return search.Ack{}, err
	}
	return ack, nil
}

// serverError surfaces the server's message verbatim when it sent one.
func serverError(status int, answer serverAnswer) error {
	msg := answer.Error
	if msg == "" {
		msg = "the upload could not be processed"
	}
	return fmt.Errorf("upload rejected [%d]: %s", status, msg)
}

func encodeForm(tag search.Type, p Payload) ([]byte, string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	switch p.kind {
	case KindBinary:
		fw, err := mw.CreateFormFile("data", p.name)
		if err != nil {
			return nil, "", err
		}
		if _, err := fw.Write(p.content); err != nil {
			return nil, "", err
		}

	case KindText:
		if err := mw.WriteField("data", p.text); err != nil {
			return nil, "", err
		}
	}

	if err := mw.WriteField("searchType", string(tag)); err != nil {
		return nil, "", err
	}

	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return body.Bytes(), mw.FormDataContentType(), nil
}
