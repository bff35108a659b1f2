// Package search implements the fast-forward upload endpoint. The server
// only acknowledges that a payload arrived, it never inspects or stores
// the content.
package search

import (
	"errors"
	"net/http"
)

// Type is the closed set of accepted search classifications. The original
// frontend sends these as free-form strings, the server pins them down.
type Type string

const (
	MealPlanner Type = "mealPlanner"
	ShopByList  Type = "shopByList"
	Audio       Type = "audio"
	Video       Type = "video"
)

type PayloadKind int

const (
	Absent PayloadKind = iota
	Text
	Binary
)

// Payload is the file-or-text variant carried by the multipart form,
// resolved exactly once per request.
type Payload struct {
	Kind PayloadKind
	Text string
	File *FileInfo
}

type FileInfo struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType,omitempty"`
}

type Ack struct {
	ID       string    `json:"id"`
	Message  string    `json:"message"`
	FileInfo *FileInfo `json:"fileInfo,omitempty"`
}

// resolvePayload picks the binary branch when a file part is present,
// falls back to the text field, and reports Absent otherwise.
func resolvePayload(r *http.Request) (Payload, error) {
	file, header, err := r.FormFile("data")
	switch {
	case err == nil:
		defer file.Close()
		return Payload{
			Kind: Binary,
			File: &FileInfo{
				Name:        header.Filename,
				Size:        header.Size,
				ContentType: header.Header.Get("Content-Type"),
			},
		}, nil

	case errors.Is(err, http.ErrMissingFile):
		// No file part, the text field may still carry the payload.

	default:
		return Payload{}, err
	}

	if text := r.FormValue("data"); text != "" {
		return Payload{Kind: Text, Text: text}, nil
	}

	return Payload{Kind: Absent}, nil
}
