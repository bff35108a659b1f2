package search

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/quickbasket/storefront/api/weberr"
)

const testMaxBytes = 1 << 20

func multipartRequest(t *testing.T, fields map[string]string, fileName string, fileContent []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if fileName != "" {
		fw, err := mw.CreateFormFile("data", fileName)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write(fileContent); err != nil {
			t.Fatal(err)
		}
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	r := httptest.NewRequest(http.MethodPost, "/api/search", &body)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	return r
}

func errStatus(t *testing.T, err error) (string, int) {
	t.Helper()

	body, status, ok := weberr.Response(err)
	if !ok {
		t.Fatalf("error does not carry a response: %v", err)
	}
	er, ok := body.(*weberr.ErrorResponse)
	if !ok {
		t.Fatalf("unexpected response body type %T", body)
	}
	return er.Error, status
}

func TestUploadText(t *testing.T) {
	h := HandleUpload(testMaxBytes)

	r := multipartRequest(t, map[string]string{
		"data":       "milk, eggs, bread",
		"searchType": "shopByList",
	}, "", nil)
	w := httptest.NewRecorder()

	if err := h(context.Background(), w, r); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var ack Ack
	if err := json.NewDecoder(w.Body).Decode(&ack); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(ack.Message, "milk, eggs, bread") {
		t.Fatalf("ack message does not echo the text: %q", ack.Message)
	}
	if ack.FileInfo != nil {
		t.Fatalf("text upload must not carry file metadata: %+v", ack.FileInfo)
	}
	if ack.ID == "" {
		t.Fatal("ack is missing an id")
	}
}

func TestUploadFile(t *testing.T) {
	h := HandleUpload(testMaxBytes)

	content := []byte("fake png bytes")
	r := multipartRequest(t, map[string]string{"searchType": "mealPlanner"}, "snapshot.png", content)
	w := httptest.NewRecorder()

	if err := h(context.Background(), w, r); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	var ack Ack
	if err := json.NewDecoder(w.Body).Decode(&ack); err != nil {
		t.Fatal(err)
	}
	if ack.FileInfo == nil {
		t.Fatal("file upload is missing file metadata")
	}
	if ack.FileInfo.Name != "snapshot.png" {
		t.Fatalf("expected file name snapshot.png, got %q", ack.FileInfo.Name)
	}
	if ack.FileInfo.Size != int64(len(content)) {
		t.Fatalf("expected size %d, got %d", len(content), ack.FileInfo.Size)
	}
	if !strings.Contains(ack.Message, "snapshot.png") {
		t.Fatalf("ack message does not mention the file: %q", ack.Message)
	}
}

func TestUploadFileWinsOverText(t *testing.T) {
	h := HandleUpload(testMaxBytes)

	r := multipartRequest(t, map[string]string{
		"searchType": "shopByList",
		// The frontend never sends both, but the branch order is fixed.
	}, "list.txt", []byte("milk"))
	w := httptest.NewRecorder()

	if err := h(context.Background(), w, r); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	var ack Ack
	if err := json.NewDecoder(w.Body).Decode(&ack); err != nil {
		t.Fatal(err)
	}
	if ack.FileInfo == nil {
		t.Fatal("expected the file branch to win")
	}
}

func TestUploadNoPayload(t *testing.T) {
	h := HandleUpload(testMaxBytes)

	r := multipartRequest(t, map[string]string{"searchType": "shopByList"}, "", nil)
	w := httptest.NewRecorder()

	err := h(context.Background(), w, r)
	if err == nil {
		t.Fatal("expected an error for an empty payload")
	}

	msg, status := errStatus(t, err)
	if status != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", status)
	}
	if msg == "" {
		t.Fatal("expected an error message")
	}
}

func TestUploadUnknownSearchType(t *testing.T) {
	h := HandleUpload(testMaxBytes)

	r := multipartRequest(t, map[string]string{
		"data":       "milk",
		"searchType": "telepathy",
	}, "", nil)
	w := httptest.NewRecorder()

	err := h(context.Background(), w, r)
	if err == nil {
		t.Fatal("expected an error for an unknown search type")
	}

	if _, status := errStatus(t, err); status != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", status)
	}
}

func TestUploadNotMultipart(t *testing.T) {
	h := HandleUpload(testMaxBytes)

	r := httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(`{"data":"milk"}`))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	err := h(context.Background(), w, r)
	if err == nil {
		t.Fatal("expected an error for a non-multipart body")
	}

	if _, status := errStatus(t, err); status != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", status)
	}
}
