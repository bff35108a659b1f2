package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/quickbasket/storefront/api/web"
	"github.com/quickbasket/storefront/api/weberr"
	"github.com/quickbasket/storefront/validate"
)

type request struct {
	SearchType string `validate:"required,oneof=mealPlanner shopByList audio video"`
}

// HandleUpload accepts one multipart form with a file-or-text "data" field
// and a "searchType" tag. It acknowledges receipt and nothing more.
func HandleUpload(maxBytes int64) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

		if err := r.ParseMultipartForm(maxBytes); err != nil {
			return weberr.NewError(err, "malformed multipart body", http.StatusBadRequest)
		}

		in := request{SearchType: r.FormValue("searchType")}
		if err := validate.Check(in); err != nil {
			return weberr.NewError(err, fmt.Sprintf("unrecognized search type %q", in.SearchType), http.StatusBadRequest)
		}

		payload, err := resolvePayload(r)
		if err != nil {
			return weberr.NewError(err, "malformed payload", http.StatusBadRequest)
		}

		ack := Ack{ID: validate.GenerateID()}
		switch payload.Kind {
		case Binary:
			ack.Message = fmt.Sprintf("File uploaded successfully: %s", payload.File.Name)
			ack.FileInfo = payload.File

		case Text:
			ack.Message = fmt.Sprintf("Search processed with the text data: %s", payload.Text)

		case Absent:
			err := errors.New("no file or text data provided")
			return weberr.NewError(err, err.Error(), http.StatusBadRequest)
		}

		return web.Respond(ctx, w, ack, http.StatusOK)
	}
}
