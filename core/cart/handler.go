package cart

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/alexedwards/scs/v2"

	"github.com/quickbasket/storefront/api/web"
	"github.com/quickbasket/storefront/api/weberr"
	"github.com/quickbasket/storefront/core/catalog"
	"github.com/quickbasket/storefront/validate"
)

type ItemNew struct {
	ItemID int `json:"itemId" validate:"required"`
}

type QuantityUp struct {
	Delta int `json:"delta" validate:"required,oneof=-1 1"`
}

type SimilarToggled struct {
	ID      int  `json:"id"`
	Visible bool `json:"visible"`
}

// sessionID returns the cart key for the current session, minting one on
// first use so the cookie round-trips before the scs token exists.
func sessionID(ctx context.Context, session *scs.SessionManager) string {
	id := session.GetString(ctx, "cartID")
	if id == "" {
		id = validate.GenerateID()
		session.Put(ctx, "cartID", id)
	}
	return id
}

func itemID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(web.Param(r, "id"))
	if err != nil {
		return 0, weberr.NewError(err, "item id must be an integer", http.StatusBadRequest)
	}
	return id, nil
}

func HandleShow(session *scs.SessionManager, store *Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		view := store.View(sessionID(ctx, session))
		return web.Respond(ctx, w, view, http.StatusOK)
	}
}

func HandleAddItem(session *scs.SessionManager, store *Store, cat catalog.Storer) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in ItemNew
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusBadRequest)
		}

		if err := validate.Check(in); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		it, err := cat.Fetch(ctx, in.ItemID)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				return weberr.NotFound(fmt.Errorf("adding item[%d]: %w", in.ItemID, err))
			}
			return fmt.Errorf("fetching catalog item[%d]: %w", in.ItemID, err)
		}

		view := store.AddOrIncrement(sessionID(ctx, session), it)
		return web.Respond(ctx, w, view, http.StatusOK)
	}
}

func HandleChangeQuantity(session *scs.SessionManager, store *Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id, err := itemID(r)
		if err != nil {
			return err
		}

		var in QuantityUp
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusBadRequest)
		}

		if err := validate.Check(in); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		view := store.ChangeQuantity(sessionID(ctx, session), id, in.Delta)
		return web.Respond(ctx, w, view, http.StatusOK)
	}
}

func HandleToggleSimilar(session *scs.SessionManager, store *Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id, err := itemID(r)
		if err != nil {
			return err
		}

		visible := store.ToggleSimilar(sessionID(ctx, session), id)
		return web.Respond(ctx, w, SimilarToggled{ID: id, Visible: visible}, http.StatusOK)
	}
}
