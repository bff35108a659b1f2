package catalog

import (
	"context"
	"fmt"
	"net/http"

	"github.com/quickbasket/storefront/api/web"
	"github.com/quickbasket/storefront/api/weberr"
)

func HandleRecommended(store Storer) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		items, err := store.Recommended(ctx)
		if err != nil {
			return weberr.InternalError(fmt.Errorf("listing recommended items: %w", err))
		}

		return web.Respond(ctx, w, items, http.StatusOK)
	}
}
