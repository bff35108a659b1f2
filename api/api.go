package api

import (
	"context"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/quickbasket/storefront/api/middleware"
	"github.com/quickbasket/storefront/api/web"
	"github.com/quickbasket/storefront/core/cart"
	"github.com/quickbasket/storefront/core/catalog"
	"github.com/quickbasket/storefront/core/search"
	"github.com/quickbasket/storefront/rate"
)

type APIConfig struct {
	CorsOrigin     string
	Log            logrus.FieldLogger
	Session        *scs.SessionManager
	Catalog        catalog.Storer
	Carts          *cart.Store
	UploadLimiter  *rate.Limiter
	UploadMaxBytes int64
	StaticDir      string
}

type api struct {
	*mux.Router
	mw  []web.Middleware
	log logrus.FieldLogger
}

func APIMux(cfg APIConfig) http.Handler {
	a := &api{
		Router: mux.NewRouter(),
		log:    cfg.Log,
	}

	a.mw = append(a.mw, middleware.LoadAndSave(cfg.Session))
	a.mw = append(a.mw, middleware.RequestID())
	a.mw = append(a.mw, middleware.Logger(cfg.Log))
	a.mw = append(a.mw, middleware.Errors(cfg.Log))
	a.mw = append(a.mw, middleware.Panics())

	if cfg.CorsOrigin != "" {
		a.mw = append(a.mw, middleware.Cors(cfg.CorsOrigin))

		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			w.WriteHeader(http.StatusNoContent)
			return nil
		}

		a.Handle(http.MethodOptions, "/{path:.*}", h)
	}

	var limited web.Middleware
	if cfg.UploadLimiter != nil {
		limited = middleware.RateLimit(cfg.UploadLimiter)
	}

	a.Handle(http.MethodPost, "/api/search", search.HandleUpload(cfg.UploadMaxBytes), limited)

	a.Handle(http.MethodGet, "/api/cart", cart.HandleShow(cfg.Session, cfg.Carts))
	a.Handle(http.MethodPut, "/api/cart/items", cart.HandleAddItem(cfg.Session, cfg.Carts, cfg.Catalog))
	a.Handle(http.MethodPatch, "/api/cart/items/{id}", cart.HandleChangeQuantity(cfg.Session, cfg.Carts))
	a.Handle(http.MethodPut, "/api/cart/items/{id}/similar", cart.HandleToggleSimilar(cfg.Session, cfg.Carts))

	a.Handle(http.MethodGet, "/api/catalog/recommended", catalog.HandleRecommended(cfg.Catalog))

	// Everything else is the built frontend bundle.
	if cfg.StaticDir != "" {
		a.Router.PathPrefix("/").Handler(SPA(cfg.StaticDir)).Methods(http.MethodGet)
	}

	return a.Router
}

func (a *api) Handle(method string, path string, handler web.Handler, mw ...web.Middleware) {

	handler = web.WrapMiddleware(mw, handler)

	handler = web.WrapMiddleware(a.mw, handler)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := r.Context()

		if err := handler(ctx, w, r); err != nil {

			a.log.WithFields(logrus.Fields{
				"req_id":  middleware.ContextRequestID(ctx),
				"message": err,
			}).Error("ERROR")
		}
	})

	a.Router.Handle(path, h).Methods(method)
}
