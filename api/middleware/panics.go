package middleware

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/quickbasket/storefront/api/web"
)

// Panics recovers handler panics into plain errors so one bad request
// never takes the process down.
func Panics() web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) (err error) {

			defer func() {
				if rec := recover(); rec != nil {
					trace := debug.Stack()
					err = fmt.Errorf("PANIC [%v] TRACE[%s]", rec, string(trace))
				}
			}()

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}
