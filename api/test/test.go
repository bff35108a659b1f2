package test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/sirupsen/logrus"

	"github.com/quickbasket/storefront/api"
	"github.com/quickbasket/storefront/core/cart"
	"github.com/quickbasket/storefront/core/catalog"
	"github.com/quickbasket/storefront/rate"
)

// TestEnv runs the whole API over the seed catalog, the way the server
// runs without a database.
type TestEnv struct {
	Server *httptest.Server
	URL    string

	client *http.Client
}

func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	session := scs.New()
	session.Lifetime = time.Hour

	cat := catalog.NewMemory()
	starter, err := cat.Starter(context.Background())
	if err != nil {
		t.Fatalf("loading starter basket: %v", err)
	}

	mux := api.APIMux(api.APIConfig{
		Log:            log,
		Session:        session,
		Catalog:        cat,
		Carts:          cart.NewStore(starter),
		UploadLimiter:  rate.NewLimiter(1000, time.Hour, 1000),
		UploadMaxBytes: 1 << 20,
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}

	return &TestEnv{
		Server: srv,
		URL:    srv.URL,
		client: &http.Client{Jar: jar},
	}
}

// Client keeps the session cookie across requests.
func (e *TestEnv) Client() *http.Client {
	return e.client
}

func decode(t *testing.T, res *http.Response, val interface{}) {
	t.Helper()
	defer res.Body.Close()

	if err := json.NewDecoder(res.Body).Decode(val); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
}
