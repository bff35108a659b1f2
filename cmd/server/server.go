package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/ardanlabs/conf/v3"
	"github.com/sirupsen/logrus"

	"github.com/quickbasket/storefront/api"
	"github.com/quickbasket/storefront/config"
	"github.com/quickbasket/storefront/core/cart"
	"github.com/quickbasket/storefront/core/catalog"
	"github.com/quickbasket/storefront/database"
	"github.com/quickbasket/storefront/rate"
)

func main() {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	if err := Run(log); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func Run(logger *logrus.Logger) error {
	logger.Infof("starting server")
	defer logger.Info("shutdown complete")

	const prefix = "QUICKBASKET"
	var cfg config.Config
	if _, err := conf.Parse(prefix, &cfg); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}

	lw := logger.Writer()
	defer lw.Close()
	errLog := log.New(lw, "", 0)

	store, err := openCatalog(cfg, logger)
	if err != nil {
		return err
	}

	starter, err := store.Starter(context.Background())
	if err != nil {
		return fmt.Errorf("loading starter basket: %w", err)
	}

	sessionManager := scs.New()
	sessionManager.Lifetime = cfg.Session.Lifetime

	limiter := rate.NewLimiter(cfg.Upload.LimitBurst, cfg.Upload.LimitExpiry, cfg.Upload.LimitRPS)

	mux := api.APIMux(api.APIConfig{
		CorsOrigin:     cfg.Cors.Origin,
		Log:            logger,
		Session:        sessionManager,
		Catalog:        store,
		Carts:          cart.NewStore(starter),
		UploadLimiter:  limiter,
		UploadMaxBytes: cfg.Upload.MaxBytes,
		StaticDir:      cfg.Static.Dir,
	})

	api := http.Server{
		Handler:      mux,
		Addr:         cfg.Web.Address,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     errLog,
	}

	serverErrors := make(chan error, 1)

	go func() {
		logger.Infof("starting api router at %s", api.Addr)
		serverErrors <- api.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Infof("shutting down: signal %s", sig)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		if err := api.Shutdown(ctx); err != nil {
			api.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}
	return nil
}

// openCatalog picks the Postgres catalog when a DSN is configured and the
// built-in seed catalog otherwise.
func openCatalog(cfg config.Config, logger *logrus.Logger) (catalog.Storer, error) {
	if cfg.DB.DSN == "" {
		logger.Info("no database configured, serving the seed catalog")
		return catalog.NewMemory(), nil
	}

	db, err := database.Open(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := database.StatusCheck(ctx, db); err != nil {
		return nil, fmt.Errorf("database not ready: %w", err)
	}

	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrating catalog schema: %w", err)
	}

	return catalog.NewPostgres(db), nil
}
