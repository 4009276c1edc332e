package api

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/go-errors/errors"
	"github.com/gorilla/mux"
	"github.com/the-lightning-land/studiod/updater"
)

type Config struct {
	Coordinator *updater.Coordinator
	Log         Logger
}

// Api exposes the update coordinator to frontend processes.
type Api struct {
	coordinator *updater.Coordinator
	router      *mux.Router
	server      *http.Server
	log         Logger
}

func New(config *Config) *Api {
	api := &Api{
		coordinator: config.Coordinator,
		router:      mux.NewRouter(),
	}

	if config.Log != nil {
		api.log = config.Log
	} else {
		api.log = noopLogger{}
	}

	api.server = &http.Server{
		Handler:           api.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	api.router.Handle("/api/v1/updater", api.handleGetStatus()).Methods(http.MethodGet)
	api.router.Handle("/api/v1/updater/events", api.handleGetUpdaterEvents()).Methods(http.MethodGet)
	api.router.Handle("/api/v1/updater/check", api.handlePostCheck()).Methods(http.MethodPost)
	api.router.Handle("/api/v1/updater/download", api.handlePostDownload()).Methods(http.MethodPost)
	api.router.Handle("/api/v1/updater/install", api.handlePostInstall()).Methods(http.MethodPost)

	return api
}

func (a *Api) Handler() http.Handler {
	return a.router
}

// Serve blocks until Shutdown is called or the listener fails.
func (a *Api) Serve(l net.Listener) error {
	a.log.Infof("Serving api on %v", l.Addr())

	err := a.server.Serve(l)
	if err != nil && err != http.ErrServerClosed {
		return errors.Errorf("Unable to serve api: %v", err)
	}

	return nil
}

func (a *Api) Shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)
	if err != nil {
		return errors.Errorf("Could not shut down api: %v", err)
	}

	return nil
}
