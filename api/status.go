package api

import (
	"net/http"

	"github.com/the-lightning-land/studiod/updater"
)

type StatusResponse struct {
	Status         updater.Status `json:"status"`
	ReadyToInstall bool           `json:"readyToInstall"`
	Sessions       int            `json:"sessions"`
}

func (a *Api) handleGetStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a.jsonResponse(w, a.status(), http.StatusOK)
	}
}

func (a *Api) status() *StatusResponse {
	return &StatusResponse{
		Status:         a.coordinator.Status(),
		ReadyToInstall: a.coordinator.ReadyToInstall(),
		Sessions:       a.coordinator.SessionCount(),
	}
}
