package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/the-lightning-land/studiod/updater"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

func (a *Api) handlePostCheck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a.coordinator.CheckForUpdates()

		a.jsonResponse(w, a.status(), http.StatusAccepted)
	}
}

func (a *Api) handlePostDownload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a.coordinator.RequestDownload()

		a.jsonResponse(w, a.status(), http.StatusAccepted)
	}
}

func (a *Api) handlePostInstall() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := a.coordinator.RequestRestartAndInstall()
		if err == updater.ErrNoUpdateReady {
			a.jsonError(w, err.Error(), http.StatusConflict)
			return
		}
		if err != nil {
			a.jsonError(w, err.Error(), http.StatusInternalServerError)
			return
		}

		a.jsonResponse(w, a.status(), http.StatusAccepted)
	}
}

// handleGetUpdaterEvents registers the connecting frontend as an updater
// session for as long as its websocket stays open.
func (a *Api) handleGetUpdaterEvents() http.HandlerFunc {
	upgrader := &websocket.Upgrader{}

	return func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			a.log.Warnf("Could not upgrade updater events connection: %v", err)
			return
		}

		defer c.Close()

		client := a.coordinator.Subscribe()
		defer client.Cancel()

		a.log.Infof("Frontend %d connected from %v", client.Id, r.RemoteAddr)

		closed := make(chan struct{})

		// read pump
		go func() {
			defer close(closed)

			c.SetReadLimit(512)
			_ = c.SetReadDeadline(time.Now().Add(pongWait))
			c.SetPongHandler(func(string) error {
				return c.SetReadDeadline(time.Now().Add(pongWait))
			})

			for {
				_, _, err := c.ReadMessage()
				if err != nil {
					if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
						a.log.Errorf("unexpected websocket closure: %v", err)
					}
					break
				}
			}
		}()

		// write pump
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()

		for {
			select {
			case msg, ok := <-client.Messages:
				_ = c.SetWriteDeadline(time.Now().Add(writeWait))

				if !ok {
					_ = c.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}

				if err := c.WriteJSON(msg); err != nil {
					a.log.Warnf("Could not write to frontend %d: %v", client.Id, err)
					return
				}
			case <-ticker.C:
				_ = c.SetWriteDeadline(time.Now().Add(writeWait))
				if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-closed:
				a.log.Infof("Frontend %d disconnected", client.Id)
				return
			}
		}
	}
}
