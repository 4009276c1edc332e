package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-errors/errors"
	"github.com/gorilla/websocket"
	"github.com/the-lightning-land/studiod/updater"
)

// Connection forwards the updater events of a daemon to a local session.
type Connection struct {
	conn *websocket.Conn
	done chan struct{}

	mtx sync.Mutex
	err error
}

// Dial connects to the updater events of the daemon at baseUrl. Events are
// delivered to session in order until the connection is closed.
func Dial(ctx context.Context, baseUrl string, session updater.Session) (*Connection, error) {
	eventsUrl, err := websocketUrl(baseUrl, "/api/v1/updater/events")
	if err != nil {
		return nil, err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, eventsUrl, nil)
	if err != nil {
		return nil, errors.Errorf("could not connect to %v: %v", eventsUrl, err)
	}

	c := &Connection{
		conn: conn,
		done: make(chan struct{}),
	}

	go c.readPump(session)

	return c, nil
}

// Done is closed once the connection is gone.
func (c *Connection) Done() <-chan struct{} {
	return c.done
}

// Err returns why the connection ended, nil if it was closed locally.
func (c *Connection) Err() error {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	return c.err
}

func (c *Connection) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))

	return c.conn.Close()
}

func (c *Connection) readPump(session updater.Session) {
	defer close(c.done)

	for {
		msg := &updater.Message{}

		if err := c.conn.ReadJSON(msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) && !errors.Is(err, net.ErrClosed) {
				c.mtx.Lock()
				c.err = err
				c.mtx.Unlock()
			}

			return
		}

		switch msg.Type {
		case updater.MessageReadyToInstall:
			_ = session.NotifyReadyToInstall()
		case updater.MessageUpdaterMsg:
			_ = session.NotifyUpdaterMsgPush(updater.UpdateEvent{
				Status:   msg.Status,
				Progress: msg.Progress,
			})
		}
	}
}

// RemoteUpdater issues updater commands to a daemon.
type RemoteUpdater struct {
	baseUrl string
	client  *http.Client
}

func NewRemoteUpdater(baseUrl string, client *http.Client) *RemoteUpdater {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	return &RemoteUpdater{
		baseUrl: strings.TrimSuffix(baseUrl, "/"),
		client:  client,
	}
}

func (r *RemoteUpdater) CheckForUpdates() error {
	return r.post("/api/v1/updater/check")
}

func (r *RemoteUpdater) RequestDownload() error {
	return r.post("/api/v1/updater/download")
}

// RequestRestartAndInstall returns updater.ErrNoUpdateReady if the daemon
// has no downloaded update.
func (r *RemoteUpdater) RequestRestartAndInstall() error {
	return r.post("/api/v1/updater/install")
}

func (r *RemoteUpdater) Status() (*StatusResponse, error) {
	resp, err := r.client.Get(r.baseUrl + "/api/v1/updater")
	if err != nil {
		return nil, errors.Errorf("could not get updater status: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, responseError(resp)
	}

	status := &StatusResponse{}
	if err := json.NewDecoder(resp.Body).Decode(status); err != nil {
		return nil, errors.Errorf("could not decode updater status: %v", err)
	}

	return status, nil
}

func (r *RemoteUpdater) post(path string) error {
	resp, err := r.client.Post(r.baseUrl+path, "application/json", nil)
	if err != nil {
		return errors.Errorf("could not post %v: %v", path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusConflict:
		return updater.ErrNoUpdateReady
	case resp.StatusCode >= 300:
		return responseError(resp)
	}

	return nil
}

func responseError(resp *http.Response) error {
	res := &errorResponse{}
	if err := json.NewDecoder(resp.Body).Decode(res); err != nil || res.Error == "" {
		return errors.Errorf("daemon responded with %v", resp.Status)
	}

	return errors.Errorf("daemon responded with %v: %v", resp.Status, res.Error)
}

func websocketUrl(baseUrl string, path string) (string, error) {
	u, err := url.Parse(strings.TrimSuffix(baseUrl, "/") + path)
	if err != nil {
		return "", errors.Errorf("invalid daemon url %v: %v", baseUrl, err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}

	return u.String(), nil
}
