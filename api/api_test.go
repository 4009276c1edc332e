package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/the-lightning-land/studiod/updater"
)

type fakeEngine struct {
	mtx       sync.Mutex
	events    chan updater.EngineEvent
	checks    int
	downloads int
	installs  chan bool
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		events:   make(chan updater.EngineEvent),
		installs: make(chan bool, 1),
	}
}

func (f *fakeEngine) Events() <-chan updater.EngineEvent { return f.events }
func (f *fakeEngine) SetAutoDownload(bool)               {}

func (f *fakeEngine) CheckForUpdates() {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	f.checks++
}

func (f *fakeEngine) DownloadUpdate() {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	f.downloads++
}

func (f *fakeEngine) QuitAndInstall(silent bool, force bool) {
	f.installs <- force
}

func (f *fakeEngine) counts() (int, int) {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	return f.checks, f.downloads
}

type recordingSession struct {
	mtx     sync.Mutex
	events  []updater.UpdateEvent
	readies int
}

func (r *recordingSession) NotifyReadyToInstall() error {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.readies++
	return nil
}

func (r *recordingSession) NotifyUpdaterMsgPush(event updater.UpdateEvent) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingSession) received() ([]updater.UpdateEvent, int) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	return append([]updater.UpdateEvent(nil), r.events...), r.readies
}

func newTestServer(t *testing.T) (*updater.Coordinator, *fakeEngine, *httptest.Server) {
	t.Helper()

	engine := newFakeEngine()
	coordinator := updater.New(&updater.Config{Engine: engine})
	server := httptest.NewServer(New(&Config{Coordinator: coordinator}).Handler())
	t.Cleanup(server.Close)

	return coordinator, engine, server
}

func TestEventsAreForwardedToRemoteSession(t *testing.T) {
	coordinator, _, server := newTestServer(t)
	session := &recordingSession{}

	conn, err := Dial(context.Background(), server.URL, session)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return coordinator.SessionCount() == 1
	}, time.Second, 5*time.Millisecond)

	coordinator.CheckForUpdates()
	coordinator.HandleEngineEvent(updater.EngineEvent{Name: updater.EngineUpdateAvailable})
	coordinator.HandleEngineEvent(updater.EngineEvent{
		Name:     updater.EngineDownloadProgress,
		Progress: &updater.Progress{Percent: 12.5},
	})
	coordinator.HandleEngineEvent(updater.EngineEvent{Name: updater.EngineUpdateDownloaded})

	expected := []updater.UpdateEvent{
		{Status: updater.StatusAvailable},
		{Status: updater.StatusDownloadProcessing, Progress: "12.50%"},
		{Status: updater.StatusDownloadComplete},
	}

	assert.Eventually(t, func() bool {
		events, readies := session.received()
		return len(events) == len(expected) && readies == 1
	}, time.Second, 5*time.Millisecond)

	events, _ := session.received()
	assert.Equal(t, expected, events)

	require.NoError(t, conn.Close())

	select {
	case <-conn.Done():
	case <-time.After(time.Second):
		t.Fatal("connection did not finish")
	}
	assert.NoError(t, conn.Err())

	assert.Eventually(t, func() bool {
		return coordinator.SessionCount() == 0
	}, time.Second, 5*time.Millisecond)
}

func TestRemoteUpdaterCommands(t *testing.T) {
	coordinator, engine, server := newTestServer(t)
	remote := NewRemoteUpdater(server.URL, server.Client())

	require.NoError(t, remote.CheckForUpdates())
	require.NoError(t, remote.RequestDownload())

	checks, downloads := engine.counts()
	assert.Equal(t, 1, checks)
	assert.Equal(t, 1, downloads)

	assert.Equal(t, updater.ErrNoUpdateReady, remote.RequestRestartAndInstall())

	coordinator.HandleEngineEvent(updater.EngineEvent{Name: updater.EngineUpdateDownloaded})

	status, err := remote.Status()
	require.NoError(t, err)
	assert.Equal(t, &StatusResponse{Status: updater.StatusDownloadComplete, ReadyToInstall: true}, status)

	require.NoError(t, remote.RequestRestartAndInstall())

	select {
	case force := <-engine.installs:
		assert.True(t, force)
	case <-time.After(time.Second):
		t.Fatal("engine was not asked to install")
	}
}

func TestInstallWithoutUpdateIsConflict(t *testing.T) {
	_, _, server := newTestServer(t)

	resp, err := server.Client().Post(server.URL+"/api/v1/updater/install", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	res := &errorResponse{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(res))
	assert.Equal(t, updater.ErrNoUpdateReady.Error(), res.Error)
}

func TestCommandsRequirePost(t *testing.T) {
	_, _, server := newTestServer(t)

	resp, err := server.Client().Get(server.URL + "/api/v1/updater/check")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestDialFailsWithoutDaemon(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	_, err := Dial(context.Background(), server.URL, &recordingSession{})
	assert.Error(t, err)
}

func TestWebsocketUrl(t *testing.T) {
	u, err := websocketUrl("http://127.0.0.1:9000/", "/api/v1/updater/events")
	require.NoError(t, err)
	assert.Equal(t, "ws://127.0.0.1:9000/api/v1/updater/events", u)

	u, err = websocketUrl("https://studio.local", "/x")
	require.NoError(t, err)
	assert.Equal(t, "wss://studio.local/x", u)
}
