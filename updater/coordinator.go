package updater

import (
	"context"
	"reflect"
	"sync"

	"github.com/go-errors/errors"
)

var (
	ErrNoUpdateReady  = errors.New("no downloaded update is ready to install")
	ErrInvalidSession = errors.New("session is nil or not comparable")
)

// engineStatuses maps engine lifecycle events onto the canonical status.
var engineStatuses = map[EngineEventName]Status{
	EngineCheckingForUpdate:  StatusInProgress,
	EngineUpdateAvailable:    StatusAvailable,
	EngineUpdateNotAvailable: StatusNotAvailable,
	EngineDownloadProgress:   StatusDownloadProcessing,
	EngineUpdateDownloaded:   StatusDownloadComplete,
	EngineError:              StatusError,
}

type Config struct {
	Engine Engine
	Logger Logger
}

// Coordinator translates engine events into session notifications and
// session commands into engine calls.
type Coordinator struct {
	engine Engine
	log    Logger

	mtx               sync.Mutex
	sessions          []Session
	status            Status
	autoCheckInFlight bool
	readyToInstall    bool
	nextClientID      uint32
}

func New(config *Config) *Coordinator {
	c := &Coordinator{
		engine: config.Engine,
	}

	if config.Logger != nil {
		c.log = config.Logger
	} else {
		c.log = noopLogger{}
	}

	if c.engine == nil {
		c.engine = NewNoopEngine()
	}

	return c
}

// Run dispatches engine events until the context is done or the engine
// closes its event stream.
func (c *Coordinator) Run(ctx context.Context) error {
	events := c.engine.Events()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				c.log.Infof("Update engine closed its event stream")
				return nil
			}

			c.HandleEngineEvent(event)
		case <-ctx.Done():
			return nil
		}
	}
}

// CheckForUpdates starts a user triggered update cycle.
func (c *Coordinator) CheckForUpdates() {
	c.mtx.Lock()
	c.autoCheckInFlight = false
	c.readyToInstall = false
	c.status = StatusInProgress
	c.mtx.Unlock()

	c.log.Infof("Checking for updates on request of a frontend")

	c.engine.SetAutoDownload(false)
	c.engine.CheckForUpdates()
}

// AutoCheckForUpdates starts an update cycle on behalf of the application
// itself. Availability is not announced, the engine downloads right away.
func (c *Coordinator) AutoCheckForUpdates() {
	c.mtx.Lock()
	if c.readyToInstall {
		c.mtx.Unlock()
		c.log.Debugf("Skipping automatic update check, an update is ready to install")
		return
	}

	c.autoCheckInFlight = true
	c.status = StatusInProgress
	c.mtx.Unlock()

	c.log.Infof("Checking the update server for a new version")

	c.engine.SetAutoDownload(true)
	c.engine.CheckForUpdates()
}

func (c *Coordinator) RequestDownload() {
	c.log.Infof("Download of the update was requested by a frontend")

	c.engine.DownloadUpdate()
}

// RequestRestartAndInstall hands over to the engine which terminates the
// process and runs the installer. The hand over happens on its own
// goroutine so that pending pushes can still go out.
func (c *Coordinator) RequestRestartAndInstall() error {
	if !c.ReadyToInstall() {
		c.log.Warnf("Restart to update was requested, but no update is ready")
		return ErrNoUpdateReady
	}

	c.log.Infof("Restart to update was requested by a frontend")

	go c.engine.QuitAndInstall(false, true)

	return nil
}

func (c *Coordinator) RegisterClient(session Session) error {
	if session == nil || !reflect.TypeOf(session).Comparable() {
		c.log.Warnf("Could not register invalid updater client %T", session)
		return ErrInvalidSession
	}

	c.mtx.Lock()
	defer c.mtx.Unlock()

	if c.indexOf(session) != -1 {
		c.log.Debugf("Updater client is already registered")
		return nil
	}

	c.sessions = append(c.sessions, session)

	c.log.Infof("Registered a new updater client, %d connected", len(c.sessions))

	return nil
}

func (c *Coordinator) DeregisterClient(session Session) {
	if session == nil || !reflect.TypeOf(session).Comparable() {
		c.log.Warnf("Could not deregister invalid updater client %T", session)
		return
	}

	c.mtx.Lock()
	defer c.mtx.Unlock()

	i := c.indexOf(session)
	if i == -1 {
		c.log.Warnf("Could not deregister updater client, it was not registered")
		return
	}

	c.sessions = append(c.sessions[:i], c.sessions[i+1:]...)

	c.log.Infof("Deregistered an updater client, %d connected", len(c.sessions))
}

// Subscribe registers a channel backed session. Cancel it to deregister.
func (c *Coordinator) Subscribe() *Client {
	client := newClient(c)

	c.mtx.Lock()
	client.Id = c.nextClientID
	c.nextClientID++
	c.mtx.Unlock()

	_ = c.RegisterClient(client)

	return client
}

// HandleEngineEvent updates the coordinator state for an engine event and
// pushes the resulting notification to the registered sessions.
func (c *Coordinator) HandleEngineEvent(event EngineEvent) {
	status, ok := engineStatuses[event.Name]
	if !ok {
		c.log.Warnf("Ignoring unknown update engine event %q", event.Name)
		return
	}

	c.mtx.Lock()
	c.status = status
	auto := c.autoCheckInFlight
	if event.Name == EngineUpdateDownloaded {
		c.readyToInstall = true
	}
	c.mtx.Unlock()

	switch event.Name {
	case EngineCheckingForUpdate:
		c.log.Debugf("Update engine is checking for updates")

	case EngineUpdateAvailable:
		c.log.Infof("Update available %v", releaseVersion(event.Release))

		if auto {
			return
		}

		c.broadcast(UpdateEvent{Status: StatusAvailable})

	case EngineUpdateNotAvailable:
		c.log.Infof("No update available")

		if auto {
			return
		}

		c.broadcast(UpdateEvent{Status: StatusNotAvailable})

	case EngineDownloadProgress:
		if event.Progress == nil {
			c.log.Warnf("Ignoring download progress without progress information")
			return
		}

		progress := FormatProgress(event.Progress.Percent)

		c.log.Debugf("Download progress %v", progress)

		c.broadcast(UpdateEvent{Status: StatusDownloadProcessing, Progress: progress})

	case EngineUpdateDownloaded:
		c.log.Infof("Update %v downloaded, notifying all frontends", releaseVersion(event.Release))

		c.fanOut(func(s Session) error {
			if err := s.NotifyReadyToInstall(); err != nil {
				return err
			}

			return s.NotifyUpdaterMsgPush(UpdateEvent{Status: StatusDownloadComplete})
		})

	case EngineError:
		c.log.Errorf("Update engine failed: %v", event.Err)

		if auto {
			return
		}

		c.broadcast(UpdateEvent{Status: StatusError})
	}
}

func (c *Coordinator) Status() Status {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	return c.status
}

func (c *Coordinator) ReadyToInstall() bool {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	return c.readyToInstall
}

func (c *Coordinator) SessionCount() int {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	return len(c.sessions)
}

func (c *Coordinator) broadcast(event UpdateEvent) {
	c.fanOut(func(s Session) error {
		return s.NotifyUpdaterMsgPush(event)
	})
}

// fanOut pushes to a snapshot of the registry. Sessions deregistered while
// the fan out is running are skipped, failures only affect their session.
func (c *Coordinator) fanOut(push func(Session) error) {
	c.mtx.Lock()
	sessions := make([]Session, len(c.sessions))
	copy(sessions, c.sessions)
	c.mtx.Unlock()

	for _, s := range sessions {
		if !c.isRegistered(s) {
			continue
		}

		if err := safePush(s, push); err != nil {
			c.log.Warnf("Could not push to updater client: %v", err)
		}
	}
}

func (c *Coordinator) isRegistered(session Session) bool {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	return c.indexOf(session) != -1
}

// indexOf must be called with mtx held.
func (c *Coordinator) indexOf(session Session) int {
	for i, s := range c.sessions {
		if s == session {
			return i
		}
	}

	return -1
}

func safePush(s Session, push func(Session) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("client panicked: %v", r)
		}
	}()

	return push(s)
}

func releaseVersion(release *ReleaseInfo) string {
	if release == nil {
		return "(unknown version)"
	}

	return release.Version
}
