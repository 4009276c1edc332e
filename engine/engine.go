package engine

import (
	"context"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-errors/errors"
	"github.com/hashicorp/go-version"
	"github.com/the-lightning-land/studiod/studiodb"
	"github.com/the-lightning-land/studiod/updater"
)

const (
	checkTimeout    = 30 * time.Second
	downloadTimeout = 30 * time.Minute
	eventBuffer     = 64
)

// Store keeps track of a staged update across restarts.
type Store interface {
	GetStagedUpdate() (*studiodb.StagedUpdate, error)
	SetStagedUpdate(staged *studiodb.StagedUpdate) error
}

type Config struct {
	// FeedUrl is the base url of the update feed, the release document is
	// expected at <FeedUrl>/<Channel>.json
	FeedUrl        string
	Channel        string
	CurrentVersion string
	StagingDir     string
	HttpClient     HttpClient
	Installer      Installer
	Store          Store
	// Quit is called after the installer was started successfully.
	Quit   func()
	Logger Logger
}

// Engine checks an http update feed, downloads the announced artifact and
// installs it.
type Engine struct {
	feedUrl    string
	channel    string
	current    *version.Version
	stagingDir string
	client     HttpClient
	installer  Installer
	store      Store
	quit       func()
	log        Logger
	events     chan updater.EngineEvent

	mtx          sync.Mutex
	autoDownload bool
	checking     bool
	downloading  bool
	available    *updater.ReleaseInfo
	staged       *studiodb.StagedUpdate
}

// Compile time check for protocol compatibility
var _ updater.Engine = (*Engine)(nil)

func New(config *Config) (*Engine, error) {
	current, err := version.NewVersion(config.CurrentVersion)
	if err != nil {
		return nil, errors.Errorf("could not parse current version %q: %v", config.CurrentVersion, err)
	}

	e := &Engine{
		feedUrl:    strings.TrimSuffix(config.FeedUrl, "/"),
		channel:    config.Channel,
		current:    current,
		stagingDir: config.StagingDir,
		client:     config.HttpClient,
		installer:  config.Installer,
		store:      config.Store,
		quit:       config.Quit,
		events:     make(chan updater.EngineEvent, eventBuffer),
	}

	if config.Logger != nil {
		e.log = config.Logger
	} else {
		e.log = noopLogger{}
	}

	if e.channel == "" {
		e.channel = "latest"
	}

	if e.stagingDir == "" {
		e.stagingDir = os.TempDir()
	}

	if e.client == nil {
		e.client = defaultHttpClient()
	}

	if e.installer == nil {
		e.installer = &ExecInstaller{}
	}

	e.restoreStagedUpdate()

	return e, nil
}

func (e *Engine) Events() <-chan updater.EngineEvent {
	return e.events
}

func (e *Engine) SetAutoDownload(enabled bool) {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	e.autoDownload = enabled
}

// CheckForUpdates fetches the release document. A check that is requested
// while another one is running is ignored.
func (e *Engine) CheckForUpdates() {
	e.mtx.Lock()
	if e.checking {
		e.mtx.Unlock()
		e.log.Debugf("Update check already in progress")
		return
	}
	e.checking = true
	e.mtx.Unlock()

	go func() {
		defer func() {
			e.mtx.Lock()
			e.checking = false
			e.mtx.Unlock()
		}()

		e.check()
	}()
}

func (e *Engine) DownloadUpdate() {
	e.mtx.Lock()
	release := e.available
	if release != nil && e.downloading {
		e.mtx.Unlock()
		e.log.Debugf("Download of %v already in progress", release.Version)
		return
	}
	if release != nil {
		e.downloading = true
	}
	e.mtx.Unlock()

	go func() {
		if release == nil {
			e.fail(errors.New("no update available to download"))
			return
		}

		defer func() {
			e.mtx.Lock()
			e.downloading = false
			e.mtx.Unlock()
		}()

		e.download(release)
	}()
}

// QuitAndInstall hands the staged artifact to the installer and quits.
func (e *Engine) QuitAndInstall(silent bool, force bool) {
	e.mtx.Lock()
	staged := e.staged
	e.mtx.Unlock()

	if staged == nil {
		e.fail(errors.New("no downloaded update to install"))
		return
	}

	e.log.Infof("Installing update %v from %v", staged.Version, staged.Path)

	err := e.installer.Install(staged.Path, &InstallOptions{
		Silent: silent,
		Force:  force,
		Sha256: staged.Sha256,
	})
	if err != nil {
		e.fail(errors.Errorf("could not install update %v: %v", staged.Version, err))
		return
	}

	e.mtx.Lock()
	e.staged = nil
	e.mtx.Unlock()

	if e.store != nil {
		if err := e.store.SetStagedUpdate(nil); err != nil {
			e.log.Warnf("Could not clear staged update: %v", err)
		}
	}

	if e.quit != nil {
		e.log.Infof("Quitting to let the installer finish")
		e.quit()
	}
}

func (e *Engine) check() {
	e.emit(updater.EngineEvent{Name: updater.EngineCheckingForUpdate})

	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	release, err := e.fetchRelease(ctx)
	if err != nil {
		e.fail(err)
		return
	}

	latest, err := version.NewVersion(release.Version)
	if err != nil {
		e.fail(errors.Errorf("invalid version %q in update feed: %v", release.Version, err))
		return
	}

	if !latest.GreaterThan(e.current) {
		e.log.Debugf("Current version %v is up to date with %v", e.current, latest)
		e.emit(updater.EngineEvent{Name: updater.EngineUpdateNotAvailable, Release: release})
		return
	}

	e.mtx.Lock()
	e.available = release
	auto := e.autoDownload
	e.mtx.Unlock()

	e.emit(updater.EngineEvent{Name: updater.EngineUpdateAvailable, Release: release})

	if auto {
		e.DownloadUpdate()
	}
}

func (e *Engine) download(release *updater.ReleaseInfo) {
	if staged := e.stagedFor(release); staged != nil {
		e.log.Infof("Update %v is already downloaded to %v", release.Version, staged.Path)
		e.emit(updater.EngineEvent{Name: updater.EngineUpdateDownloaded, Release: release})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), downloadTimeout)
	defer cancel()

	path, sum, err := e.fetchArtifact(ctx, release)
	if err != nil {
		e.fail(err)
		return
	}

	if release.Sha256 != "" && !strings.EqualFold(release.Sha256, sum) {
		if err := os.Remove(path); err != nil {
			e.log.Warnf("Could not remove corrupt download %v: %v", path, err)
		}

		e.fail(errors.Errorf("checksum mismatch for %v: expected %v, got %v", release.Url, release.Sha256, sum))
		return
	}

	staged := &studiodb.StagedUpdate{
		Version:    release.Version,
		Path:       path,
		Sha256:     sum,
		Downloaded: time.Now(),
	}

	e.mtx.Lock()
	e.staged = staged
	e.mtx.Unlock()

	if e.store != nil {
		if err := e.store.SetStagedUpdate(staged); err != nil {
			e.log.Warnf("Could not persist staged update: %v", err)
		}
	}

	e.emit(updater.EngineEvent{Name: updater.EngineUpdateDownloaded, Release: release})
}

// stagedFor returns the staged update if it matches the release.
func (e *Engine) stagedFor(release *updater.ReleaseInfo) *studiodb.StagedUpdate {
	e.mtx.Lock()
	staged := e.staged
	e.mtx.Unlock()

	if staged == nil || staged.Version != release.Version {
		return nil
	}

	if release.Sha256 != "" && !strings.EqualFold(staged.Sha256, release.Sha256) {
		return nil
	}

	if _, err := os.Stat(staged.Path); err != nil {
		return nil
	}

	return staged
}

// restoreStagedUpdate picks up an update downloaded by a previous run, as
// long as it is still newer than the running version.
func (e *Engine) restoreStagedUpdate() {
	if e.store == nil {
		return
	}

	staged, err := e.store.GetStagedUpdate()
	if err != nil {
		e.log.Warnf("Could not read staged update: %v", err)
		return
	}

	if staged == nil {
		return
	}

	v, err := version.NewVersion(staged.Version)
	if err != nil || !v.GreaterThan(e.current) {
		e.log.Infof("Discarding outdated staged update %v", staged.Version)

		if err := e.store.SetStagedUpdate(nil); err != nil {
			e.log.Warnf("Could not clear staged update: %v", err)
		}

		return
	}

	e.staged = staged
}

func (e *Engine) fail(err error) {
	e.log.Errorf("Update failed: %v", err)
	e.emit(updater.EngineEvent{Name: updater.EngineError, Err: err})
}

func (e *Engine) emit(event updater.EngineEvent) {
	e.events <- event
}
