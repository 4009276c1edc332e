package updater

import "time"

type EngineEventName string

const (
	EngineError              EngineEventName = "error"
	EngineCheckingForUpdate  EngineEventName = "checking-for-update"
	EngineUpdateAvailable    EngineEventName = "update-available"
	EngineUpdateNotAvailable EngineEventName = "update-not-available"
	EngineUpdateDownloaded   EngineEventName = "update-downloaded"
	EngineDownloadProgress   EngineEventName = "download-progress"
)

type ReleaseInfo struct {
	Version  string
	Url      string
	Sha256   string
	Notes    string
	Released time.Time
}

type Progress struct {
	Percent        float64
	Transferred    int64
	Total          int64
	BytesPerSecond int64
}

// EngineEvent is a lifecycle event emitted by an Engine. Err is set for
// EngineError, Progress for EngineDownloadProgress, Release for the
// availability and download events.
type EngineEvent struct {
	Name     EngineEventName
	Err      error
	Release  *ReleaseInfo
	Progress *Progress
}

// Engine performs the actual version check, download and installation.
// All operations return immediately, their outcome is reported through the
// channel returned by Events in emission order.
type Engine interface {
	Events() <-chan EngineEvent
	SetAutoDownload(enabled bool)
	CheckForUpdates()
	DownloadUpdate()
	QuitAndInstall(silent bool, force bool)
}
