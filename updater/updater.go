package updater

import "fmt"

type Status string

const (
	StatusInProgress         Status = "in-progress"
	StatusAvailable          Status = "update-available"
	StatusNotAvailable       Status = "update-not-available"
	StatusDownloadComplete   Status = "update-downloaded"
	StatusDownloadProcessing Status = "download-progress"
	StatusError              Status = "error"
)

// StatusIdle is reported before the first update cycle starts.
const StatusIdle Status = ""

// UpdateEvent is pushed to every registered session. Progress is only set
// for StatusDownloadProcessing.
type UpdateEvent struct {
	Status   Status `json:"status"`
	Progress string `json:"progress,omitempty"`
}

// FormatProgress renders a download percentage the way sessions display it,
// e.g. 42.5 becomes "42.50%".
func FormatProgress(percent float64) string {
	return fmt.Sprintf("%.2f%%", percent)
}

// Session is the notification endpoint of one connected frontend.
// Implementations must be comparable, pointers usually are.
type Session interface {
	NotifyReadyToInstall() error
	NotifyUpdaterMsgPush(event UpdateEvent) error
}
