package updater

import "github.com/go-errors/errors"

var errNoEngine = errors.New("no update engine available")

type NoopEngine struct {
	events chan EngineEvent
}

// Compile time check for protocol compatibility
var _ Engine = (*NoopEngine)(nil)

func NewNoopEngine() *NoopEngine {
	return &NoopEngine{
		events: make(chan EngineEvent, 8),
	}
}

func (n *NoopEngine) Events() <-chan EngineEvent {
	return n.events
}

func (n *NoopEngine) SetAutoDownload(enabled bool) {
}

func (n *NoopEngine) CheckForUpdates() {
	n.fail()
}

func (n *NoopEngine) DownloadUpdate() {
	n.fail()
}

func (n *NoopEngine) QuitAndInstall(silent bool, force bool) {
	n.fail()
}

func (n *NoopEngine) fail() {
	select {
	case n.events <- EngineEvent{Name: EngineError, Err: errNoEngine}:
	default:
	}
}
