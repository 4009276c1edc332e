package frontend

import (
	"github.com/the-lightning-land/studiod/updater"
)

// Updater issues commands to the update coordinator, either in process or
// through the daemon api.
type Updater interface {
	CheckForUpdates() error
	RequestDownload() error
	RequestRestartAndInstall() error
}

type inProcessUpdater struct {
	coordinator *updater.Coordinator
}

// InProcess adapts a coordinator running in the same process.
func InProcess(coordinator *updater.Coordinator) Updater {
	return &inProcessUpdater{coordinator: coordinator}
}

func (i *inProcessUpdater) CheckForUpdates() error {
	i.coordinator.CheckForUpdates()
	return nil
}

func (i *inProcessUpdater) RequestDownload() error {
	i.coordinator.RequestDownload()
	return nil
}

func (i *inProcessUpdater) RequestRestartAndInstall() error {
	return i.coordinator.RequestRestartAndInstall()
}
