package frontend

import (
	"sync"
	"time"

	"github.com/go-errors/errors"
	"github.com/the-lightning-land/studiod/locale"
	"github.com/the-lightning-land/studiod/menu"
	"github.com/the-lightning-land/studiod/preference"
	"github.com/the-lightning-land/studiod/updater"
)

const (
	CheckForUpdatesCommand = "studio:check-for-updates"
	RestartToUpdateCommand = "studio:restart-to-update"

	updaterCategory = "Studio Updater"
)

var UpdateMenuPath = menu.FileSettingsSubmenu.Append("3_settings_submenu_update")

type UpdaterContributionConfig struct {
	Updater     Updater
	Messages    MessageService
	Translator  *locale.Translator
	Preferences *preference.Preferences
	Commands    *menu.CommandRegistry
	Menus       *menu.Registry
	MenuUpdater menu.Updater
	Logger      Logger
}

// UpdaterContribution is the frontend side of the updater. It receives the
// coordinator pushes and offers the check and restart commands, of which
// only one is enabled at a time.
type UpdaterContribution struct {
	updater     Updater
	messages    MessageService
	translator  *locale.Translator
	commands    *menu.CommandRegistry
	menus       *menu.Registry
	menuUpdater menu.Updater
	log         Logger

	mtx           sync.Mutex
	readyToUpdate bool

	toDispose       *menu.DisposableCollection
	menuDisposables *menu.DisposableCollection
	removeListener  func()
}

var _ updater.Session = (*UpdaterContribution)(nil)

func NewUpdaterContribution(config *UpdaterContributionConfig) (*UpdaterContribution, error) {
	u := &UpdaterContribution{
		updater:         config.Updater,
		messages:        config.Messages,
		translator:      config.Translator,
		commands:        config.Commands,
		menus:           config.Menus,
		menuUpdater:     config.MenuUpdater,
		toDispose:       &menu.DisposableCollection{},
		menuDisposables: &menu.DisposableCollection{},
	}

	if config.Logger != nil {
		u.log = config.Logger
	} else {
		u.log = noopLogger{}
	}

	if u.messages == nil {
		u.messages = &LogMessageService{Logger: u.log}
	}

	check, err := u.commands.RegisterCommand(menu.Command{
		Id:       CheckForUpdatesCommand,
		Label:    u.translator.Get("CheckForUpdates_Label"),
		Category: updaterCategory,
	}, menu.Handler{
		Execute:   u.updater.CheckForUpdates,
		IsEnabled: u.notReady,
		IsVisible: u.notReady,
	})
	if err != nil {
		return nil, errors.Errorf("could not register %v: %v", CheckForUpdatesCommand, err)
	}

	u.toDispose.Push(check)

	restart, err := u.commands.RegisterCommand(menu.Command{
		Id:       RestartToUpdateCommand,
		Label:    u.translator.Get("RestartToUpdate_Label"),
		Category: updaterCategory,
	}, menu.Handler{
		Execute:   u.restartToUpdate,
		IsEnabled: u.ReadyToUpdate,
		IsVisible: u.ReadyToUpdate,
	})
	if err != nil {
		u.toDispose.Dispose()
		return nil, errors.Errorf("could not register %v: %v", RestartToUpdateCommand, err)
	}

	u.toDispose.Push(restart)

	if config.Preferences != nil {
		u.removeListener = config.Preferences.OnPreferenceChanged(u.onPreferenceChanged)
	}

	u.UpdateMenus()

	return u, nil
}

func (u *UpdaterContribution) NotifyReadyToInstall() error {
	u.log.Infof("Update was downloaded, switching to restart to update")

	u.mtx.Lock()
	u.readyToUpdate = true
	u.mtx.Unlock()

	u.menuUpdater.Update()

	return nil
}

func (u *UpdaterContribution) NotifyUpdaterMsgPush(event updater.UpdateEvent) error {
	u.log.Debugf("Received updater message %v", event.Status)

	var err error

	switch event.Status {
	case updater.StatusAvailable:
		go u.handleUpdateAvailable()

	case updater.StatusNotAvailable:
		err = u.messages.Info(u.translator.Get("AppGetLatestVersion_Message"), 5*time.Second)

	case updater.StatusDownloadProcessing:
		err = u.messages.Warn(u.translator.Get("AppUpdateDownloading_Message")+event.Progress, time.Second)

	case updater.StatusDownloadComplete:
		err = u.messages.Info(u.translator.Get("AppUpdateDownloadComplete_Message"), 5*time.Second)

	case updater.StatusError:
		err = u.messages.Warn(u.translator.Get("AppUpdateError_Message"), 5*time.Second)

	default:
		u.log.Debugf("Nothing to do for updater status %q", event.Status)
	}

	if err != nil {
		u.log.Warnf("Could not show updater message: %v", err)
	}

	return nil
}

func (u *UpdaterContribution) ReadyToUpdate() bool {
	u.mtx.Lock()
	defer u.mtx.Unlock()

	return u.readyToUpdate
}

// UpdateMenus replaces the menu entries with freshly translated ones.
func (u *UpdaterContribution) UpdateMenus() {
	u.menuDisposables.Dispose()

	u.menuDisposables.Push(u.menus.RegisterMenuAction(UpdateMenuPath, menu.Action{
		CommandId: CheckForUpdatesCommand,
		Label:     u.translator.Get("CheckForUpdates_Label"),
	}))

	u.menuDisposables.Push(u.menus.RegisterMenuAction(UpdateMenuPath, menu.Action{
		CommandId: RestartToUpdateCommand,
		Label:     u.translator.Get("RestartToUpdate_Label"),
	}))

	u.menuUpdater.Update()
}

// Dispose removes the commands, menu entries and preference listener.
func (u *UpdaterContribution) Dispose() {
	if u.removeListener != nil {
		u.removeListener()
	}

	u.menuDisposables.Dispose()
	u.toDispose.Dispose()
	u.menuUpdater.Update()
}

func (u *UpdaterContribution) notReady() bool {
	return !u.ReadyToUpdate()
}

func (u *UpdaterContribution) restartToUpdate() error {
	if err := u.updater.RequestRestartAndInstall(); err != nil {
		return err
	}

	if err := u.messages.Info(u.translator.Get("AppUpdateDownloadComplete_Message"), 3*time.Second); err != nil {
		u.log.Warnf("Could not show updater message: %v", err)
	}

	return nil
}

func (u *UpdaterContribution) handleUpdateAvailable() {
	yes := u.translator.Get("ChooseYes")

	answer, err := u.messages.Prompt(u.translator.Get("AppDetectedUpdateRequestDownload_Message"),
		yes, u.translator.Get("ChooseLater"))
	if err != nil {
		u.log.Warnf("Could not ask for update download: %v", err)
		return
	}

	if answer != yes {
		u.log.Infof("Update download was postponed")
		return
	}

	if err := u.updater.RequestDownload(); err != nil {
		u.log.Errorf("Could not request update download: %v", err)
	}
}

func (u *UpdaterContribution) onPreferenceChanged(event preference.ChangeEvent) {
	if event.PreferenceName != preference.LanguagePreference {
		return
	}

	if err := u.translator.Init(event.NewValue); err != nil {
		u.log.Warnf("Could not switch language: %v", err)
		return
	}

	u.UpdateMenus()
}
