package frontend

import (
	"time"

	"github.com/go-errors/errors"
	"github.com/the-lightning-land/studiod/locale"
	"github.com/the-lightning-land/studiod/menu"
	"github.com/the-lightning-land/studiod/preference"
)

const ChangeLanguageCommand = "studio:change-language"

type LanguageContributionConfig struct {
	Preferences *preference.Preferences
	Messages    MessageService
	Translator  *locale.Translator
	Commands    *menu.CommandRegistry
	Menus       *menu.Registry
	MenuUpdater menu.Updater
	Logger      Logger
}

// LanguageContribution toggles the studio language between English and
// Chinese and keeps its menu entry translated.
type LanguageContribution struct {
	preferences *preference.Preferences
	messages    MessageService
	translator  *locale.Translator
	menus       *menu.Registry
	menuUpdater menu.Updater
	log         Logger

	command         menu.Disposable
	menuDisposables *menu.DisposableCollection
	removeListener  func()
}

func NewLanguageContribution(config *LanguageContributionConfig) (*LanguageContribution, error) {
	l := &LanguageContribution{
		preferences:     config.Preferences,
		messages:        config.Messages,
		translator:      config.Translator,
		menus:           config.Menus,
		menuUpdater:     config.MenuUpdater,
		menuDisposables: &menu.DisposableCollection{},
	}

	if config.Logger != nil {
		l.log = config.Logger
	} else {
		l.log = noopLogger{}
	}

	if l.messages == nil {
		l.messages = &LogMessageService{Logger: l.log}
	}

	if err := l.translator.Init(l.preferences.Language()); err != nil {
		l.log.Warnf("Could not apply stored language: %v", err)
	}

	command, err := config.Commands.RegisterCommand(menu.Command{
		Id:    ChangeLanguageCommand,
		Label: l.translator.Get("CHANGE_LANGUAGE"),
	}, menu.Handler{
		Execute: l.changeLanguage,
	})
	if err != nil {
		return nil, errors.Errorf("could not register %v: %v", ChangeLanguageCommand, err)
	}

	l.command = command
	l.removeListener = l.preferences.OnPreferenceChanged(l.onPreferenceChanged)

	l.UpdateMenus()

	return l, nil
}

func (l *LanguageContribution) UpdateMenus() {
	l.menuDisposables.Dispose()

	l.menuDisposables.Push(l.menus.RegisterMenuAction(menu.EditFind, menu.Action{
		CommandId: ChangeLanguageCommand,
		Label:     l.translator.Get("CHANGE_LANGUAGE"),
	}))

	l.menuUpdater.Update()
}

func (l *LanguageContribution) Dispose() {
	l.removeListener()
	l.menuDisposables.Dispose()
	l.command.Dispose()
	l.menuUpdater.Update()
}

func (l *LanguageContribution) changeLanguage() error {
	if err := l.messages.Info(l.translator.Get("CHANGE_LANGUAGE_MESSAGE"), 5*time.Second); err != nil {
		l.log.Warnf("Could not show language message: %v", err)
	}

	next := "en-US"
	if l.preferences.Language() == "en-US" {
		next = "zh-CN"
	}

	return l.preferences.SetLanguage(next)
}

func (l *LanguageContribution) onPreferenceChanged(event preference.ChangeEvent) {
	if event.PreferenceName != preference.LanguagePreference {
		return
	}

	if err := l.translator.Init(event.NewValue); err != nil {
		l.log.Warnf("Could not switch language: %v", err)
		return
	}

	l.UpdateMenus()
}
