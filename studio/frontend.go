package studio

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/go-errors/errors"
	"github.com/the-lightning-land/studiod/api"
	"github.com/the-lightning-land/studiod/frontend"
	"github.com/the-lightning-land/studiod/locale"
	"github.com/the-lightning-land/studiod/menu"
	"github.com/the-lightning-land/studiod/preference"
)

const menuCommand = "menu"

type FrontendConfig struct {
	DaemonUrl   string
	Preferences preference.Store
	Messages    frontend.MessageService
	// Input is read line by line, every line is a command id. The line
	// "menu" prints the current menu to Output.
	Input  io.Reader
	Output io.Writer
	Logger Logger
}

// RunFrontend runs a command line frontend against a running daemon until
// the input ends, the context is done or the daemon goes away.
func RunFrontend(ctx context.Context, config *FrontendConfig) error {
	log := config.Logger
	if log == nil {
		log = noopLogger{}
	}

	translator, err := locale.NewTranslator()
	if err != nil {
		return errors.Errorf("Could not create translator: %v", err)
	}

	preferences := preference.New(&preference.Config{
		Store:  config.Preferences,
		Logger: log,
	})

	commands := menu.NewCommandRegistry()
	menus := menu.NewRegistry()
	bar := menu.NewBar(&menu.BarConfig{
		Menus:    menus,
		Commands: commands,
		Logger:   log,
	})

	languages, err := frontend.NewLanguageContribution(&frontend.LanguageContributionConfig{
		Preferences: preferences,
		Messages:    config.Messages,
		Translator:  translator,
		Commands:    commands,
		Menus:       menus,
		MenuUpdater: bar,
		Logger:      log,
	})
	if err != nil {
		return errors.Errorf("Could not create language contribution: %v", err)
	}

	defer languages.Dispose()

	remote := api.NewRemoteUpdater(config.DaemonUrl, nil)

	updates, err := frontend.NewUpdaterContribution(&frontend.UpdaterContributionConfig{
		Updater:     remote,
		Messages:    config.Messages,
		Translator:  translator,
		Preferences: preferences,
		Commands:    commands,
		Menus:       menus,
		MenuUpdater: bar,
		Logger:      log,
	})
	if err != nil {
		return errors.Errorf("Could not create updater contribution: %v", err)
	}

	defer updates.Dispose()

	conn, err := api.Dial(ctx, config.DaemonUrl, updates)
	if err != nil {
		return errors.Errorf("Could not connect to daemon: %v", err)
	}

	defer func() {
		if err := conn.Close(); err != nil {
			log.Debugf("Could not close daemon connection: %v", err)
		}
	}()

	log.Infof("Connected to daemon at %v", config.DaemonUrl)

	// an update staged before we connected
	status, err := remote.Status()
	if err != nil {
		log.Warnf("Could not get updater status: %v", err)
	} else if status.ReadyToInstall {
		_ = updates.NotifyReadyToInstall()
	}

	lines := make(chan string)

	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(config.Input)
		for scanner.Scan() {
			select {
			case lines <- strings.TrimSpace(scanner.Text()):
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case line, ok := <-lines:
			if !ok {
				return nil
			}

			switch line {
			case "":
			case menuCommand:
				printMenu(config.Output, bar.Items())
			default:
				if err := commands.ExecuteCommand(line); err != nil {
					fmt.Fprintf(config.Output, "error: %v\n", err)
				}
			}

		case <-conn.Done():
			if err := conn.Err(); err != nil {
				return errors.Errorf("Lost connection to daemon: %v", err)
			}

			return errors.New("Daemon closed the connection")

		case <-ctx.Done():
			return nil
		}
	}
}

func printMenu(w io.Writer, items []menu.Item) {
	for _, item := range items {
		state := ""
		if !item.Enabled {
			state = " (disabled)"
		}

		fmt.Fprintf(w, "%v\t%v\t%v%v\n", item.Path, item.Label, item.Command, state)
	}
}
