package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/the-lightning-land/studiod/api"
	"github.com/the-lightning-land/studiod/engine"
	"github.com/the-lightning-land/studiod/frontend"
	"github.com/the-lightning-land/studiod/notify"
	"github.com/the-lightning-land/studiod/studio"
	"github.com/the-lightning-land/studiod/studiodb"
	"github.com/the-lightning-land/studiod/updater"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// commit stores the current commit hash of this build. This should be set using -ldflags during compilation.
	Commit string
	// version stores the version string of this build. This should be set using -ldflags during compilation.
	Version = "0.0.0"
	// date stores the date of this build. This should be set using -ldflags during compilation.
	Date string
)

// studiodMain is the true entry point for studiod. This is required since defers
// created in the top-level scope of a main method aren't executed if os.Exit() is called.
func studiodMain() error {
	log.SetOutput(os.Stdout)
	log.SetLevel(log.InfoLevel)

	// Load CLI configuration and defaults
	cfg, err := loadConfig()
	if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
		return nil
	} else if err != nil {
		return errors.Errorf("Failed parsing arguments: %v", err)
	}

	if cfg.LogFile != "" {
		logFile := &lumberjack.Logger{
			Filename:   filepath.ToSlash(cfg.LogFile),
			MaxSize:    5, // MB
			MaxBackups: 10,
			MaxAge:     30, // days
			Compress:   true,
		}

		defer logFile.Close()

		log.SetOutput(io.MultiWriter(os.Stdout, logFile))
	}

	// Set logger into debug mode if called with --debug
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
		log.Info("Setting debug mode.")
	}

	log.Debug("Loaded config.")

	// Print version of the daemon
	log.Infof("Version %s (commit %s)", Version, Commit)
	log.Infof("Built on %s", Date)

	// Stop here if only version was requested
	if cfg.ShowVersion {
		return nil
	}

	// studio.db persistently stores the preferences and the staged update,
	// frontends keep their own next to the daemon's
	dbDir := cfg.DataDir
	if cfg.Frontend.Enabled {
		dbDir = filepath.Join(cfg.DataDir, "frontend")
	}

	studioDB, err := studiodb.Open(dbDir)
	if err != nil {
		return errors.Wrap(err, "Could not open studio.db")
	}

	log.Infof("Opened studio.db")

	defer func() {
		err := studioDB.Close()
		if err != nil {
			log.Errorf("Could not close studio.db: %v", err)
		} else {
			log.Info("Closed studio.db.")
		}
	}()

	if cfg.Frontend.Enabled {
		return runFrontend(cfg, studioDB)
	}

	// central controller for everything the daemon does
	var s *studio.Studio

	// The update engine
	var e updater.Engine

	switch cfg.Updater {
	case "none":
		e = updater.NewNoopEngine()

		log.Info("Created noop update engine.")
	case "feed":
		var installer engine.Installer

		switch cfg.Installer {
		case "binary":
			installer = &engine.BinaryInstaller{TargetPath: cfg.Target}
		default:
			installer = &engine.ExecInstaller{
				SilentArgs:   []string{"/S"},
				ForceRunArgs: []string{"--force-run"},
			}
		}

		e, err = engine.New(&engine.Config{
			FeedUrl:        cfg.Feed,
			Channel:        cfg.Channel,
			CurrentVersion: Version,
			StagingDir:     filepath.Join(cfg.DataDir, "updates"),
			Installer:      installer,
			Store:          studioDB,
			Quit:           func() { s.Shutdown() },
			Logger:         log.New().WithField("system", "engine"),
		})
		if err != nil {
			return errors.Wrap(err, "Could not create update engine")
		}

		log.Infof("Created update engine for %v.", cfg.Feed)
	default:
		return errors.Errorf("Unknown updater type %v", cfg.Updater)
	}

	coordinator := updater.New(&updater.Config{
		Engine: e,
		Logger: log.New().WithField("system", "updater"),
	})

	log.Infof("Created update coordinator.")

	a := api.New(&api.Config{
		Coordinator: coordinator,
		Log:         log.New().WithField("system", "api"),
	})

	log.Infof("Created API")

	s = studio.New(&studio.Config{
		Coordinator:   coordinator,
		Api:           a,
		Listen:        cfg.Listen,
		AutoCheck:     !cfg.NoAutoCheck,
		CheckInterval: cfg.CheckInterval,
		Logger:        log.New().WithField("system", "studio"),
	})

	log.Infof("Created studio.")

	// Handle interrupt signals correctly
	go func() {
		signals := make(chan os.Signal, 1)
		signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
		sig := <-signals
		log.Info(sig)
		log.Info("Received an interrupt, stopping studio...")
		s.Shutdown()
	}()

	// blocks until the studio is shut down
	err = s.Run()
	if err != nil {
		return errors.Wrap(err, "Failed running studio")
	}

	// finish with no error
	return nil
}

func runFrontend(cfg *config, studioDB *studiodb.DB) error {
	var messages frontend.MessageService = &frontend.LogMessageService{
		Logger: log.New().WithField("system", "messages"),
	}

	if cfg.Frontend.Notify {
		notifier, err := notify.New(&notify.Config{
			AppName: "Studio",
			Logger:  log.New().WithField("system", "notify"),
		})
		if err != nil {
			log.Warnf("Could not use desktop notifications, logging messages instead: %v", err)
		} else {
			defer notifier.Close()

			messages = notifier
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err := studio.RunFrontend(ctx, &studio.FrontendConfig{
		DaemonUrl:   cfg.Frontend.Daemon,
		Preferences: studioDB,
		Messages:    messages,
		Input:       os.Stdin,
		Output:      os.Stdout,
		Logger:      log.New().WithField("system", "frontend"),
	})
	if err != nil {
		return errors.Wrap(err, "Failed running frontend")
	}

	return nil
}

func main() {
	// Call the "real" main in a nested manner so the defers will properly
	// be executed in the case of a graceful shutdown.
	if err := studiodMain(); err != nil {
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
		} else {
			log.WithError(err).Println("Failed running studiod.")
		}
		os.Exit(1)
	}
}
