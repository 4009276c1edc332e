package studio

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/go-errors/errors"
	"github.com/the-lightning-land/studiod/engine"
	"github.com/the-lightning-land/studiod/updater"
)

const (
	defaultCheckInterval = 6 * time.Hour
	shutdownTimeout      = 5 * time.Second
)

// Studio is the central controller of the daemon. It serves the api to the
// frontends and drives the update coordinator.
type Studio struct {
	coordinator   *updater.Coordinator
	api           Api
	listener      net.Listener
	listen        string
	autoCheck     bool
	checkInterval time.Duration
	log           Logger

	done         chan struct{}
	shutdownOnce sync.Once
}

func New(config *Config) *Studio {
	studio := &Studio{
		coordinator:   config.Coordinator,
		api:           config.Api,
		listener:      config.Listener,
		listen:        config.Listen,
		autoCheck:     config.AutoCheck,
		checkInterval: config.CheckInterval,
		done:          make(chan struct{}),
	}

	if config.Logger != nil {
		studio.log = config.Logger
	} else {
		studio.log = noopLogger{}
	}

	if studio.checkInterval <= 0 {
		studio.checkInterval = defaultCheckInterval
	}

	return studio
}

// Run blocks until Shutdown is called.
func (s *Studio) Run() error {
	s.log.Infof("Starting studio...")

	lis := s.listener
	if lis == nil {
		var err error

		lis, err = net.Listen("tcp", s.listen)
		if err != nil {
			return errors.Errorf("Unable to listen on %v: %v", s.listen, err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()

		err := s.api.Serve(lis)
		if err != nil {
			s.log.Errorf("Could not serve api: %v", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()

		err := s.coordinator.Run(ctx)
		if err != nil {
			s.log.Errorf("Could not run update coordinator: %v", err)
		}
	}()

	if s.autoCheck {
		s.coordinator.AutoCheckForUpdates()

		wg.Add(1)
		go func() {
			defer wg.Done()

			engine.Periodic(ctx, s.checkInterval, s.coordinator.AutoCheckForUpdates)
		}()

		s.log.Infof("Checking for updates every %v", s.checkInterval)
	}

	<-s.done

	s.log.Infof("Stopping studio...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := s.api.Shutdown(shutdownCtx); err != nil {
		s.log.Errorf("Could not shut down api: %v", err)
	}

	wg.Wait()

	return nil
}

// Shutdown makes Run return. It is safe to call more than once.
func (s *Studio) Shutdown() {
	s.shutdownOnce.Do(func() {
		close(s.done)
	})
}
