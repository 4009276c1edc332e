package studio

import (
	"net"
	"time"

	"github.com/the-lightning-land/studiod/updater"
)

type Config struct {
	Coordinator *updater.Coordinator
	Api         Api
	// Listener takes precedence over Listen.
	Listener net.Listener
	Listen   string
	// AutoCheck runs an automatic update check on start and then every
	// CheckInterval.
	AutoCheck     bool
	CheckInterval time.Duration
	Logger        Logger
}
