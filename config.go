package main

import (
	"os"
	"path/filepath"
	"time"

	"github.com/jessevdk/go-flags"
)

const (
	defaultConfigFilename = "studiod.conf"
	defaultListen         = "127.0.0.1:9000"
	defaultChannel        = "latest"
	defaultCheckInterval  = 6 * time.Hour
)

type frontendConfig struct {
	Enabled bool   `long:"enabled" description:"Run as a command line frontend of a running daemon instead of the daemon itself"`
	Daemon  string `long:"daemon" description:"Base url of the daemon to connect to"`
	Notify  bool   `long:"notify" description:"Show messages as desktop notifications"`
}

type config struct {
	ConfigFile    string          `long:"configfile" description:"Path to an INI configuration file"`
	ShowVersion   bool            `short:"V" long:"version" description:"Display version information and exit"`
	Debug         bool            `long:"debug" description:"Start studiod in debug mode"`
	DataDir       string          `long:"datadir" description:"The directory to store studiod's data within"`
	LogFile       string          `long:"logfile" description:"Write logs to this file, rotating it when it grows"`
	Listen        string          `long:"listen" description:"Address the api listens on"`
	Updater       string          `long:"updater" description:"The update engine to use" choice:"none" choice:"feed"`
	Feed          string          `long:"feed" description:"Base url of the update feed"`
	Channel       string          `long:"channel" description:"Release channel of the update feed"`
	CheckInterval time.Duration   `long:"checkinterval" description:"Interval of automatic update checks"`
	NoAutoCheck   bool            `long:"noautocheck" description:"Disable automatic update checks"`
	Installer     string          `long:"installer" description:"How downloaded updates are installed" choice:"exec" choice:"binary"`
	Target        string          `long:"target" description:"Executable replaced by the binary installer, defaults to studiod itself"`
	Frontend      *frontendConfig `group:"Frontend" namespace:"frontend"`
}

func defaultDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".studiod"
	}

	return filepath.Join(dir, "studiod")
}

// loadConfig applies the defaults, an optional config file and finally the
// command line flags, in that order.
func loadConfig() (*config, error) {
	cfg := config{
		DataDir:       defaultDataDir(),
		Listen:        defaultListen,
		Updater:       "feed",
		Channel:       defaultChannel,
		CheckInterval: defaultCheckInterval,
		Installer:     "exec",
		Frontend:      &frontendConfig{},
	}

	// a first pass only looks for the config file and help
	preCfg := cfg
	preCfg.Frontend = &frontendConfig{}
	preParser := flags.NewParser(&preCfg, flags.Default)
	if _, err := preParser.Parse(); err != nil {
		return nil, err
	}

	configFile := preCfg.ConfigFile
	if configFile == "" {
		configFile = filepath.Join(preCfg.DataDir, defaultConfigFilename)
	}

	parser := flags.NewParser(&cfg, flags.Default)

	err := flags.NewIniParser(parser).ParseFile(configFile)
	if err != nil && !(preCfg.ConfigFile == "" && os.IsNotExist(err)) {
		return nil, err
	}

	if _, err := parser.Parse(); err != nil {
		return nil, err
	}

	if cfg.Frontend.Daemon == "" {
		cfg.Frontend.Daemon = "http://" + cfg.Listen
	}

	return &cfg, nil
}
