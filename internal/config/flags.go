package config

import (
	"github.com/spf13/cobra"
)

const (
	FlagConfig      = "config"
	FlagBaseURL     = "base-url"
	FlagShareBase   = "share-base"
	FlagTimeout     = "timeout"
	FlagFingerprint = "fingerprint"
	FlagHistory     = "history"
	FlagLogLevel    = "log-level"
)

// BindFlags registers the global flags on the root command.
func BindFlags(cmd *cobra.Command) {
	var defaults Config
	defaults.LoadDefaults()

	flags := cmd.PersistentFlags()
	flags.StringP(FlagConfig, "c", "", "Path to YAML config file")
	flags.StringP(FlagBaseURL, "b", defaults.BaseURL, "Gateway base URL (env "+EnvBaseURL+")")
	flags.String(FlagShareBase, "", "Prefix for share links (default <base-url>/files/s/)")
	flags.Duration(FlagTimeout, defaults.Timeout, "Request timeout")
	flags.String(FlagFingerprint, "", "Pin the gateway TLS certificate SHA-256 fingerprint")
	flags.String(FlagHistory, defaults.HistoryFile, "Upload history file (empty disables persistence)")
	flags.String(FlagLogLevel, defaults.LogLevel, "Log level: debug, info, warn, error")
}

// FromCommand loads the config file named by --config and applies every
// global flag the user set explicitly.
func FromCommand(cmd *cobra.Command) (*Config, error) {
	flags := cmd.Flags()

	path, _ := flags.GetString(FlagConfig)
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if flags.Changed(FlagBaseURL) {
		cfg.BaseURL, _ = flags.GetString(FlagBaseURL)
	}
	if flags.Changed(FlagShareBase) {
		cfg.ShareBase, _ = flags.GetString(FlagShareBase)
	}
	if flags.Changed(FlagTimeout) {
		cfg.Timeout, _ = flags.GetDuration(FlagTimeout)
	}
	if flags.Changed(FlagFingerprint) {
		cfg.Fingerprint, _ = flags.GetString(FlagFingerprint)
	}
	if flags.Changed(FlagHistory) {
		cfg.HistoryFile, _ = flags.GetString(FlagHistory)
	}
	if flags.Changed(FlagLogLevel) {
		cfg.LogLevel, _ = flags.GetString(FlagLogLevel)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
