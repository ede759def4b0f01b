package scan

import "strings"

const (
	defaultRemoteNameConstant             = "origin"
	defaultRemoteTimeoutSecondsConstant   = 60
	configurationRemoteKeyConstant        = "remote"
	configurationRemoteTimeoutKeyConstant = "remote_timeout_seconds"
)

// CommandConfiguration captures persistent settings for the scan command.
type CommandConfiguration struct {
	Remote               string   `mapstructure:"remote"`
	RemoteTimeoutSeconds int      `mapstructure:"remote_timeout_seconds"`
	IncludeClean         bool     `mapstructure:"include_clean"`
	DeepCheck            bool     `mapstructure:"deep_check"`
	Fetch                bool     `mapstructure:"fetch"`
	Pull                 bool     `mapstructure:"pull"`
	Excludes             []string `mapstructure:"excludes"`
}

// DefaultCommandConfiguration returns baseline configuration values for the scan command.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		Remote:               defaultRemoteNameConstant,
		RemoteTimeoutSeconds: defaultRemoteTimeoutSecondsConstant,
	}
}

// DefaultConfigurationValues produces Viper defaults for the scan command.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		rootKey + "." + configurationRemoteKeyConstant:        defaults.Remote,
		rootKey + "." + configurationRemoteTimeoutKeyConstant: defaults.RemoteTimeoutSeconds,
	}
}

// sanitize trims whitespace and applies defaults to unset configuration
// values. A zero timeout is preserved; it disables the remote bound.
func (configuration CommandConfiguration) sanitize() CommandConfiguration {
	sanitized := configuration

	sanitized.Remote = strings.TrimSpace(configuration.Remote)
	if len(sanitized.Remote) == 0 {
		sanitized.Remote = defaultRemoteNameConstant
	}
	if sanitized.RemoteTimeoutSeconds < 0 {
		sanitized.RemoteTimeoutSeconds = defaultRemoteTimeoutSecondsConstant
	}
	sanitized.Excludes = sanitizeExcludes(configuration.Excludes)

	return sanitized
}

func sanitizeExcludes(raw []string) []string {
	var sanitized []string
	for index := range raw {
		trimmed := strings.TrimSpace(raw[index])
		if len(trimmed) == 0 {
			continue
		}
		sanitized = append(sanitized, trimmed)
	}
	return sanitized
}
