package config

import (
	"fmt"
	"time"

	"github.com/chanscout/chanscout/internal/topic"
)

// GatewaySettings holds the session gateway connection settings from the
// configuration file.
type GatewaySettings struct {
	// URL is the base URL of the session gateway.
	URL string `yaml:"url,omitempty"`

	// Token is the bearer token for the session gateway.
	Token string `yaml:"token,omitempty"`
}

// File represents the structure of the .chanscout configuration file.
// Every field is optional; absent fields keep their defaults or whatever
// CLI flags set.
type File struct {
	// Gateway configures the session gateway connection.
	Gateway GatewaySettings `yaml:"gateway,omitempty"`

	// Proxy is a SOCKS5 proxy URL for gateway connections.
	Proxy string `yaml:"proxy,omitempty"`

	// LineFormat overrides the level-1 output line template.
	LineFormat string `yaml:"lineFormat,omitempty"`

	// Delay is the inter-request pause as a Go duration string, e.g. "1.5s".
	Delay string `yaml:"delay,omitempty"`

	// SavingDirectory is where output files are written.
	SavingDirectory string `yaml:"savingDirectory,omitempty"`

	// FilterThreshold overrides the minimum subscriber count.
	FilterThreshold int `yaml:"filterThreshold,omitempty"`

	// NotableThreshold overrides the notable subscriber count.
	NotableThreshold int `yaml:"notableThreshold,omitempty"`

	// RequestsPerSecond overrides the gateway request rate cap.
	RequestsPerSecond float64 `yaml:"requestsPerSecond,omitempty"`

	// Topics replaces the built-in topic classification rules entirely.
	// Rule order matters: the first matching rule wins.
	Topics []topic.Rule `yaml:"topics,omitempty"`
}

// Apply copies the file's settings onto cfg. Only fields actually present
// in the file override; zero values leave cfg untouched, so the merge
// order is defaults, then file, then CLI flags.
func (cf *File) Apply(cfg *Config) error {
	if cf.Gateway.URL != "" {
		cfg.GatewayURL = cf.Gateway.URL
	}
	if cf.Gateway.Token != "" {
		cfg.GatewayToken = cf.Gateway.Token
	}
	if cf.Proxy != "" {
		cfg.ProxyURL = cf.Proxy
	}
	if cf.LineFormat != "" {
		cfg.LineFormat = cf.LineFormat
	}
	if cf.Delay != "" {
		d, err := time.ParseDuration(cf.Delay)
		if err != nil {
			return fmt.Errorf("invalid delay %q in config file: %w", cf.Delay, err)
		}
		cfg.Delay = d
	}
	if cf.SavingDirectory != "" {
		cfg.SavingDirectory = cf.SavingDirectory
	}
	if cf.FilterThreshold != 0 {
		cfg.FilterThreshold = cf.FilterThreshold
	}
	if cf.NotableThreshold != 0 {
		cfg.NotableThreshold = cf.NotableThreshold
	}
	if cf.RequestsPerSecond != 0 {
		cfg.RequestsPerSecond = cf.RequestsPerSecond
	}
	return nil
}

// TopicRules returns the topic rules to classify with: the file's override
// when present, the built-in rules otherwise.
func (cf *File) TopicRules() []topic.Rule {
	if len(cf.Topics) > 0 {
		return cf.Topics
	}
	return topic.DefaultRules()
}
