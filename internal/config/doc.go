// Package config defines the runtime configuration for chanscout: the
// gateway connection, crawl pacing, report thresholds, and the optional
// .chanscout YAML file that overrides them.
package config
