// Package config loads and merges neura configuration from multiple
// sources using viper.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables (NEURA_AI_PROVIDER, NEURA_REVIEW_CONCURRENCY, ...)
//  3. A .env file in the working directory (never overrides the environment)
//  4. Config file ($XDG_CONFIG_HOME/neura/config.yaml)
//  5. Built-in defaults
//
// Use [Load] to obtain a merged [Config], [Save] to write the config file,
// and [SetField] to update a single dotted key.
package config
