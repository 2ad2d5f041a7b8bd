// Package cli wires together the Cobra command tree for the neura binary.
//
// It defines the root command and all subcommands (review, gitlab, local,
// config, models, hook, version), binds flags, reads configuration, runs
// the orchestrator, and returns deterministic exit codes for CI gating.
package cli
