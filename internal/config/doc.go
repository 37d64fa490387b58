// Package config loads, normalizes, and validates the TOML configuration
// shared by every secsum command.
//
// Configuration resolution order: explicit --config flag, then
// ~/.config/secsum/config.toml, then ./secsum.toml, then built-in defaults.
// Secrets (API keys, the EDGAR contact email) may come from environment
// variables instead of the file; normalize() applies those fallbacks before
// validation so a missing key in the file is not an error when the
// environment provides it.
package config
