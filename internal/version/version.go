// Package version exposes the build version stamped at link time.
package version

// Version is replaced at build time via
// -ldflags "-X secsum/internal/version.Version=v1.2.3".
var Version = "dev"

// Commit is the short git revision, also stamped via ldflags.
var Commit = "unknown"
