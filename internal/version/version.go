// Package version holds build information set via -ldflags.
package version

// Version is overridden at build time: -ldflags "-X .../internal/version.Version=v1.2.3"
var Version = "dev"
