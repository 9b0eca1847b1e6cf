// Package version holds the promptkit release version.
package version

// Version is stamped into run packets and printed by "pk --version".
// Overridable at build time with -ldflags "-X .../internal/version.Version=...".
var Version = "0.1.0"
