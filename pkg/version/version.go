// Package version holds the build version, overridden at link time with
// -ldflags "-X github.com/shift/web-spec/pkg/version.Version=...".
package version

var Version = "dev"
