// ABOUTME: Build version information
// ABOUTME: Version is overridden at link time with -ldflags "-X"
package version

// Version is the release version, "dev" for local builds
var Version = "dev"

const (
	Product      = "audioenv"
	Manufacturer = "Resonate Protocol"
)
