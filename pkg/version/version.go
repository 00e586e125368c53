// Package version reports the medcarbon build version.
package version

import "runtime/debug"

// Set at build time with -ldflags "-X github.com/rshade/medcarbon/pkg/version.version=v1.2.3".
//
//nolint:gochecknoglobals // Overridden by the linker.
var version = ""

const devVersion = "dev"

// GetVersion returns the linker-set version, then the module version from
// the build info, then "dev".
func GetVersion() string {
	if version != "" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return devVersion
}
