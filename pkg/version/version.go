// Package version holds build version information.
package version

// BuildVersion is the library version, overridable at build time with
// -ldflags "-X github.com/NERVsystems/overpass/pkg/version.BuildVersion=...".
var BuildVersion = "0.1.0"
