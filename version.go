package audiotag

import "runtime/debug"

// Version is the semantic version of the audiotag library.
const Version = "0.1.0"

// VersionInfo describes the running build.
type VersionInfo struct {
	Version   string
	GoVersion string
	Revision  string // VCS revision, "unknown" outside a VCS build
	Modified  bool   // uncommitted changes at build time
}

// GetVersionInfo returns the library version and the build settings that
// the Go toolchain stamped into the binary.
func GetVersionInfo() VersionInfo {
	info := VersionInfo{Version: Version, GoVersion: "unknown", Revision: "unknown"}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	info.GoVersion = bi.GoVersion
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.Revision = s.Value
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	return info
}
