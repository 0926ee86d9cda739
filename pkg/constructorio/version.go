package constructorio

// Version is the SDK release, overridable at build time via ldflags.
var Version = "1.0.0"

// versionPrefix identifies this client in the c parameter.
const versionPrefix = "ciogo-"

// VersionString returns the value sent as the c parameter.
func VersionString() string {
	return versionPrefix + Version
}
