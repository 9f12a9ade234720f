package version

// Version is set at build time via ldflags:
//
//	-ldflags "-X reviewgate/internal/version.Version=v0.3.0"
//
// When built without ldflags it defaults to "dev".
var Version = "dev"

// String is the one-line form printed by the version command.
func String() string {
	return "reviewgate " + Version
}
