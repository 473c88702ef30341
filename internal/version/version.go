package version

// Version is the current version of the agent binary.
// This value is set at build time using ldflags:
// -ldflags "-X github.com/rxtech-lab/argo-pilot/internal/version.Version=1.2.3"
// The default value "main" indicates a development build.
var Version = "main"

// ConfigVersion is the newest configuration schema version this binary
// understands. Config files declare the schema they were written for.
var ConfigVersion = "1.0.0"

// GetVersion returns the current version of the agent binary.
func GetVersion() string {
	return Version
}
