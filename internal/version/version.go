package version

// Version is the current version of the tradeview toolkit.
// This value is set at build time using ldflags:
// -ldflags "-X github.com/tradeview-lab/tradeview/internal/version.Version=1.2.3"
// The default value "main" indicates a development build.
var Version = "main"

// ExportFormatVersion is the version stamped into exported config envelopes.
var ExportFormatVersion = "1.0.0"

// GetVersion returns the current version of the toolkit.
func GetVersion() string {
	return Version
}
