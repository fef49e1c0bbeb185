package version

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// CheckFormatCompatibility checks whether an exported config envelope's format
// version can be imported by this build.
//
// Compatibility rules:
//   - An empty version is accepted (legacy exports predate the stamp)
//   - Major versions must match exactly
//   - Minor versions must match exactly
//   - Patch versions can differ (e.g., 1.0.0 reads 1.0.5 envelopes)
func CheckFormatCompatibility(fileVersion string) error {
	if fileVersion == "" {
		return nil
	}

	fileVersion = strings.TrimPrefix(fileVersion, "v")

	fileSemver, err := semver.NewVersion(fileVersion)
	if err != nil {
		return fmt.Errorf("invalid format version '%s': %w", fileVersion, err)
	}

	currentSemver, err := semver.NewVersion(ExportFormatVersion)
	if err != nil {
		return fmt.Errorf("invalid built-in format version '%s': %w", ExportFormatVersion, err)
	}

	if fileSemver.Major() != currentSemver.Major() {
		return fmt.Errorf("format major version mismatch: this build reads %d.x.x but the envelope is %d.x.x",
			currentSemver.Major(), fileSemver.Major())
	}

	if fileSemver.Minor() != currentSemver.Minor() {
		return fmt.Errorf("format minor version mismatch: this build reads %d.%d.x but the envelope is %d.%d.x",
			currentSemver.Major(), currentSemver.Minor(),
			fileSemver.Major(), fileSemver.Minor())
	}

	return nil
}
