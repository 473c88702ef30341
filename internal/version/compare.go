package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/rxtech-lab/argo-pilot/pkg/errors"
)

// CheckConfigCompatibility checks whether a config file written for
// declaredVersion can be loaded by a binary supporting supportedVersion.
//
// Compatibility rules:
//   - An empty declared version is accepted (pre-versioned config files).
//   - "main" on either side skips the check (development builds).
//   - Major versions must match exactly.
//   - The declared minor version must not exceed the supported minor, so
//     older config files keep loading after an upgrade.
//   - Patch versions never matter.
func CheckConfigCompatibility(declaredVersion, supportedVersion string) error {
	if declaredVersion == "" {
		return nil
	}

	declaredVersion = strings.TrimPrefix(declaredVersion, "v")
	supportedVersion = strings.TrimPrefix(supportedVersion, "v")

	if declaredVersion == "main" || supportedVersion == "main" {
		return nil
	}

	declared, err := semver.NewVersion(declaredVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeConfigVersion, err, "invalid config version %q", declaredVersion)
	}

	supported, err := semver.NewVersion(supportedVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeConfigVersion, err, "invalid supported version %q", supportedVersion)
	}

	if declared.Major() != supported.Major() {
		return errors.Newf(errors.ErrCodeConfigVersion,
			"config schema %d.x is not compatible with supported schema %d.x",
			declared.Major(), supported.Major())
	}

	if declared.Minor() > supported.Minor() {
		return errors.Newf(errors.ErrCodeConfigVersion,
			"config schema %d.%d.x is newer than supported schema %d.%d.x",
			declared.Major(), declared.Minor(), supported.Major(), supported.Minor())
	}

	return nil
}
