package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/jeden-/agent-mt5/pkg/errors"
)

// SchemaVersion is the configuration schema version this build understands.
var SchemaVersion = "1.0.0"

// CheckSchemaCompatibility checks whether a configuration file's declared
// schema version is compatible with this build.
//
// Compatibility rules:
//   - If either version is "main" (development build), the check is skipped
//   - Major versions must match exactly
//   - The file's minor version must not exceed the supported minor version
//   - Patch versions can differ
func CheckSchemaCompatibility(fileVersion string) error {
	supported := strings.TrimPrefix(SchemaVersion, "v")
	declared := strings.TrimPrefix(fileVersion, "v")

	if supported == "main" || declared == "main" {
		return nil
	}

	supportedSemver, err := semver.NewVersion(supported)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidVersion, err, "invalid supported schema version %q", supported)
	}

	declaredSemver, err := semver.NewVersion(declared)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidVersion, err, "invalid config schema version %q", declared)
	}

	if declaredSemver.Major() != supportedSemver.Major() {
		return errors.Newf(errors.ErrCodeVersionMismatch,
			"schema major version mismatch: config declares %d.x.x but this build supports %d.x.x",
			declaredSemver.Major(), supportedSemver.Major())
	}

	if declaredSemver.Minor() > supportedSemver.Minor() {
		return errors.Newf(errors.ErrCodeVersionMismatch,
			"schema minor version too new: config declares %d.%d.x but this build supports up to %d.%d.x",
			declaredSemver.Major(), declaredSemver.Minor(),
			supportedSemver.Major(), supportedSemver.Minor())
	}

	return nil
}
