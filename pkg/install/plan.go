package install

import (
	"os"
	"path/filepath"

	"github.com/matzehuels/mvnpack/pkg/artifact"
	"github.com/matzehuels/mvnpack/pkg/errors"
	"github.com/matzehuels/mvnpack/pkg/metadata"
)

// Plan is the list of artifacts a build asks to install.
type Plan struct {
	Artifacts []*metadata.Artifact
}

// LoadPlan reads and validates the plan at path. A missing file is an
// empty plan.
func LoadPlan(path string) (*Plan, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &Plan{}, nil
	}

	md, err := metadata.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPlan, err, "unable to read installation plan")
	}
	return NewPlan(md)
}

// NewPlan validates md as an installation plan.
func NewPlan(md *metadata.PackageMetadata) (*Plan, error) {
	if err := validatePlan(md); err != nil {
		return nil, err
	}
	return &Plan{Artifacts: md.Artifacts}, nil
}

func invalid(format string, args ...any) error {
	return errors.New(errors.ErrCodeInvalidPlan, format, args...)
}

func validatePlan(md *metadata.PackageMetadata) error {
	if md.UUID != "" {
		return invalid("installation plan must not set UUID")
	}

	for _, a := range md.Artifacts {
		switch {
		case a.GroupID == "":
			return invalid("artifact metadata must have group ID set")
		case a.ArtifactID == "":
			return invalid("artifact metadata must have artifact ID set")
		case a.Version == "":
			return invalid("artifact metadata must have version set")
		case a.Path == "":
			return invalid("artifact metadata must have path set")
		}
		if err := validateArtifactPath(a.Path); err != nil {
			return err
		}

		switch {
		case a.UUID != "":
			return invalid("installation plan must not define artifact UUID")
		case a.Namespace != "":
			return invalid("installation plan must not define artifact namespace")
		case len(a.CompatVersions) > 0:
			return invalid("installation plan must not define compat versions")
		case len(a.Aliases) > 0:
			return invalid("installation plan must not define aliases")
		}

		for _, d := range a.Dependencies {
			switch {
			case d.GroupID == "":
				return invalid("artifact dependency must have group ID set")
			case d.ArtifactID == "":
				return invalid("artifact dependency must have artifact ID set")
			case d.RequestedVersion == "":
				return invalid("artifact dependency must have requested version set")
			case d.IsResolved():
				return invalid("installation plan must not define resolved dependency version")
			case d.Namespace != "":
				return invalid("installation plan must not define dependency namespace")
			}
			for _, e := range d.Exclusions {
				if e.GroupID == "" {
					return invalid("dependency exclusion must have group ID set")
				}
				if e.ArtifactID == "" {
					return invalid("dependency exclusion must have artifact ID set")
				}
			}
		}
	}

	if len(md.SkippedArtifacts) > 0 {
		return invalid("installation plan must not include skipped artifacts")
	}
	return nil
}

func validateArtifactPath(p string) error {
	if !filepath.IsAbs(p) {
		return invalid("artifact path is not absolute: %s", p)
	}
	info, err := os.Stat(p)
	if err != nil {
		return invalid("artifact path points to a non-existent file: %s", p)
	}
	if !info.Mode().IsRegular() {
		return invalid("artifact path points to a non-regular file: %s", p)
	}
	f, err := os.Open(p)
	if err != nil {
		return invalid("artifact path points to a non-readable file: %s", p)
	}
	return f.Close()
}

// checkDuplicates rejects a plan that lists one coordinate twice.
func checkDuplicates(artifacts []*metadata.Artifact) error {
	seen := make(map[artifact.Coordinate]bool, len(artifacts))
	for _, a := range artifacts {
		c := a.Coordinate()
		if seen[c] {
			return errors.New(errors.ErrCodeDuplicateArtifact, "duplicate artifact in installation plan: %s", c)
		}
		seen[c] = true
	}
	return nil
}
