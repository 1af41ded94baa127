// Package artifact defines the coordinate that identifies a Maven artifact.
//
// A [Coordinate] has five fields: group ID, artifact ID, extension,
// classifier and version. Absent fields take their defaults:
//
//   - Extension: [DefaultExtension] ("jar")
//   - Classifier: "" (none)
//   - Version: [DefaultVersion] ("SYSTEM"), the version-less marker used for
//     lookups that should match any installed version
//
// Coordinates are comparable values and can be used directly as map keys.
// Methods such as [Coordinate.WithVersion] return modified copies.
//
// # Text forms
//
// [Coordinate.String] always prints all five fields:
//
//	org.apache:commons-io:jar::2.11.0
//
// [Parse] accepts the short Maven forms g:a, g:a:v, g:a:ext:v and
// g:a:ext:classifier:v. [Coordinate.Descriptor] renders the mvn(...) string
// used in package requirement lists.
package artifact

import (
	"strings"

	"github.com/matzehuels/mvnpack/pkg/errors"
)

const (
	// DefaultExtension is the packaging extension assumed when none is given.
	DefaultExtension = "jar"

	// DefaultVersion is the version-less marker. Lookups first try an explicit
	// version and fall back to this value, never the other way round.
	DefaultVersion = "SYSTEM"

	// UnknownVersion marks a dependency that could not be resolved.
	UnknownVersion = "UNKNOWN"

	// UnknownNamespace marks the namespace of an unresolved dependency.
	UnknownNamespace = "UNKNOWN"
)

// Coordinate identifies an artifact. The zero value is not a valid coordinate;
// use [New] or [Parse] so that defaults are applied.
type Coordinate struct {
	GroupID    string
	ArtifactID string
	Extension  string
	Classifier string
	Version    string
}

// New returns a coordinate with defaults applied to empty extension and
// version fields.
func New(groupID, artifactID, extension, classifier, version string) Coordinate {
	return Coordinate{
		GroupID:    groupID,
		ArtifactID: artifactID,
		Extension:  extension,
		Classifier: classifier,
		Version:    version,
	}.Normalize()
}

// Normalize fills empty extension and version fields with their defaults.
func (c Coordinate) Normalize() Coordinate {
	if c.Extension == "" {
		c.Extension = DefaultExtension
	}
	if c.Version == "" {
		c.Version = DefaultVersion
	}
	return c
}

// WithVersion returns a copy of c with the given version. An empty version
// selects [DefaultVersion].
func (c Coordinate) WithVersion(version string) Coordinate {
	if version == "" {
		version = DefaultVersion
	}
	c.Version = version
	return c
}

// WithoutVersion returns a copy of c with the version-less marker.
func (c Coordinate) WithoutVersion() Coordinate {
	c.Version = DefaultVersion
	return c
}

// IsVersionless reports whether c carries the version-less marker.
func (c Coordinate) IsVersionless() bool {
	return c.Version == DefaultVersion
}

// Compare orders coordinates by group, artifact, extension, classifier and
// version. It returns -1, 0 or +1.
func (c Coordinate) Compare(o Coordinate) int {
	for _, p := range [][2]string{
		{c.GroupID, o.GroupID},
		{c.ArtifactID, o.ArtifactID},
		{c.Extension, o.Extension},
		{c.Classifier, o.Classifier},
		{c.Version, o.Version},
	} {
		if n := strings.Compare(p[0], p[1]); n != 0 {
			return n
		}
	}
	return 0
}

// String returns g:a:ext:classifier:version.
func (c Coordinate) String() string {
	return c.GroupID + ":" + c.ArtifactID + ":" + c.Extension + ":" + c.Classifier + ":" + c.Version
}

// Descriptor returns the mvn(...) requirement string, e.g. mvn(g:a),
// mvn(g:a:1.2) or mvn(g:a:pom:). Extension and classifier are only printed
// when they differ from the defaults, in which case the version slot is
// always present (empty for the version-less marker).
func (c Coordinate) Descriptor() string {
	var sb strings.Builder
	sb.WriteString("mvn(")
	sb.WriteString(c.GroupID)
	sb.WriteByte(':')
	sb.WriteString(c.ArtifactID)

	version := c.Version
	if version == DefaultVersion {
		version = ""
	}

	if (c.Extension != "" && c.Extension != DefaultExtension) || c.Classifier != "" {
		sb.WriteByte(':')
		if c.Extension != DefaultExtension {
			sb.WriteString(c.Extension)
		}
		if c.Classifier != "" {
			sb.WriteByte(':')
			sb.WriteString(c.Classifier)
		}
		sb.WriteByte(':')
		sb.WriteString(version)
	} else if version != "" {
		sb.WriteByte(':')
		sb.WriteString(version)
	}

	sb.WriteByte(')')
	return sb.String()
}

// Parse parses a coordinate in one of the forms g:a, g:a:v, g:a:ext:v or
// g:a:ext:classifier:v. Defaults are applied to omitted or empty fields.
func Parse(s string) (Coordinate, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")

	var c Coordinate
	switch len(parts) {
	case 2:
		c = Coordinate{GroupID: parts[0], ArtifactID: parts[1]}
	case 3:
		c = Coordinate{GroupID: parts[0], ArtifactID: parts[1], Version: parts[2]}
	case 4:
		c = Coordinate{GroupID: parts[0], ArtifactID: parts[1], Extension: parts[2], Version: parts[3]}
	case 5:
		c = Coordinate{GroupID: parts[0], ArtifactID: parts[1], Extension: parts[2], Classifier: parts[3], Version: parts[4]}
	default:
		return Coordinate{}, errors.New(errors.ErrCodeInvalidInput,
			"invalid artifact coordinate %q: expected g:a[:ext[:classifier]]:version", s)
	}

	if c.GroupID == "" || c.ArtifactID == "" {
		return Coordinate{}, errors.New(errors.ErrCodeInvalidInput,
			"invalid artifact coordinate %q: group and artifact ID are required", s)
	}
	for _, f := range []struct{ name, value string }{
		{"groupId", c.GroupID},
		{"artifactId", c.ArtifactID},
		{"extension", c.Extension},
		{"classifier", c.Classifier},
		{"version", c.Version},
	} {
		if err := errors.ValidateCoordinatePart(f.name, f.value); err != nil {
			return Coordinate{}, err
		}
	}

	return c.Normalize(), nil
}

// MustParse is like [Parse] but panics on error. Intended for tests and
// package-level tables.
func MustParse(s string) Coordinate {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}
