// Package metadata models installed-artifact metadata and the store that
// indexes it.
//
// A metadata document ([PackageMetadata]) describes the artifacts one
// distribution package provides: their coordinates, on-disk paths,
// repository namespace, compat versions, aliases and dependencies. The same
// document shape is used for installation plans and for the per-package
// metadata files written by the installer.
//
// [Store] loads many documents concurrently and merges them into a single
// coordinate index with a deterministic duplicate policy.
package metadata

import (
	"github.com/matzehuels/mvnpack/pkg/artifact"
)

// Property is one key/value pair.
type Property struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Properties is an ordered, immutable key/value list. Build it once with
// [NewProperties] or [Properties.With]; never modify it in place.
type Properties []Property

// NewProperties builds a property list from alternating keys and values.
func NewProperties(kv ...string) Properties {
	var p Properties
	for i := 0; i+1 < len(kv); i += 2 {
		p = p.With(kv[i], kv[i+1])
	}
	return p
}

// Get returns the value for key.
func (p Properties) Get(key string) (string, bool) {
	for _, prop := range p {
		if prop.Key == key {
			return prop.Value, true
		}
	}
	return "", false
}

// With returns a copy of p with key set to value. An existing key keeps its
// position.
func (p Properties) With(key, value string) Properties {
	out := make(Properties, 0, len(p)+1)
	replaced := false
	for _, prop := range p {
		if prop.Key == key {
			out = append(out, Property{Key: key, Value: value})
			replaced = true
			continue
		}
		out = append(out, prop)
	}
	if !replaced {
		out = append(out, Property{Key: key, Value: value})
	}
	return out
}

// Exclusion is a dependency exclusion by group and artifact ID.
type Exclusion struct {
	GroupID    string `xml:"groupId" json:"groupId"`
	ArtifactID string `xml:"artifactId" json:"artifactId"`
}

// Dependency is a dependency declared by an artifact. ResolvedVersion and
// Namespace are filled in by the installer.
type Dependency struct {
	GroupID          string      `xml:"groupId" json:"groupId"`
	ArtifactID       string      `xml:"artifactId" json:"artifactId"`
	Extension        string      `xml:"extension,omitempty" json:"extension,omitempty"`
	Classifier       string      `xml:"classifier,omitempty" json:"classifier,omitempty"`
	RequestedVersion string      `xml:"requestedVersion,omitempty" json:"requestedVersion,omitempty"`
	ResolvedVersion  string      `xml:"resolvedVersion,omitempty" json:"resolvedVersion,omitempty"`
	Namespace        string      `xml:"namespace,omitempty" json:"namespace,omitempty"`
	Optional         bool        `xml:"optional,omitempty" json:"optional,omitempty"`
	Exclusions       []Exclusion `xml:"exclusions>exclusion,omitempty" json:"exclusions,omitempty"`
}

// Coordinate returns the dependency coordinate at the requested version.
func (d *Dependency) Coordinate() artifact.Coordinate {
	return artifact.New(d.GroupID, d.ArtifactID, d.Extension, d.Classifier, d.RequestedVersion)
}

// IsResolved reports whether a resolved version other than the default has
// been recorded.
func (d *Dependency) IsResolved() bool {
	return d.ResolvedVersion != "" && d.ResolvedVersion != artifact.DefaultVersion
}

// Alias is an alternate coordinate an artifact also answers to. Aliases carry
// no version; they share the versions of their artifact.
type Alias struct {
	GroupID    string `xml:"groupId" json:"groupId"`
	ArtifactID string `xml:"artifactId" json:"artifactId"`
	Extension  string `xml:"extension,omitempty" json:"extension,omitempty"`
	Classifier string `xml:"classifier,omitempty" json:"classifier,omitempty"`
}

// Artifact is the metadata record of one installed (or planned) artifact.
type Artifact struct {
	GroupID        string        `xml:"groupId" json:"groupId"`
	ArtifactID     string        `xml:"artifactId" json:"artifactId"`
	Extension      string        `xml:"extension,omitempty" json:"extension,omitempty"`
	Classifier     string        `xml:"classifier,omitempty" json:"classifier,omitempty"`
	Version        string        `xml:"version,omitempty" json:"version,omitempty"`
	UUID           string        `xml:"uuid,omitempty" json:"uuid,omitempty"`
	Namespace      string        `xml:"namespace,omitempty" json:"namespace,omitempty"`
	Path           string        `xml:"path,omitempty" json:"path,omitempty"`
	Properties     Properties    `xml:"properties,omitempty" json:"properties,omitempty"`
	CompatVersions []string      `xml:"compatVersions>version,omitempty" json:"compatVersions,omitempty"`
	Aliases        []Alias       `xml:"aliases>alias,omitempty" json:"aliases,omitempty"`
	Dependencies   []*Dependency `xml:"dependencies>dependency,omitempty" json:"dependencies,omitempty"`
}

// Coordinate returns the artifact coordinate with defaults applied.
func (a *Artifact) Coordinate() artifact.Coordinate {
	return artifact.New(a.GroupID, a.ArtifactID, a.Extension, a.Classifier, a.Version)
}

func (a *Artifact) String() string {
	return a.Coordinate().String()
}

// Property returns the value of a property, or "" if unset.
func (a *Artifact) Property(key string) string {
	v, _ := a.Properties.Get(key)
	return v
}

// AliasCoordinate returns the coordinate of alias at the given version.
func (a Alias) Coordinate(version string) artifact.Coordinate {
	return artifact.New(a.GroupID, a.ArtifactID, a.Extension, a.Classifier, version)
}

// SkippedArtifact records an artifact that was deliberately not installed.
type SkippedArtifact struct {
	GroupID    string `xml:"groupId" json:"groupId"`
	ArtifactID string `xml:"artifactId" json:"artifactId"`
	Extension  string `xml:"extension,omitempty" json:"extension,omitempty"`
	Classifier string `xml:"classifier,omitempty" json:"classifier,omitempty"`
}

// Skipped builds the skipped-artifact entry for c.
func Skipped(c artifact.Coordinate) SkippedArtifact {
	s := SkippedArtifact{GroupID: c.GroupID, ArtifactID: c.ArtifactID, Classifier: c.Classifier}
	if c.Extension != artifact.DefaultExtension {
		s.Extension = c.Extension
	}
	return s
}

// PackageMetadata is one metadata document.
type PackageMetadata struct {
	UUID             string            `xml:"uuid,omitempty" json:"uuid,omitempty"`
	Properties       Properties        `xml:"properties,omitempty" json:"properties,omitempty"`
	Artifacts        []*Artifact       `xml:"artifacts>artifact,omitempty" json:"artifacts,omitempty"`
	SkippedArtifacts []SkippedArtifact `xml:"skippedArtifacts>skippedArtifact,omitempty" json:"skippedArtifacts,omitempty"`
}
