package resolver

import (
	"bytes"
	"encoding/xml"
	"strconv"

	"github.com/matzehuels/mvnpack/pkg/artifact"
	"github.com/matzehuels/mvnpack/pkg/metadata"
)

type pomProject struct {
	XMLName      xml.Name        `xml:"project"`
	ModelVersion string          `xml:"modelVersion"`
	GroupID      string          `xml:"groupId"`
	ArtifactID   string          `xml:"artifactId"`
	Version      string          `xml:"version"`
	Dependencies []pomDependency `xml:"dependencies>dependency,omitempty"`
}

type pomDependency struct {
	GroupID    string         `xml:"groupId"`
	ArtifactID string         `xml:"artifactId"`
	Type       string         `xml:"type,omitempty"`
	Classifier string         `xml:"classifier,omitempty"`
	Version    string         `xml:"version"`
	Optional   string         `xml:"optional,omitempty"`
	Exclusions []pomExclusion `xml:"exclusions>exclusion,omitempty"`
}

type pomExclusion struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
}

// effectivePOM renders a minimal POM declaring the dependencies of rec.
// Fields equal to their defaults are omitted.
func effectivePOM(rec *metadata.Artifact, c artifact.Coordinate) ([]byte, error) {
	pom := pomProject{
		ModelVersion: "4.0.0",
		GroupID:      c.GroupID,
		ArtifactID:   c.ArtifactID,
		Version:      c.Version,
	}

	for _, d := range rec.Dependencies {
		dep := pomDependency{
			GroupID:    d.GroupID,
			ArtifactID: d.ArtifactID,
			Classifier: d.Classifier,
			Version:    d.RequestedVersion,
		}
		if d.Extension != "" && d.Extension != artifact.DefaultExtension {
			dep.Type = d.Extension
		}
		if dep.Version == "" {
			dep.Version = artifact.DefaultVersion
		}
		if d.Optional {
			dep.Optional = strconv.FormatBool(true)
		}
		for _, e := range d.Exclusions {
			dep.Exclusions = append(dep.Exclusions, pomExclusion{GroupID: e.GroupID, ArtifactID: e.ArtifactID})
		}
		pom.Dependencies = append(pom.Dependencies, dep)
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(pom); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
