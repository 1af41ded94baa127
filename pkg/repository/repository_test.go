package repository

import (
	"testing"

	"github.com/matzehuels/mvnpack/pkg/artifact"
	"github.com/matzehuels/mvnpack/pkg/errors"
)

func TestArtifactPath(t *testing.T) {
	tests := []struct {
		name   string
		layout Layout
		root   string
		coord  artifact.Coordinate
		want   string
		wantOK bool
	}{
		{"jpp versionless", LayoutJPP, "usr/share/java", artifact.New("JPP/foo", "bar", "", "", ""), "usr/share/java/foo/bar.jar", true},
		{"jpp versioned", LayoutJPP, "usr/share/java", artifact.New("JPP/foo", "bar", "", "", "1.2"), "usr/share/java/foo/bar-1.2.jar", true},
		{"jpp no dir", LayoutJPP, "", artifact.New("JPP", "bar", "pom", "", ""), "bar.pom", true},
		{"jpp classifier", LayoutJPP, "", artifact.New("JPP/x", "bar", "", "tests", "3"), "x/bar-3-tests.jar", true},
		{"maven", LayoutMaven, "usr/share/maven", artifact.New("org.apache", "core", "", "", "1.0"), "usr/share/maven/org/apache/core/1.0/core-1.0.jar", true},
		{"maven classifier", LayoutMaven, "", artifact.New("g", "a", "pom", "x", "2"), "g/a/2/a-2-x.pom", true},
		{"maven versionless", LayoutMaven, "", artifact.New("g", "a", "", "", ""), "", false},
		{"flat", LayoutFlat, "lib", artifact.New("org.apache", "core", "", "", ""), "lib/org.apache-core.jar", true},
		{"flat versioned", LayoutFlat, "", artifact.New("g", "a", "", "", "1"), "g-a-1.jar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := New("test", tt.layout, tt.root, "")
			if err != nil {
				t.Fatal(err)
			}
			got, ok := r.ArtifactPath(tt.coord)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ArtifactPath() = %q, %v; want %q, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := New("x", "weird", "", ""); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("New(weird layout) error = %v, want %v", err, errors.ErrCodeInvalidConfig)
	}
	if _, err := New("x", LayoutJPP, "/abs", ""); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("New(absolute root) error = %v, want %v", err, errors.ErrCodeInvalidConfig)
	}
	r, err := New("x", "", "", "ns")
	if err != nil {
		t.Fatal(err)
	}
	if r.Layout != LayoutJPP {
		t.Errorf("default layout = %q, want %q", r.Layout, LayoutJPP)
	}
}

func TestStereotypes(t *testing.T) {
	r := &Repository{ID: "poms", Layout: LayoutJPP, Stereotypes: []Stereotype{{Extension: "pom"}}}

	if _, ok := r.ArtifactPath(artifact.New("JPP", "a", "jar", "", "")); ok {
		t.Error("jar accepted by pom-only repository")
	}
	if _, ok := r.ArtifactPath(artifact.New("JPP", "a", "pom", "", "")); !ok {
		t.Error("pom rejected by pom-only repository")
	}
}

func TestSet(t *testing.T) {
	s := NewSet(Default(), &Repository{ID: "extra", Layout: LayoutFlat})

	if r, ok := s.Get(""); !ok || r.ID != DefaultID {
		t.Errorf("Get(\"\") = %v, %v; want default repository", r, ok)
	}
	if _, ok := s.Get("missing"); ok {
		t.Error("Get(missing) ok = true")
	}
	if ids := s.IDs(); len(ids) != 2 || ids[0] != DefaultID || ids[1] != "extra" {
		t.Errorf("IDs() = %v", ids)
	}
}
