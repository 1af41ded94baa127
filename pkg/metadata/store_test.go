package metadata

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/matzehuels/mvnpack/pkg/artifact"
	"github.com/matzehuels/mvnpack/pkg/errors"
)

func writeFragment(t *testing.T, dir, name string, artifacts ...*Artifact) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := WriteFile(path, &PackageMetadata{Artifacts: artifacts}); err != nil {
		t.Fatal(err)
	}
	return path
}

func record(g, a, v, ns, path string) *Artifact {
	return &Artifact{GroupID: g, ArtifactID: a, Version: v, Namespace: ns, Path: path}
}

func TestLoadDirectoryAndResolve(t *testing.T) {
	dir := t.TempDir()
	writeFragment(t, dir, "b.xml", record("g", "b", "2", "", "/b.jar"))
	writeFragment(t, dir, "a.xml", record("g", "a", "1", "", "/a.jar"))

	s, err := Load(context.Background(), []string{dir}, Options{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	frags := s.Fragments()
	if len(frags) != 2 || filepath.Base(frags[0]) != "a.xml" || filepath.Base(frags[1]) != "b.xml" {
		t.Errorf("Fragments() = %v, want lexicographic order", frags)
	}

	tests := []struct {
		coord string
		path  string
	}{
		{"g:a:1", "/a.jar"},
		{"g:a", "/a.jar"},
		{"g:b:2", "/b.jar"},
		{"g:b:3", ""},
		{"g:c", ""},
	}
	for _, tt := range tests {
		t.Run(tt.coord, func(t *testing.T) {
			got := s.Resolve(artifact.MustParse(tt.coord))
			switch {
			case tt.path == "" && got != nil:
				t.Errorf("Resolve(%s) = %v, want nil", tt.coord, got)
			case tt.path != "" && (got == nil || got.Path != tt.path):
				t.Errorf("Resolve(%s) = %v, want path %s", tt.coord, got, tt.path)
			}
		})
	}
}

func TestLoadSkipsCorruptFragment(t *testing.T) {
	dir := t.TempDir()
	writeFragment(t, dir, "good.xml", record("g", "a", "1", "", "/a.jar"))
	if err := os.WriteFile(filepath.Join(dir, "bad.xml"), []byte("<<<"), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(context.Background(), []string{dir, filepath.Join(dir, "missing.xml")}, Options{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.Resolve(artifact.MustParse("g:a:1")) == nil {
		t.Error("good fragment not loaded")
	}
	if n := len(s.Fragments()); n != 1 {
		t.Errorf("len(Fragments()) = %d, want 1", n)
	}
}

func TestLoadInterrupted(t *testing.T) {
	dir := t.TempDir()
	writeFragment(t, dir, "a.xml", record("g", "a", "1", "", "/a.jar"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Load(ctx, []string{dir}, Options{})
	if !errors.Is(err, errors.ErrCodeInterrupted) {
		t.Errorf("Load() error = %v, want %v", err, errors.ErrCodeInterrupted)
	}
}

func TestDuplicatePolicy(t *testing.T) {
	c := artifact.MustParse("g:a:1")

	tests := []struct {
		name     string
		ignore   bool
		first    *Artifact
		second   *Artifact
		wantPath string
	}{
		{"later wins without namespaces", false, record("g", "a", "1", "", "/first"), record("g", "a", "1", "", "/second"), "/second"},
		{"namespaced kept over plain", false, record("g", "a", "1", "ns", "/first"), record("g", "a", "1", "", "/second"), "/first"},
		{"namespaced replaces plain", false, record("g", "a", "1", "", "/first"), record("g", "a", "1", "ns", "/second"), "/second"},
		{"later wins with both namespaced", false, record("g", "a", "1", "x", "/first"), record("g", "a", "1", "y", "/second"), "/second"},
		{"ignore duplicates removes mapping", true, record("g", "a", "1", "", "/first"), record("g", "a", "1", "", "/second"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFragment(t, dir, "1.xml", tt.first)
			writeFragment(t, dir, "2.xml", tt.second)
			writeFragment(t, dir, "3.xml", record("g", "a", "1", "z", "/third"))

			s, err := Load(context.Background(), []string{dir}, Options{IgnoreDuplicates: tt.ignore})
			if err != nil {
				t.Fatal(err)
			}

			if !s.Excluded(c) {
				t.Error("Excluded() = false after duplicate")
			}
			got := s.Resolve(c)
			if tt.wantPath == "" {
				if got != nil {
					t.Errorf("Resolve() = %v, want nil", got.Path)
				}
				return
			}
			if got == nil || got.Path != tt.wantPath {
				t.Errorf("Resolve() = %v, want %s", got, tt.wantPath)
			}
		})
	}
}

func TestIdentitiesWithAliasesAndCompatVersions(t *testing.T) {
	a := &Artifact{
		GroupID: "g", ArtifactID: "a", Version: "2.0",
		CompatVersions: []string{"2", "2.0"},
		Aliases:        []Alias{{GroupID: "alias", ArtifactID: "a"}},
	}
	s := NewStore([]*PackageMetadata{{Artifacts: []*Artifact{a}}}, Options{})

	for _, coord := range []string{"g:a:2.0", "g:a:2", "alias:a:2.0", "alias:a:2"} {
		if s.Resolve(artifact.MustParse(coord)) != a {
			t.Errorf("Resolve(%s) did not return the record", coord)
		}
	}
	if s.Resolve(artifact.MustParse("g:a")) != nil {
		t.Error("compat record must not answer version-less lookups")
	}
	if got := len(identities(a)); got != 4 {
		t.Errorf("len(identities) = %d, want 4 (duplicates removed)", got)
	}
}

func TestIdentities(t *testing.T) {
	tests := []struct {
		name   string
		record *Artifact
		want   []string
	}{
		{
			name:   "no compat versions",
			record: &Artifact{GroupID: "g", ArtifactID: "a", Version: "1.2"},
			want:   []string{"g:a:jar::1.2", "g:a:jar::SYSTEM"},
		},
		{
			name:   "compat versions replace SYSTEM",
			record: &Artifact{GroupID: "g", ArtifactID: "a", Version: "1.2", CompatVersions: []string{"1"}},
			want:   []string{"g:a:jar::1.2", "g:a:jar::1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, c := range identities(tt.record) {
				got = append(got, c.String())
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("identities() = %v, want %v", got, tt.want)
			}

			s := NewStore([]*PackageMetadata{{Artifacts: []*Artifact{tt.record}}}, Options{})
			system := s.Resolve(artifact.MustParse("g:a"))
			if wantSystem := len(tt.record.CompatVersions) == 0; (system != nil) != wantSystem {
				t.Errorf("Resolve(g:a) = %v, want found=%v", system, wantSystem)
			}
		})
	}
}

func TestReloadPicksUpNewFragments(t *testing.T) {
	dir := t.TempDir()
	s, err := Load(context.Background(), []string{dir}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	c := artifact.MustParse("g:new")
	if s.Resolve(c) != nil {
		t.Fatal("unexpected record before reload")
	}

	writeFragment(t, dir, "new.xml", record("g", "new", "1", "", "/new.jar"))
	if err := s.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}
	if s.Resolve(c) == nil {
		t.Error("Resolve() after Reload() = nil")
	}
}
