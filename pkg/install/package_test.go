package install

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/mvnpack/pkg/errors"
	"github.com/matzehuels/mvnpack/pkg/metadata"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry("foo", "usr/share/maven-metadata")

	main, err := r.Get("")
	if err != nil {
		t.Fatal(err)
	}
	if alias, _ := r.Get(DefaultPackageID); alias != main {
		t.Error(`Get("__default") did not return the main package`)
	}
	if p, err := r.Get(NoInstallPackageID); p != nil || err != nil {
		t.Errorf(`Get("__noinstall") = %v, %v; want nil, nil`, p, err)
	}
	sub, err := r.Get("sub")
	if err != nil {
		t.Fatal(err)
	}
	if again, _ := r.Get("sub"); again != sub {
		t.Error("Get() created a second package for the same ID")
	}
	if _, err := r.Get("a/b"); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf(`Get("a/b") error = %v, want INVALID_CONFIG`, err)
	}

	pkgs := r.Packages()
	if len(pkgs) != 2 || pkgs[0] != main || pkgs[1] != sub {
		t.Errorf("Packages() = %v, want [main sub]", pkgs)
	}

	if _, ok := main.File("usr/share/maven-metadata/foo.xml"); !ok {
		t.Error("main package does not own foo.xml")
	}
	if _, ok := sub.File("usr/share/maven-metadata/foo-sub.xml"); !ok {
		t.Error("subpackage does not own foo-sub.xml")
	}
	if main.Metadata.UUID == "" || main.Metadata.UUID == sub.Metadata.UUID {
		t.Errorf("package UUIDs = %q, %q; want distinct non-empty", main.Metadata.UUID, sub.Metadata.UUID)
	}
}

func TestPackageAddFile(t *testing.T) {
	p, err := NewPackage("x", "meta/x.xml")
	if err != nil {
		t.Fatal(err)
	}
	a, _ := NewRegularFile("usr/a", "/a", DefaultMode)
	b, _ := NewSymbolicLink("usr/a", "/b")

	if err := p.AddFile(a); err != nil {
		t.Fatal(err)
	}
	if err := p.AddFile(b); !errors.Is(err, errors.ErrCodeInstallFailed) {
		t.Errorf("AddFile(duplicate) error = %v, want INSTALL_FAILED", err)
	}
	if p.AddFileIfNotExists(b) {
		t.Error("AddFileIfNotExists(duplicate) = true")
	}
	if f, _ := p.File("usr/a"); f != a {
		t.Error("duplicate replaced the original entry")
	}

	var buf bytes.Buffer
	if err := p.WriteDescriptor(&buf); err != nil {
		t.Fatal(err)
	}
	want := "%attr(0644,root,root) /meta/x.xml\n%attr(0644,root,root) /usr/a\n"
	if buf.String() != want {
		t.Errorf("WriteDescriptor() = %q, want %q", buf.String(), want)
	}
}

func TestPackageInstallWritesMetadata(t *testing.T) {
	src := filepath.Join(t.TempDir(), "a.jar")
	if err := os.WriteFile(src, []byte("a"), 0600); err != nil {
		t.Fatal(err)
	}
	root := t.TempDir()

	p, err := NewPackage("", "usr/share/maven-metadata/foo.xml")
	if err != nil {
		t.Fatal(err)
	}
	f, _ := NewRegularFile("usr/share/java/foo/a.jar", src, DefaultMode)
	d, _ := NewDirectory("usr/share/java/foo")
	if err := p.AddFile(f); err != nil {
		t.Fatal(err)
	}
	if err := p.AddFile(d); err != nil {
		t.Fatal(err)
	}
	p.Metadata.Artifacts = append(p.Metadata.Artifacts, &metadata.Artifact{
		GroupID: "g", ArtifactID: "a", Version: "1", Path: "/usr/share/java/foo/a.jar",
	})

	if err := p.Install(root); err != nil {
		t.Fatalf("Install() error = %v", err)
	}

	md, err := metadata.ReadFile(filepath.Join(root, "usr/share/maven-metadata/foo.xml"))
	if err != nil {
		t.Fatal(err)
	}
	if md.UUID != p.Metadata.UUID || len(md.Artifacts) != 1 || md.Artifacts[0].ArtifactID != "a" {
		t.Errorf("installed metadata = %+v", md)
	}
	if !strings.HasPrefix(p.String(), "(main)") {
		t.Errorf("String() = %q", p.String())
	}
}
