package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mvnpack/pkg/errors"
	"github.com/matzehuels/mvnpack/pkg/metadata"
)

type fixture struct {
	dir    string
	config string
	plan   string
	root   string
	cache  string
}

func newFixture(t *testing.T, rules string) *fixture {
	t.Helper()
	t.Setenv("MVNPACK_CACHE_DIR", "")
	t.Setenv("MVNPACK_PROVISION_SOCKET", "")

	dir := t.TempDir()
	f := &fixture{
		dir:    dir,
		config: filepath.Join(dir, "mvnpack.toml"),
		plan:   filepath.Join(dir, ".xmvn-reactor"),
		root:   filepath.Join(dir, "root"),
		cache:  filepath.Join(dir, "cache"),
	}

	repo := filepath.Join(dir, "metadata")
	libJar := writeFile(t, dir, "lib.jar")
	if err := metadata.WriteFile(filepath.Join(repo, "lib.xml"), &metadata.PackageMetadata{
		Artifacts: []*metadata.Artifact{{GroupID: "org.lib", ArtifactID: "lib", Version: "2.0", Path: libJar, Namespace: "sys"}},
	}); err != nil {
		t.Fatal(err)
	}

	cfg := fmt.Sprintf(`
[resolver]
metadata_repositories = [%q]
cache_dir = %q
%s`, repo, f.cache, rules)
	if err := os.WriteFile(f.config, []byte(cfg), 0644); err != nil {
		t.Fatal(err)
	}

	plan := &metadata.PackageMetadata{Artifacts: []*metadata.Artifact{
		{
			GroupID: "com.example", ArtifactID: "test", Version: "4.5", Path: writeFile(t, dir, "test.jar"),
			Dependencies: []*metadata.Dependency{
				{GroupID: "org.lib", ArtifactID: "lib", RequestedVersion: "2.0"},
				{GroupID: "org.none", ArtifactID: "none", RequestedVersion: "1"},
			},
		},
		{GroupID: "com.example", ArtifactID: "test2", Version: "1.0", Path: writeFile(t, dir, "test2.jar")},
	}}
	if err := metadata.WriteFile(f.plan, plan); err != nil {
		t.Fatal(err)
	}
	return f
}

func writeFile(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(name), 0644); err != nil {
		t.Fatal(err)
	}
	return p
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	c := New(io.Discard, log.InfoLevel)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

const subpackageRule = `
[[rules]]
glob = { group_id = "com.example", artifact_id = "test2" }
target_package = "subpackage"
`

func TestInstallCommand(t *testing.T) {
	f := newFixture(t, subpackageRule)
	desc := filepath.Join(f.dir, "desc")

	_, err := execute(t, "--config", f.config, "install", "-n", "mypkg",
		"--plan", f.plan, "--root", f.root, "--descriptors", desc)
	if err != nil {
		t.Fatalf("install error = %v", err)
	}

	for _, p := range []string{"usr/share/java/mypkg/test.jar", "usr/share/java/mypkg/test2.jar"} {
		if _, err := os.Stat(filepath.Join(f.root, p)); err != nil {
			t.Errorf("%s not installed: %v", p, err)
		}
	}

	mfiles, err := os.ReadFile(filepath.Join(desc, ".mfiles"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(mfiles), "/usr/share/java/mypkg/test.jar") || strings.Contains(string(mfiles), "test2.jar") {
		t.Errorf(".mfiles = %s", mfiles)
	}
	if sub, err := os.ReadFile(filepath.Join(desc, ".mfiles-subpackage")); err != nil || !strings.Contains(string(sub), "test2.jar") {
		t.Errorf(".mfiles-subpackage = %s, %v", sub, err)
	}

	md, err := metadata.ReadFile(filepath.Join(f.root, "usr/share/maven-metadata/mypkg.xml"))
	if err != nil {
		t.Fatal(err)
	}
	if len(md.Artifacts) != 1 || len(md.Artifacts[0].Dependencies) != 2 {
		t.Fatalf("main metadata = %+v", md)
	}
	lib, none := md.Artifacts[0].Dependencies[0], md.Artifacts[0].Dependencies[1]
	if lib.ResolvedVersion != "SYSTEM" || lib.Namespace != "sys" {
		t.Errorf("lib resolved to (%s, %s), want (SYSTEM, sys)", lib.ResolvedVersion, lib.Namespace)
	}
	if none.ResolvedVersion != "UNKNOWN" || none.Namespace != "UNKNOWN" {
		t.Errorf("none resolved to (%s, %s), want UNKNOWN", none.ResolvedVersion, none.Namespace)
	}
}

func TestInstallCommandDryRun(t *testing.T) {
	f := newFixture(t, "")
	desc := filepath.Join(f.dir, "desc")

	if _, err := execute(t, "--config", f.config, "install", "-n", "mypkg", "--plan", f.plan,
		"--root", f.root, "--descriptors", desc, "--dry-run"); err != nil {
		t.Fatalf("install error = %v", err)
	}
	if _, err := os.Stat(f.root); !os.IsNotExist(err) {
		t.Errorf("dry run created the installation root: %v", err)
	}
	if _, err := os.Stat(filepath.Join(desc, ".mfiles")); err != nil {
		t.Errorf("dry run did not write .mfiles: %v", err)
	}
}

func TestInstallCommandUnmatchedRule(t *testing.T) {
	f := newFixture(t, `
[[rules]]
glob = { artifact_id = "nothing-matches" }
target_package = "x"
`)
	_, err := execute(t, "--config", f.config, "install", "-n", "mypkg", "--plan", f.plan,
		"--root", f.root, "--descriptors", f.dir)
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("install error = %v, want INVALID_CONFIG", err)
	}
}

func TestInstallCommandRequiresName(t *testing.T) {
	f := newFixture(t, "")
	if _, err := execute(t, "--config", f.config, "install", "--plan", f.plan); err == nil {
		t.Error("install without --name succeeded")
	}
	if _, err := execute(t, "--config", f.config, "install", "-n", "a/b", "--plan", f.plan); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("install -n a/b error = %v, want INVALID_INPUT", err)
	}
}

func TestResolveCommand(t *testing.T) {
	f := newFixture(t, "")

	if _, err := execute(t, "--config", f.config, "resolve", "org.lib:lib:2.0", "org.lib:lib"); err != nil {
		t.Errorf("resolve error = %v", err)
	}
	if _, err := execute(t, "--config", f.config, "resolve", "org.lib:lib", "org.none:none"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("resolve missing error = %v, want NOT_FOUND", err)
	}
	if _, err := execute(t, "--config", f.config, "resolve", "bad"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("resolve bad error = %v, want INVALID_INPUT", err)
	}
}

func TestRulesCommand(t *testing.T) {
	f := newFixture(t, subpackageRule)
	if _, err := execute(t, "--config", f.config, "rules", "com.example:test2:1.0", "com.example:test:4.5"); err != nil {
		t.Errorf("rules error = %v", err)
	}
}

func TestRulesCommandGlob(t *testing.T) {
	out, err := execute(t, "rules", "org.sonatype.sisu:sisu-parent:pom:2.3.0", "org.sonatype.sisu:plexus:1",
		"--glob", "org.sonatype.sisu:{sisu,guice}-{*}", "--template", ":@2")
	if err != nil {
		t.Fatal(err)
	}
	want := "org.sonatype.sisu:sisu-parent:pom::2.3.0: org.sonatype.sisu:parent:2.3.0\n" +
		"org.sonatype.sisu:plexus:jar::1: no match\n"
	if out != want {
		t.Errorf("rules --glob output = %q, want %q", out, want)
	}

	if _, err := execute(t, "rules", "g:a", "--glob", "{a"); !errors.Is(err, errors.ErrCodeInvalidPattern) {
		t.Errorf("rules --glob {a error = %v, want INVALID_PATTERN", err)
	}
}

func TestCachePathCommand(t *testing.T) {
	f := newFixture(t, "")
	out, err := execute(t, "--config", f.config, "cache", "path")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != f.cache {
		t.Errorf("cache path = %q, want %q", out, f.cache)
	}

	if err := os.MkdirAll(filepath.Join(f.cache, "AB"), 0755); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, "--config", f.config, "cache", "clear"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(f.cache); !os.IsNotExist(err) {
		t.Errorf("cache clear left %s behind", f.cache)
	}
}

func TestGraphCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mypkg.xml")
	if err := metadata.WriteFile(path, &metadata.PackageMetadata{Artifacts: []*metadata.Artifact{{
		GroupID: "g", ArtifactID: "a", Version: "1",
		Dependencies: []*metadata.Dependency{{GroupID: "g", ArtifactID: "b", RequestedVersion: "1", ResolvedVersion: "SYSTEM"}},
	}}}); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "graph", path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `label="mypkg";`) || !strings.Contains(out, `"g:a:jar::1" -> "g:b:jar::SYSTEM";`) {
		t.Errorf("graph output = %s", out)
	}

	if _, err := execute(t, "graph", path, "--format", "png"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("graph --format png error = %v, want INVALID_INPUT", err)
	}
}

func TestCacheDirDefault(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")
	dir, err := cacheDir(nil)
	if err != nil {
		t.Fatal(err)
	}
	if dir != filepath.Join("/tmp/xdg", appName) {
		t.Errorf("cacheDir(nil) = %q", dir)
	}
}
