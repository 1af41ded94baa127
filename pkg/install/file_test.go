package install

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDescriptors(t *testing.T) {
	reg, err := NewRegularFile("usr/share/java/foo.jar", "/src/foo.jar", DefaultMode)
	if err != nil {
		t.Fatal(err)
	}
	spaced, err := NewRegularFile("usr/share/doc/a b.txt", "/src/x", 0600)
	if err != nil {
		t.Fatal(err)
	}
	link, err := NewSymbolicLink("usr/share/java/foo-1.0.jar", "/usr/share/java/foo.jar")
	if err != nil {
		t.Fatal(err)
	}
	dir, err := NewDirectory("usr/share/java/foo")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		file File
		want string
	}{
		{"regular", reg, "%attr(0644,root,root) /usr/share/java/foo.jar"},
		{"quoted", spaced, `%attr(0600,root,root) "/usr/share/doc/a b.txt"`},
		{"symlink", link, "/usr/share/java/foo-1.0.jar"},
		{"directory", dir, "%attr(0755,root,root) %dir /usr/share/java/foo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.file.Descriptor(); got != tt.want {
				t.Errorf("Descriptor() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewEntryRejectsEscapingPaths(t *testing.T) {
	for _, p := range []string{"", ".", "..", "../etc/passwd", "a/../../b"} {
		if _, err := NewRegularFile(p, "/x", DefaultMode); err == nil {
			t.Errorf("NewRegularFile(%q) succeeded, want error", p)
		}
	}
	if _, err := NewRegularFile("a", "/x", 01000); err == nil {
		t.Error("mode 01000 accepted")
	}

	f, err := NewRegularFile("/usr/share/x", "/x", DefaultMode)
	if err != nil {
		t.Fatal(err)
	}
	if f.TargetPath() != "usr/share/x" {
		t.Errorf("TargetPath() = %q, want leading slash stripped", f.TargetPath())
	}
}

func TestSymbolicLinkRelativizes(t *testing.T) {
	tests := []struct {
		target, ref, want string
	}{
		{"usr/bin/foo", "/usr/share/java/foo.jar", "../share/java/foo.jar"},
		{"usr/share/java/a.jar", "/usr/share/java/b.jar", "b.jar"},
		{"usr/lib/x", "relative/y", "relative/y"},
	}
	for _, tt := range tests {
		l, err := NewSymbolicLink(tt.target, tt.ref)
		if err != nil {
			t.Fatal(err)
		}
		if l.Referenced != tt.want {
			t.Errorf("NewSymbolicLink(%q, %q).Referenced = %q, want %q", tt.target, tt.ref, l.Referenced, tt.want)
		}
		if l.Mode() != -1 {
			t.Errorf("symlink mode = %d, want -1", l.Mode())
		}
	}
}

func TestInstallFiles(t *testing.T) {
	src := filepath.Join(t.TempDir(), "foo.jar")
	if err := os.WriteFile(src, []byte("jar"), 0600); err != nil {
		t.Fatal(err)
	}
	root := filepath.Join(t.TempDir(), "root")

	reg, _ := NewRegularFile("usr/share/java/foo.jar", src, DefaultMode)
	gen, _ := NewGeneratedFile("usr/share/doc/README", DefaultMode, func() ([]byte, error) { return []byte("hi"), nil })
	link, _ := NewSymbolicLink("usr/share/java/foo-1.0.jar", "/usr/share/java/foo.jar")
	dir, _ := NewDirectory("usr/share/java/owned")

	for _, f := range []File{reg, gen, link, dir} {
		if err := f.Install(root); err != nil {
			t.Fatalf("Install(%s) error = %v", f.TargetPath(), err)
		}
	}

	data, err := os.ReadFile(filepath.Join(root, "usr/share/java/foo-1.0.jar"))
	if err != nil || string(data) != "jar" {
		t.Errorf("read through symlink = %q, %v; want %q", data, err, "jar")
	}
	info, err := os.Stat(filepath.Join(root, "usr/share/java/foo.jar"))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0644 {
		t.Errorf("mode = %o, want 644", info.Mode().Perm())
	}
	if data, _ := os.ReadFile(filepath.Join(root, "usr/share/doc/README")); string(data) != "hi" {
		t.Errorf("generated file = %q, want %q", data, "hi")
	}
	if info, err := os.Stat(filepath.Join(root, "usr/share/java/owned")); err != nil || !info.IsDir() {
		t.Errorf("directory not created: %v", err)
	}

	if err := reg.Install(root); err == nil {
		t.Error("second Install() of a regular file succeeded, want error")
	}
}

func TestInstallRootMustBeDirectory(t *testing.T) {
	root := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(root, nil, 0600); err != nil {
		t.Fatal(err)
	}
	d, _ := NewDirectory("x")
	if err := d.Install(root); err == nil {
		t.Error("Install() into a regular file succeeded, want error")
	}
}
