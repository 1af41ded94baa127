package cache

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}

	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}

	if h1 != strings.ToUpper(h1) {
		t.Errorf("Hash should be uppercase, got %s", h1)
	}

	want := "2CF24DBA5FB0A30E26E83B2AC5B9E29E1B161E5C1FA7425E73043362938B9824"
	if h1 != want {
		t.Errorf("Hash(hello) = %s, want %s", h1, want)
	}
}

func TestPutLayout(t *testing.T) {
	root := t.TempDir()
	s := New(root)

	path, err := s.Put([]byte("hello"), "foo.pom")
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	hash := Hash([]byte("hello"))
	want := filepath.Join(root, hash[:2], hash, "foo.pom")
	if path != want {
		t.Errorf("Put() = %s, want %s", path, want)
	}
	if s.Path([]byte("hello"), "foo.pom") != want {
		t.Errorf("Path() does not match Put()")
	}
}

func TestPutIdempotent(t *testing.T) {
	s := New(t.TempDir())
	content := []byte("<project/>")

	p1, err := s.Put(content, "a.pom")
	if err != nil {
		t.Fatal(err)
	}
	p2, err := s.Put(content, "a.pom")
	if err != nil {
		t.Fatal(err)
	}
	if p1 != p2 {
		t.Errorf("paths differ: %s vs %s", p1, p2)
	}

	got, err := os.ReadFile(p1)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(content) {
		t.Errorf("content = %q, want %q", got, content)
	}
}

func TestPutConcurrent(t *testing.T) {
	s := New(t.TempDir())
	content := []byte("shared")

	var wg sync.WaitGroup
	paths := make([]string, 8)
	errs := make([]error, 8)
	for i := range paths {
		wg.Add(1)
		go func() {
			defer wg.Done()
			paths[i], errs[i] = s.Put(content, "x.pom")
		}()
	}
	wg.Wait()

	for i := range paths {
		if errs[i] != nil {
			t.Fatalf("Put() #%d error = %v", i, errs[i])
		}
		if paths[i] != paths[0] {
			t.Errorf("Put() #%d = %s, want %s", i, paths[i], paths[0])
		}
	}
	entries, err := os.ReadDir(filepath.Dir(paths[0]))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("cache dir has %d entries, want 1 (temp files must be cleaned up)", len(entries))
	}
}

func TestPutInvalidName(t *testing.T) {
	s := New(t.TempDir())
	for _, name := range []string{"", "../x", "a/b"} {
		if _, err := s.Put([]byte("x"), name); err == nil {
			t.Errorf("Put(%q) error = nil, want error", name)
		}
	}
}

func TestClear(t *testing.T) {
	root := filepath.Join(t.TempDir(), "cache")
	s := New(root)
	if _, err := s.Put([]byte("x"), "x.pom"); err != nil {
		t.Fatal(err)
	}
	if err := s.Clear(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(root); !os.IsNotExist(err) {
		t.Errorf("cache root still exists after Clear()")
	}
}

func TestDefaultDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")
	dir, err := DefaultDir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != "/tmp/xdg/mvnpack" {
		t.Errorf("DefaultDir() = %s, want /tmp/xdg/mvnpack", dir)
	}
}
