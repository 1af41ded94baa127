package install

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const (
	DefaultMode   = 0644
	DirectoryMode = 0755
	noMode        = -1
)

// File is an entry of a package: something placed at a path relative to the
// installation root.
type File interface {
	// TargetPath is the slash-separated path relative to the install root.
	TargetPath() string
	// Mode is the permission bits, or -1 when none apply (symlinks).
	Mode() int
	// Install materializes the entry under root.
	Install(root string) error
	// Descriptor is the package file-list line for this entry.
	Descriptor() string
}

type entry struct {
	target string
	mode   int
}

func newEntry(target string, mode int) (entry, error) {
	target = path.Clean(strings.TrimPrefix(filepath.ToSlash(target), "/"))
	if target == "." || strings.HasPrefix(target, "../") || target == ".." {
		return entry{}, fmt.Errorf("invalid target path %q", target)
	}
	if mode < noMode || mode > 0777 {
		return entry{}, fmt.Errorf("access mode %o out of range", mode)
	}
	return entry{target: target, mode: mode}, nil
}

func (e entry) TargetPath() string { return e.target }
func (e entry) Mode() int          { return e.mode }

// prepare makes sure root is a directory and returns the absolute target,
// with its parent directory created.
func (e entry) prepare(root string) (string, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	if info, err := os.Stat(root); err == nil {
		if !info.IsDir() {
			return "", fmt.Errorf("installation root %s exists and is not a directory", root)
		}
	} else if err := os.MkdirAll(root, DirectoryMode); err != nil {
		return "", err
	}

	abs := filepath.Join(root, filepath.FromSlash(e.target))
	if err := os.MkdirAll(filepath.Dir(abs), DirectoryMode); err != nil {
		return "", err
	}
	return abs, nil
}

func (e entry) descriptor(extra string) string {
	var sb strings.Builder
	if e.mode >= 0 {
		fmt.Fprintf(&sb, "%%attr(0%o,root,root) ", e.mode)
	}
	if extra != "" {
		sb.WriteString(extra)
		sb.WriteByte(' ')
	}
	quote := strings.ContainsAny(e.target, " \t\n")
	if quote {
		sb.WriteByte('"')
	}
	sb.WriteByte('/')
	sb.WriteString(e.target)
	if quote {
		sb.WriteByte('"')
	}
	return sb.String()
}

// RegularFile is copied from Source, or written from Content when Source is
// empty.
type RegularFile struct {
	entry
	Source  string
	Content func() ([]byte, error)
}

// NewRegularFile returns a file copied from source.
func NewRegularFile(target, source string, mode int) (*RegularFile, error) {
	e, err := newEntry(target, mode)
	if err != nil {
		return nil, err
	}
	return &RegularFile{entry: e, Source: source}, nil
}

// NewGeneratedFile returns a file whose bytes are produced at install time.
func NewGeneratedFile(target string, mode int, content func() ([]byte, error)) (*RegularFile, error) {
	e, err := newEntry(target, mode)
	if err != nil {
		return nil, err
	}
	return &RegularFile{entry: e, Content: content}, nil
}

func (f *RegularFile) Install(root string) error {
	abs, err := f.prepare(root)
	if err != nil {
		return err
	}

	if f.Source == "" {
		data, err := f.Content()
		if err != nil {
			return err
		}
		return os.WriteFile(abs, data, os.FileMode(f.mode))
	}

	src, err := os.Open(f.Source)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(abs, os.O_WRONLY|os.O_CREATE|os.O_EXCL, os.FileMode(f.mode))
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

func (f *RegularFile) Descriptor() string { return f.descriptor("") }

// SymbolicLink points at Referenced. An absolute reference is stored
// relative to the link's directory.
type SymbolicLink struct {
	entry
	Referenced string
}

// NewSymbolicLink returns a link at target pointing to referenced.
func NewSymbolicLink(target, referenced string) (*SymbolicLink, error) {
	e, err := newEntry(target, noMode)
	if err != nil {
		return nil, err
	}
	if path.IsAbs(referenced) {
		rel, err := filepath.Rel("/"+path.Dir(e.target), referenced)
		if err != nil {
			return nil, err
		}
		referenced = filepath.ToSlash(rel)
	}
	return &SymbolicLink{entry: e, Referenced: referenced}, nil
}

func (l *SymbolicLink) Install(root string) error {
	abs, err := l.prepare(root)
	if err != nil {
		return err
	}
	return os.Symlink(filepath.FromSlash(l.Referenced), abs)
}

func (l *SymbolicLink) Descriptor() string { return l.descriptor("") }

// Directory is a directory owned by the package.
type Directory struct {
	entry
}

// NewDirectory returns a directory entry with the default mode.
func NewDirectory(target string) (*Directory, error) {
	e, err := newEntry(target, DirectoryMode)
	if err != nil {
		return nil, err
	}
	return &Directory{entry: e}, nil
}

func (d *Directory) Install(root string) error {
	abs, err := d.prepare(root)
	if err != nil {
		return err
	}
	if info, err := os.Lstat(abs); err == nil && info.IsDir() {
		return nil
	}
	return os.Mkdir(abs, os.FileMode(d.mode))
}

func (d *Directory) Descriptor() string { return d.descriptor("%dir") }
