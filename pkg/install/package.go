package install

import (
	"bytes"
	"fmt"
	"io"
	"path"
	"sort"

	"github.com/google/uuid"

	"github.com/matzehuels/mvnpack/pkg/errors"
	"github.com/matzehuels/mvnpack/pkg/metadata"
)

// Package is one output distribution package: an ordered set of files keyed
// by target path plus the metadata document describing its artifacts.
type Package struct {
	ID       string
	Metadata *metadata.PackageMetadata

	files []File
	index map[string]int
}

// NewPackage creates a package whose metadata document is written to
// metadataPath (relative to the installation root) when the package is
// installed.
func NewPackage(id, metadataPath string) (*Package, error) {
	p := &Package{
		ID:       id,
		Metadata: &metadata.PackageMetadata{UUID: uuid.NewString()},
		index:    make(map[string]int),
	}
	md, err := NewGeneratedFile(metadataPath, DefaultMode, p.encodeMetadata)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "package %q metadata path", id)
	}
	if err := p.AddFile(md); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Package) encodeMetadata() ([]byte, error) {
	var buf bytes.Buffer
	if err := metadata.Encode(&buf, p.Metadata); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// AddFile adds f. Adding a second file at the same target path is an error.
func (p *Package) AddFile(f File) error {
	if _, ok := p.File(f.TargetPath()); ok {
		return errors.New(errors.ErrCodeInstallFailed, "package %q already contains /%s", p.ID, f.TargetPath())
	}
	p.index[f.TargetPath()] = len(p.files)
	p.files = append(p.files, f)
	return nil
}

// AddFileIfNotExists adds f unless the target path is already taken.
func (p *Package) AddFileIfNotExists(f File) bool {
	if _, ok := p.File(f.TargetPath()); ok {
		return false
	}
	_ = p.AddFile(f)
	return true
}

// File returns the entry at target path.
func (p *Package) File(target string) (File, bool) {
	i, ok := p.index[target]
	if !ok {
		return nil, false
	}
	return p.files[i], true
}

// Files returns the entries in insertion order.
func (p *Package) Files() []File {
	return append([]File(nil), p.files...)
}

// Install materializes every entry under root. Directories go first so that
// owned directories get their mode before files are placed in them.
func (p *Package) Install(root string) error {
	ordered := p.Files()
	sort.SliceStable(ordered, func(i, j int) bool {
		_, di := ordered[i].(*Directory)
		_, dj := ordered[j].(*Directory)
		return di && !dj
	})
	for _, f := range ordered {
		if err := f.Install(root); err != nil {
			return errors.Wrap(errors.ErrCodeInstallFailed, err, "install /%s", f.TargetPath())
		}
	}
	return nil
}

// WriteDescriptor writes one file-list line per entry.
func (p *Package) WriteDescriptor(w io.Writer) error {
	for _, f := range p.files {
		if _, err := fmt.Fprintln(w, f.Descriptor()); err != nil {
			return err
		}
	}
	return nil
}

func (p *Package) String() string {
	if p.ID == "" {
		return "(main)"
	}
	return p.ID
}

// metadataPath is <dir>/<base>[-id].xml.
func metadataPath(dir, base, id string) string {
	name := base
	if id != "" {
		name += "-" + id
	}
	return path.Join(dir, name+".xml")
}
