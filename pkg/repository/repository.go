// Package repository computes where artifacts land inside an installation
// root.
//
// A repository combines a layout with a root directory and a namespace tag.
// Three layouts are supported:
//
//	jpp    <dir>/<name>[-version][-classifier].<ext>   (group "JPP/<dir>")
//	maven  <g/r/o/u/p>/<artifact>/<version>/<artifact>-<version>[-classifier].<ext>
//	flat   <group>-<artifact>[-version][-classifier].<ext>
//
// The version-less marker is never written into a path; the maven layout
// cannot place version-less artifacts at all.
package repository

import (
	"path"
	"strings"

	"github.com/matzehuels/mvnpack/pkg/artifact"
	"github.com/matzehuels/mvnpack/pkg/errors"
)

// Layout names a path layout.
type Layout string

const (
	LayoutJPP   Layout = "jpp"
	LayoutMaven Layout = "maven"
	LayoutFlat  Layout = "flat"
)

// DefaultID is the repository the installer uses when a rule names none.
const DefaultID = "install"

// Stereotype restricts the artifacts a repository accepts. Empty fields
// match anything.
type Stereotype struct {
	Extension  string `toml:"extension"`
	Classifier string `toml:"classifier"`
}

// Repository places artifacts under Root using Layout.
type Repository struct {
	ID          string
	Layout      Layout
	Root        string // Relative to the installation root
	Namespace   string // Tag recorded in installed metadata
	Stereotypes []Stereotype
}

// New validates the layout and returns a repository.
func New(id string, layout Layout, root, namespace string) (*Repository, error) {
	switch layout {
	case LayoutJPP, LayoutMaven, LayoutFlat:
	case "":
		layout = LayoutJPP
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "repository %q: unknown layout %q", id, layout)
	}
	if root != "" {
		if err := errors.ValidateRelativePath(root); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "repository %q root", id)
		}
	}
	return &Repository{ID: id, Layout: layout, Root: root, Namespace: namespace}, nil
}

// Accepts reports whether c matches one of the stereotypes. A repository
// without stereotypes accepts everything.
func (r *Repository) Accepts(c artifact.Coordinate) bool {
	if len(r.Stereotypes) == 0 {
		return true
	}
	for _, s := range r.Stereotypes {
		if (s.Extension == "" || s.Extension == c.Extension) && (s.Classifier == "" || s.Classifier == c.Classifier) {
			return true
		}
	}
	return false
}

// ArtifactPath returns the slash-separated path of c relative to the
// installation root. It reports false if the repository cannot store c.
func (r *Repository) ArtifactPath(c artifact.Coordinate) (string, bool) {
	if !r.Accepts(c) {
		return "", false
	}

	version := c.Version
	if version == artifact.DefaultVersion {
		version = ""
	}

	var p string
	switch r.Layout {
	case LayoutMaven:
		if version == "" {
			return "", false
		}
		p = path.Join(strings.ReplaceAll(c.GroupID, ".", "/"), c.ArtifactID, version, c.ArtifactID+"-"+version)
	case LayoutFlat:
		p = c.GroupID + "-" + c.ArtifactID
		if version != "" {
			p += "-" + version
		}
	default:
		dir := c.GroupID
		if dir == "JPP" {
			dir = ""
		}
		dir = strings.TrimPrefix(dir, "JPP/")
		p = path.Join(dir, c.ArtifactID)
		if version != "" {
			p += "-" + version
		}
	}

	if c.Classifier != "" {
		p += "-" + c.Classifier
	}
	if c.Extension != "" {
		p += "." + c.Extension
	}

	if r.Root != "" {
		p = path.Join(r.Root, p)
	}
	return p, true
}

// Set is a collection of repositories keyed by ID.
type Set struct {
	repos map[string]*Repository
	order []string
}

// NewSet builds a set. Later repositories replace earlier ones with the same
// ID.
func NewSet(repos ...*Repository) *Set {
	s := &Set{repos: make(map[string]*Repository)}
	for _, r := range repos {
		if _, ok := s.repos[r.ID]; !ok {
			s.order = append(s.order, r.ID)
		}
		s.repos[r.ID] = r
	}
	return s
}

// Get returns the repository with the given ID. An empty ID selects
// [DefaultID].
func (s *Set) Get(id string) (*Repository, bool) {
	if id == "" {
		id = DefaultID
	}
	r, ok := s.repos[id]
	return r, ok
}

// IDs returns repository IDs in declaration order.
func (s *Set) IDs() []string {
	return append([]string(nil), s.order...)
}

// Default returns the built-in installation repository: the jpp layout
// under usr/share/java.
func Default() *Repository {
	return &Repository{ID: DefaultID, Layout: LayoutJPP, Root: "usr/share/java"}
}
