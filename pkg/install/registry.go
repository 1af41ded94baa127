package install

import "github.com/matzehuels/mvnpack/pkg/errors"

const (
	// DefaultPackageID is an alias of the main package.
	DefaultPackageID = "__default"
	// NoInstallPackageID marks artifacts that are deliberately not installed.
	NoInstallPackageID = "__noinstall"
)

// PackageRegistry creates packages on first use and remembers their
// creation order.
type PackageRegistry struct {
	base        string
	metadataDir string

	packages map[string]*Package
	order    []*Package
}

// NewRegistry returns an empty registry. Package metadata files are named
// after base and placed in metadataDir.
func NewRegistry(base, metadataDir string) *PackageRegistry {
	return &PackageRegistry{
		base:        base,
		metadataDir: metadataDir,
		packages:    make(map[string]*Package),
	}
}

// Get returns the package with the given ID, creating it if needed. Both ""
// and "__default" name the main package; "__noinstall" returns nil.
func (r *PackageRegistry) Get(id string) (*Package, error) {
	switch id {
	case NoInstallPackageID:
		return nil, nil
	case DefaultPackageID:
		id = ""
	}

	if p, ok := r.packages[id]; ok {
		return p, nil
	}
	if id != "" {
		if err := errors.ValidateFileName(id); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid package name")
		}
	}

	p, err := NewPackage(id, metadataPath(r.metadataDir, r.base, id))
	if err != nil {
		return nil, err
	}
	r.packages[id] = p
	r.order = append(r.order, p)
	return p, nil
}

// Packages returns all packages in creation order.
func (r *PackageRegistry) Packages() []*Package {
	return append([]*Package(nil), r.order...)
}
