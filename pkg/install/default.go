package install

import (
	"context"
	"path"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/mvnpack/pkg/artifact"
	"github.com/matzehuels/mvnpack/pkg/errors"
	"github.com/matzehuels/mvnpack/pkg/metadata"
	"github.com/matzehuels/mvnpack/pkg/repository"
)

// DefaultInstallerSymbol is the symbol the default installer is registered
// under.
const DefaultInstallerSymbol = "mvnpack.builtin.default"

func init() {
	RegisterInstaller(DefaultInstallerSymbol, func(env Env) (Installer, error) {
		return NewDefaultInstaller(env), nil
	})
}

// DefaultInstaller installs artifacts into a repository layout. The first
// target path of an artifact receives the file; every other target, and
// every absolute file named by the rule, becomes a symlink to it.
type DefaultInstaller struct {
	repos  *repository.Set
	logger *log.Logger
}

// NewDefaultInstaller creates the default installer.
func NewDefaultInstaller(env Env) *DefaultInstaller {
	env = env.withDefaults()
	return &DefaultInstaller{repos: env.Repositories, logger: env.Logger}
}

func (d *DefaultInstaller) String() string { return "default" }

type jppTarget struct {
	coord artifact.Coordinate
	path  string
}

func (d *DefaultInstaller) Install(ctx context.Context, req *Request) error {
	a := req.Artifact
	coord := a.Coordinate()

	repo, ok := d.repos.Get(req.Rule.TargetRepository)
	if !ok {
		return errors.New(errors.ErrCodeInstallFailed, "unknown repository %q for %s", req.Rule.TargetRepository, coord)
	}

	targets, err := d.jppTargets(req, repo)
	if err != nil {
		return err
	}
	if targets == nil {
		d.logger.Warn("skipping artifact: no suitable repository found to store it", "artifact", coord, "repository", repo.ID)
		return nil
	}

	primary := targets[0]
	d.logger.Debug("installing artifact", "artifact", coord, "target", primary.path)

	f, err := NewRegularFile(primary.path, a.Path, DefaultMode)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInstallFailed, err, "install %s", coord)
	}
	if err := req.Package.AddFile(f); err != nil {
		return err
	}
	if dir := path.Dir(primary.path); dir != "." && dir != repo.Root {
		if owned, err := NewDirectory(dir); err == nil {
			req.Package.AddFileIfNotExists(owned)
		}
	}

	for _, t := range targets[1:] {
		if err := d.addSymlink(req.Package, t.path, primary.path); err != nil {
			return err
		}
	}

	if coord.Extension != "pom" {
		if err := d.installAbsoluteSymlinks(req, coord, primary.path); err != nil {
			return err
		}
	}

	req.Package.Metadata.Artifacts = append(req.Package.Metadata.Artifacts, installedRecord(req, repo, primary.path))
	return nil
}

func (d *DefaultInstaller) PostInstall(context.Context) error { return nil }

// jppTargets computes the repository paths of a. It returns nil when the
// repository cannot store one of them.
func (d *DefaultInstaller) jppTargets(req *Request, repo *repository.Repository) ([]jppTarget, error) {
	a := req.Artifact
	coord := a.Coordinate()

	bases := req.Rule.Files
	if len(bases) == 0 {
		bases = []string{req.BasePackageName + "/" + a.ArtifactID}
	}
	versions := req.Rule.Versions
	if len(versions) == 0 {
		versions = []string{artifact.DefaultVersion}
	}

	var targets []jppTarget
	for _, base := range bases {
		if path.IsAbs(base) {
			continue
		}
		base = path.Clean(base)
		group := "JPP"
		if dir := path.Dir(base); dir != "." {
			group = "JPP/" + dir
		}
		for _, v := range versions {
			jpp := artifact.New(group, path.Base(base), coord.Extension, coord.Classifier, v)
			p, ok := repo.ArtifactPath(jpp)
			if !ok {
				return nil, nil
			}
			if err := errors.ValidateRelativePath(p); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInstallFailed, err, "target of %s", coord)
			}
			targets = append(targets, jppTarget{coord: jpp, path: p})
		}
	}

	if len(targets) == 0 {
		return nil, errors.New(errors.ErrCodeInstallFailed, "at least one non-absolute file must be specified for artifact %s", coord)
	}
	return targets, nil
}

func (d *DefaultInstaller) installAbsoluteSymlinks(req *Request, coord artifact.Coordinate, primary string) error {
	suffixes := []string{""}
	if len(req.Rule.Versions) > 0 {
		suffixes = suffixes[:0]
		for _, v := range req.Rule.Versions {
			suffixes = append(suffixes, "-"+v)
		}
	}

	var tail string
	if coord.Classifier != "" {
		tail += "-" + coord.Classifier
	}
	if coord.Extension != "" {
		tail += "." + coord.Extension
	}

	for _, file := range req.Rule.Files {
		if !path.IsAbs(file) {
			continue
		}
		for _, s := range suffixes {
			if err := d.addSymlink(req.Package, file+s+tail, primary); err != nil {
				return err
			}
		}
	}
	return nil
}

func (d *DefaultInstaller) addSymlink(pkg *Package, link, target string) error {
	l, err := NewSymbolicLink(link, "/"+target)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInstallFailed, err, "symlink %s", link)
	}
	return pkg.AddFile(l)
}

// installedRecord is the metadata of a as installed at primary.
func installedRecord(req *Request, repo *repository.Repository, primary string) *metadata.Artifact {
	a := req.Artifact
	rec := &metadata.Artifact{
		GroupID:    a.GroupID,
		ArtifactID: a.ArtifactID,
		Extension:  a.Extension,
		Classifier: a.Classifier,
		Version:    a.Version,
		UUID:       uuid.NewString(),
		Namespace:  repo.Namespace,
		Path:       "/" + primary,
		Properties: a.Properties,
	}
	for _, v := range req.Rule.Versions {
		if v != artifact.DefaultVersion {
			rec.CompatVersions = append(rec.CompatVersions, v)
		}
	}
	for _, c := range req.Rule.Aliases {
		alias := metadata.Alias{GroupID: c.GroupID, ArtifactID: c.ArtifactID, Classifier: c.Classifier}
		if c.Extension != artifact.DefaultExtension {
			alias.Extension = c.Extension
		}
		rec.Aliases = append(rec.Aliases, alias)
	}
	for _, dep := range a.Dependencies {
		cp := *dep
		cp.Exclusions = append([]metadata.Exclusion(nil), dep.Exclusions...)
		rec.Dependencies = append(rec.Dependencies, &cp)
	}
	return rec
}
