package install

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mvnpack/pkg/artifact"
	"github.com/matzehuels/mvnpack/pkg/errors"
	"github.com/matzehuels/mvnpack/pkg/metadata"
	"github.com/matzehuels/mvnpack/pkg/observability"
	"github.com/matzehuels/mvnpack/pkg/resolver"
	"github.com/matzehuels/mvnpack/pkg/rules"
)

// Phase is the lifecycle state of an artifact inside a reactor run.
type Phase int

const (
	PhasePending Phase = iota
	PhaseRuleComputed
	PhasePackageAssigned
	PhaseInstallerAssigned
	PhaseInstalled
	PhasePostInstalled
	PhaseDependenciesResolved
)

var phaseNames = [...]string{
	"pending", "rule-computed", "package-assigned", "installer-assigned",
	"installed", "post-installed", "dependencies-resolved",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// DependencyResolver resolves dependencies the run itself does not install.
// *resolver.Resolver satisfies it.
type DependencyResolver interface {
	Resolve(ctx context.Context, c artifact.Coordinate) resolver.Result
}

// Options configures a Reactor.
type Options struct {
	Rules           []*rules.PackagingRule
	BasePackageName string // Main package name, also the default file base
	MetadataDir     string // Where package metadata files go, relative to the root
	Resolver        DependencyResolver
	Plugins         *PluginLoader // Optional
	Default         Installer     // Defaults to NewDefaultInstaller
	Logger          *log.Logger
}

// Result is the outcome of a reactor run.
type Result struct {
	Packages  []*Package // In creation order
	Skipped   []metadata.SkippedArtifact
	Unmatched []*rules.PackagingRule // Non-optional rules no artifact matched
}

// Package returns the package with the given ID.
func (r *Result) Package(id string) (*Package, bool) {
	if id == DefaultPackageID {
		id = ""
	}
	for _, p := range r.Packages {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// Reactor drives an installation plan through its phases.
type Reactor struct {
	opts   Options
	logger *log.Logger
}

// NewReactor creates a reactor.
func NewReactor(opts Options) *Reactor {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if opts.Default == nil {
		opts.Default = NewDefaultInstaller(Env{Logger: logger})
	}
	return &Reactor{opts: opts, logger: logger}
}

type artifactState struct {
	meta      *metadata.Artifact
	coord     artifact.Coordinate
	phase     Phase
	rule      *rules.EffectiveRule
	pkg       *Package
	installer Installer
}

// Run installs every artifact of plan into packages and resolves their
// dependencies.
func (r *Reactor) Run(ctx context.Context, plan *Plan) (*Result, error) {
	if err := checkDuplicates(plan.Artifacts); err != nil {
		return nil, err
	}
	if err := rules.CompileAll(r.opts.Rules); err != nil {
		return nil, err
	}

	states := make([]*artifactState, len(plan.Artifacts))
	for i, a := range plan.Artifacts {
		states[i] = &artifactState{meta: a, coord: a.Coordinate()}
	}

	registry := NewRegistry(r.opts.BasePackageName, r.opts.MetadataDir)
	res := &Result{}

	steps := []func(context.Context, []*artifactState, *PackageRegistry, *Result) error{
		r.computeRules,
		r.assignPackages,
		r.assignInstallers,
		r.install,
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInterrupted, err, "installation interrupted")
		}
		if err := step(ctx, states, registry, res); err != nil {
			return nil, err
		}
	}

	res.Packages = registry.Packages()
	for _, p := range res.Packages {
		p.Metadata.SkippedArtifacts = append(p.Metadata.SkippedArtifacts, res.Skipped...)
	}

	if err := r.resolveDependencies(ctx, res.Packages); err != nil {
		return nil, err
	}
	for _, s := range states {
		if s.phase == PhasePostInstalled {
			s.phase = PhaseDependenciesResolved
		}
	}

	res.Unmatched = rules.Unmatched(r.opts.Rules)
	return res, nil
}

func (r *Reactor) computeRules(_ context.Context, states []*artifactState, _ *PackageRegistry, _ *Result) error {
	for _, s := range states {
		rule, err := rules.Compute(r.opts.Rules, s.coord)
		if err != nil {
			return err
		}
		s.rule = rule
		s.phase = PhaseRuleComputed
	}
	return nil
}

func (r *Reactor) assignPackages(_ context.Context, states []*artifactState, registry *PackageRegistry, res *Result) error {
	for _, s := range states {
		pkg, err := registry.Get(s.rule.TargetPackage)
		if err != nil {
			return err
		}
		if pkg == nil {
			r.logger.Info("skipping artifact", "artifact", s.coord)
			res.Skipped = append(res.Skipped, metadata.Skipped(s.coord))
			continue
		}
		s.pkg = pkg
		s.phase = PhasePackageAssigned
	}
	return nil
}

func (r *Reactor) assignInstallers(ctx context.Context, states []*artifactState, _ *PackageRegistry, _ *Result) error {
	for _, s := range states {
		if s.phase != PhasePackageAssigned {
			continue
		}
		s.installer = r.opts.Default
		if typ := s.meta.Property("type"); typ != "" && r.opts.Plugins != nil {
			inst, ok, err := r.opts.Plugins.Load(ctx, typ)
			if err != nil {
				return err
			}
			if ok {
				s.installer = inst
			}
		}
		s.phase = PhaseInstallerAssigned
	}
	return nil
}

func (r *Reactor) install(ctx context.Context, states []*artifactState, _ *PackageRegistry, _ *Result) error {
	var used []Installer
	seen := make(map[Installer]bool)

	for _, s := range states {
		if s.phase != PhaseInstallerAssigned {
			continue
		}
		req := &Request{
			Package:         s.pkg,
			Artifact:        s.meta,
			Rule:            s.rule,
			BasePackageName: r.opts.BasePackageName,
		}
		name := installerName(s.installer)
		if err := s.installer.Install(ctx, req); err != nil {
			if errors.GetCode(err) == "" {
				err = errors.Wrap(errors.ErrCodeInstallFailed, err, "install %s", s.coord)
			}
			return err
		}
		r.logger.Debug("installed artifact", "artifact", s.coord, "package", s.pkg, "installer", name)
		observability.Install().OnArtifactInstalled(ctx, s.coord.String(), s.pkg.ID, name)
		s.phase = PhaseInstalled

		if !seen[s.installer] {
			seen[s.installer] = true
			used = append(used, s.installer)
		}
	}

	for _, inst := range used {
		if err := inst.PostInstall(ctx); err != nil {
			if errors.GetCode(err) == "" {
				err = errors.Wrap(errors.ErrCodeInstallFailed, err, "post-install %s", installerName(inst))
			}
			return err
		}
	}
	for _, s := range states {
		if s.phase == PhaseInstalled {
			s.phase = PhasePostInstalled
		}
	}
	return nil
}

// resolveDependencies fills in the resolved version and namespace of every
// dependency of every installed artifact.
func (r *Reactor) resolveDependencies(ctx context.Context, packages []*Package) error {
	installed := make(map[artifact.Coordinate]*metadata.Artifact)
	for _, p := range packages {
		for _, a := range p.Metadata.Artifacts {
			versions := a.CompatVersions
			if len(versions) == 0 {
				versions = []string{artifact.DefaultVersion}
			}
			for _, v := range versions {
				provided := []artifact.Coordinate{a.Coordinate().WithVersion(v)}
				for _, alias := range a.Aliases {
					provided = append(provided, alias.Coordinate(v))
				}
				for _, c := range provided {
					if _, ok := installed[c]; !ok {
						installed[c] = a
					}
				}
			}
		}
	}

	for _, p := range packages {
		for _, a := range p.Metadata.Artifacts {
			for _, dep := range a.Dependencies {
				if err := ctx.Err(); err != nil {
					return errors.Wrap(errors.ErrCodeInterrupted, err, "dependency resolution interrupted")
				}
				start := time.Now()
				version, ns := r.resolveDependency(ctx, installed, dep.Coordinate())
				dep.ResolvedVersion, dep.Namespace = version, ns
				if version == artifact.UnknownVersion {
					r.logger.Warn("unable to resolve dependency", "artifact", a.Coordinate(), "dependency", dep.Coordinate())
				} else {
					r.logger.Debug("resolved dependency", "dependency", dep.Coordinate(), "version", version, "namespace", ns, "took", time.Since(start))
				}
				observability.Install().OnDependencyResolved(ctx, dep.Coordinate().String(), version)
			}
		}
	}
	return nil
}

func (r *Reactor) resolveDependency(ctx context.Context, installed map[artifact.Coordinate]*metadata.Artifact, c artifact.Coordinate) (string, string) {
	system := c.WithVersion(artifact.DefaultVersion)

	if a, ok := installed[c]; ok {
		return c.Version, a.Namespace
	}
	if a, ok := installed[system]; ok {
		return artifact.DefaultVersion, a.Namespace
	}

	if r.opts.Resolver != nil {
		for _, q := range []artifact.Coordinate{c, system} {
			if res := r.opts.Resolver.Resolve(ctx, q); res.Found() {
				version := res.CompatVersion
				if version == "" {
					version = artifact.DefaultVersion
				}
				return version, res.Namespace
			}
		}
	}

	return artifact.UnknownVersion, artifact.UnknownNamespace
}
