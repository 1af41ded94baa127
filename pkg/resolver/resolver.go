// Package resolver maps artifact coordinates to files on disk.
//
// Resolution consults the metadata store with the exact version first and
// the version-less marker second. When neither is found and a provisioning
// agent is configured, the agent is asked to install the artifact, the store
// is reloaded and the lookup is repeated once.
//
// Records of POM artifacts that carry no file get a minimal POM synthesized
// from their dependency list, stored in the content-addressed cache.
package resolver

import (
	"context"
	"io"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mvnpack/pkg/artifact"
	"github.com/matzehuels/mvnpack/pkg/cache"
	"github.com/matzehuels/mvnpack/pkg/metadata"
	"github.com/matzehuels/mvnpack/pkg/observability"
	"github.com/matzehuels/mvnpack/pkg/provision"
)

// Result describes a resolution outcome. Path is empty when the artifact
// could not be resolved.
type Result struct {
	Path          string             // Resolved file, symlinks followed
	CompatVersion string             // Requested version on an exact hit, else ""
	Namespace     string             // Repository namespace of the record
	Record        *metadata.Artifact // Matched metadata record
}

// Found reports whether the artifact was resolved.
func (r Result) Found() bool {
	return r.Path != ""
}

// Options configures a Resolver.
type Options struct {
	Cache  *cache.Store     // Where synthesized POMs go (required for POM synthesis)
	Agent  *provision.Agent // Provisioning fallback (optional)
	Logger *log.Logger
}

// Resolver resolves coordinates against a metadata store.
type Resolver struct {
	store  *metadata.Store
	cache  *cache.Store
	agent  *provision.Agent
	logger *log.Logger
}

// New creates a resolver over store.
func New(store *metadata.Store, opts Options) *Resolver {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Resolver{store: store, cache: opts.Cache, agent: opts.Agent, logger: logger}
}

// Resolve looks up c. It never returns an error: every failure degrades to
// a result with an empty Path.
func (r *Resolver) Resolve(ctx context.Context, c artifact.Coordinate) Result {
	start := time.Now()
	res := r.resolve(ctx, c)
	observability.Resolver().OnResolve(ctx, c.String(), res.Found(), time.Since(start))
	return res
}

func (r *Resolver) resolve(ctx context.Context, c artifact.Coordinate) Result {
	r.logger.Debug("resolving artifact", "artifact", c)

	rec, compat := r.lookup(c)
	if rec == nil && r.agent.Enabled() {
		if r.agent.TryInstall(ctx, c) {
			if err := r.store.Reload(ctx); err != nil {
				r.logger.Warn("metadata reload after provisioning failed", "err", err)
			} else {
				rec, compat = r.lookup(c)
			}
		}
	}
	if rec == nil {
		r.logger.Debug("artifact not found", "artifact", c)
		return Result{}
	}

	path := rec.Path
	if path == "" && rec.Coordinate().Extension == "pom" {
		var err error
		if path, err = r.synthesizePOM(rec, c); err != nil {
			r.logger.Warn("failed to generate effective POM", "artifact", c, "err", err)
			return Result{}
		}
	}
	if path == "" {
		r.logger.Debug("artifact has no file", "artifact", c)
		return Result{}
	}

	if real, err := filepath.EvalSymlinks(path); err == nil {
		path = real
	} else {
		r.logger.Debug("cannot follow symlinks", "path", path, "err", err)
	}

	r.logger.Debug("artifact resolved", "artifact", c, "path", path)
	return Result{Path: path, CompatVersion: compat, Namespace: rec.Namespace, Record: rec}
}

// lookup tries the exact coordinate and then the version-less one. An exact
// hit on a record that declares compat versions reports the requested
// version as the compat version; records without compat versions are the
// system version of their artifact and report none.
func (r *Resolver) lookup(c artifact.Coordinate) (*metadata.Artifact, string) {
	if rec := r.store.Resolve(c); rec != nil {
		if len(rec.CompatVersions) > 0 && !c.IsVersionless() {
			return rec, c.Version
		}
		return rec, ""
	}
	return r.store.Resolve(c.WithoutVersion()), ""
}

func (r *Resolver) synthesizePOM(rec *metadata.Artifact, c artifact.Coordinate) (string, error) {
	content, err := effectivePOM(rec, c)
	if err != nil {
		return "", err
	}
	if r.cache == nil {
		return "", errNoCache
	}
	name := rec.UUID
	if name == "" {
		name = c.ArtifactID
	}
	return r.cache.Put(content, name+".pom")
}
