package metadata

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/mvnpack/pkg/artifact"
	"github.com/matzehuels/mvnpack/pkg/errors"
	"github.com/matzehuels/mvnpack/pkg/observability"
)

// Options configures metadata loading.
type Options struct {
	IgnoreDuplicates bool        // Drop coordinates claimed by more than one record
	Workers          int         // Parallel fragment readers (default: 2 * clamp(NumCPU, 1, 8))
	Logger           *log.Logger // Warnings about skipped fragments and duplicates
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.Workers <= 0 {
		opts.Workers = 2 * min(max(runtime.NumCPU(), 1), 8)
	}
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return opts
}

// Store is a coordinate index over a set of metadata locations. It is safe
// for concurrent lookups; Reload swaps in a freshly built index.
type Store struct {
	locations []string
	opts      Options

	mu  sync.RWMutex
	idx *index
}

// index is one merged view of all fragments. Exclusions live as long as the
// index: once a coordinate is flagged duplicate it stays unresolvable.
type index struct {
	entries   map[artifact.Coordinate]*Artifact
	excluded  map[artifact.Coordinate]struct{}
	fragments []string
}

// Load reads every metadata location and merges the result. Locations may be
// files or directories; directory entries are read in lexicographic order.
// Unreadable fragments are skipped with a warning. Cancelling ctx aborts the
// whole load with an INTERRUPTED error.
func Load(ctx context.Context, locations []string, opts Options) (*Store, error) {
	s := &Store{
		locations: slices.Clone(locations),
		opts:      opts.WithDefaults(),
	}
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// NewStore builds a store from already decoded documents, merged in order.
// The resulting store has no locations, so Reload leaves it empty.
func NewStore(docs []*PackageMetadata, opts Options) *Store {
	s := &Store{opts: opts.WithDefaults()}
	idx := newIndex()
	for i, doc := range docs {
		idx.merge(context.Background(), "", doc, s.opts)
		idx.fragments = append(idx.fragments, "document-"+strconv.Itoa(i))
	}
	s.idx = idx
	return s
}

// Reload re-reads all locations into a new index and replaces the current
// one. The previous index, including its exclusions, is discarded.
func (s *Store) Reload(ctx context.Context) error {
	start := time.Now()
	idx, err := s.load(ctx)
	entries := 0
	if idx != nil {
		entries = len(idx.entries)
	}
	observability.Metadata().OnLoadComplete(ctx, len(s.locations), entries, time.Since(start), err)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.idx = idx
	s.mu.Unlock()
	return nil
}

// Resolve returns the record mapped to c, or nil.
func (s *Store) Resolve(c artifact.Coordinate) *Artifact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.idx == nil {
		return nil
	}
	return s.idx.entries[c]
}

// Excluded reports whether c was dropped as a duplicate.
func (s *Store) Excluded(c artifact.Coordinate) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.idx == nil {
		return false
	}
	_, ok := s.idx.excluded[c]
	return ok
}

// Len returns the number of mapped coordinates.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.idx == nil {
		return 0
	}
	return len(s.idx.entries)
}

// Fragments returns the paths of the fragments merged into the index, in
// merge order.
func (s *Store) Fragments() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.idx == nil {
		return nil
	}
	return slices.Clone(s.idx.fragments)
}

// =============================================================================
// Loading
// =============================================================================

func (s *Store) load(ctx context.Context) (*index, error) {
	paths := expandLocations(s.locations, s.opts.Logger)

	docs := make([]*PackageMetadata, len(paths))
	errs := make([]error, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for i, path := range paths {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			docs[i], errs[i] = ReadFile(path)
			return nil
		})
	}
	waitErr := g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInterrupted, err, "metadata load interrupted")
	}
	if waitErr != nil {
		return nil, errors.Wrap(errors.ErrCodeInterrupted, waitErr, "metadata load interrupted")
	}

	idx := newIndex()
	for i, path := range paths {
		if errs[i] != nil {
			s.opts.Logger.Warn("skipping metadata fragment", "path", path, "err", errs[i])
			observability.Metadata().OnFragmentSkipped(ctx, path, errs[i])
			continue
		}
		s.opts.Logger.Debug("adding metadata", "path", path, "artifacts", len(docs[i].Artifacts))
		observability.Metadata().OnFragmentLoaded(ctx, path, len(docs[i].Artifacts))
		idx.merge(ctx, path, docs[i], s.opts)
		idx.fragments = append(idx.fragments, path)
	}
	return idx, nil
}

// expandLocations turns files and directories into an ordered fragment list.
func expandLocations(locations []string, logger *log.Logger) []string {
	var paths []string
	for _, loc := range locations {
		info, err := os.Stat(loc)
		if err != nil || !info.IsDir() {
			paths = append(paths, loc)
			continue
		}
		entries, err := os.ReadDir(loc)
		if err != nil {
			logger.Warn("cannot list metadata directory", "path", loc, "err", err)
			continue
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		slices.Sort(names)
		for _, name := range names {
			paths = append(paths, filepath.Join(loc, name))
		}
	}
	return paths
}

// =============================================================================
// Merging
// =============================================================================

func newIndex() *index {
	return &index{
		entries:  make(map[artifact.Coordinate]*Artifact),
		excluded: make(map[artifact.Coordinate]struct{}),
	}
}

func (idx *index) merge(ctx context.Context, path string, doc *PackageMetadata, opts Options) {
	for _, a := range doc.Artifacts {
		for _, c := range identities(a) {
			if _, ok := idx.excluded[c]; ok {
				opts.Logger.Debug("ignoring metadata for excluded artifact", "artifact", c)
				continue
			}

			existing, ok := idx.entries[c]
			if !ok {
				idx.entries[c] = a
				continue
			}
			if existing == a {
				continue
			}

			idx.excluded[c] = struct{}{}
			observability.Metadata().OnDuplicate(ctx, c.String())
			if opts.IgnoreDuplicates {
				delete(idx.entries, c)
				opts.Logger.Warn("ignoring duplicate metadata", "artifact", c, "path", path)
				continue
			}

			opts.Logger.Warn("duplicate metadata", "artifact", c, "path", path)
			if existing.Namespace == "" || a.Namespace != "" {
				idx.entries[c] = a
			}
		}
	}
}

// identities returns every coordinate a record answers to, de-duplicated in
// order: the declared version, then each compat version or the version-less
// marker if there are none, for the record itself and for each alias.
func identities(a *Artifact) []artifact.Coordinate {
	versions := []string{a.Coordinate().Version}
	if len(a.CompatVersions) > 0 {
		versions = append(versions, a.CompatVersions...)
	} else {
		versions = append(versions, artifact.DefaultVersion)
	}

	base := a.Coordinate()
	var out []artifact.Coordinate
	add := func(c artifact.Coordinate) {
		for _, v := range versions {
			vc := c.WithVersion(v)
			if !slices.Contains(out, vc) {
				out = append(out, vc)
			}
		}
	}

	add(base)
	for _, alias := range a.Aliases {
		add(alias.Coordinate(base.Version))
	}
	return out
}
