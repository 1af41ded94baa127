// Package rules merges packaging rules into the effective decision for a
// single artifact.
//
// Rules are evaluated in declaration order. For every rule whose glob matches
// the artifact coordinate:
//
//   - TargetPackage and TargetRepository are taken from the first matching
//     rule that sets them; later matches never override.
//   - Files, Versions and Aliases are appended in order, dropping exact
//     duplicates.
//   - The rule's Matched flag is set.
//
// @N placeholders in any output field refer to the N-th capture group of the
// glob, counted across the group, artifact, extension, classifier and version
// patterns in that order.
package rules

import (
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/mvnpack/pkg/artifact"
	"github.com/matzehuels/mvnpack/pkg/errors"
	"github.com/matzehuels/mvnpack/pkg/glob"
)

// Pattern is a coordinate whose fields are glob patterns (in a rule glob) or
// @N templates (in an alias). Empty fields match anything or inherit.
type Pattern struct {
	GroupID    string `toml:"group_id"`
	ArtifactID string `toml:"artifact_id"`
	Extension  string `toml:"extension"`
	Classifier string `toml:"classifier"`
	Version    string `toml:"version"`
}

func (p Pattern) String() string {
	return strings.Join([]string{p.GroupID, p.ArtifactID, p.Extension, p.Classifier, p.Version}, ":")
}

// PackagingRule is one configured packaging decision.
type PackagingRule struct {
	Glob             Pattern   `toml:"glob"`
	TargetPackage    string    `toml:"target_package"`
	TargetRepository string    `toml:"target_repository"`
	Files            []string  `toml:"files"`
	Versions         []string  `toml:"versions"`
	Aliases          []Pattern `toml:"aliases"`
	Optional         bool      `toml:"optional"`

	// Matched is set once any artifact satisfied the glob.
	Matched bool `toml:"-"`

	matcher *glob.Matcher
}

func (r *PackagingRule) String() string {
	return fmt.Sprintf("rule %s", r.Glob)
}

// Compile compiles the rule glob. It is called lazily by [Compute]; calling it
// up front surfaces pattern errors at configuration time.
func (r *PackagingRule) Compile() error {
	if r.matcher != nil {
		return nil
	}
	m, err := glob.NewMatcher(r.Glob.GroupID, r.Glob.ArtifactID, r.Glob.Extension, r.Glob.Classifier, r.Glob.Version)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPattern, err, "invalid %s", r)
	}
	r.matcher = m
	return nil
}

// match returns the capture groups if the rule applies to c.
func (r *PackagingRule) match(c artifact.Coordinate) ([]string, bool, error) {
	if err := r.Compile(); err != nil {
		return nil, false, err
	}
	groups, ok := r.matcher.Match(c.GroupID, c.ArtifactID, c.Extension, c.Classifier, c.Version)
	return groups, ok, nil
}

// EffectiveRule is the merged packaging decision for one coordinate.
type EffectiveRule struct {
	TargetPackage    string
	TargetRepository string
	Files            []string
	Versions         []string
	Aliases          []artifact.Coordinate
}

// Compute merges every rule matching c into one effective rule.
func Compute(rules []*PackagingRule, c artifact.Coordinate) (*EffectiveRule, error) {
	eff := &EffectiveRule{}
	var pkgSet, repoSet bool

	for _, r := range rules {
		groups, ok, err := r.match(c)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		r.Matched = true

		if !pkgSet && r.TargetPackage != "" {
			eff.TargetPackage = glob.Expand(groups, r.TargetPackage)
			pkgSet = true
		}
		if !repoSet && r.TargetRepository != "" {
			eff.TargetRepository = glob.Expand(groups, r.TargetRepository)
			repoSet = true
		}

		for _, f := range r.Files {
			eff.Files = appendUnique(eff.Files, glob.Expand(groups, f))
		}
		for _, v := range r.Versions {
			eff.Versions = appendUnique(eff.Versions, glob.Expand(groups, v))
		}
		for _, a := range r.Aliases {
			alias := expandAlias(groups, a, c)
			if !slices.Contains(eff.Aliases, alias) {
				eff.Aliases = append(eff.Aliases, alias)
			}
		}
	}

	return eff, nil
}

// Unmatched returns the non-optional rules that no artifact has matched.
func Unmatched(rules []*PackagingRule) []*PackagingRule {
	var out []*PackagingRule
	for _, r := range rules {
		if !r.Matched && !r.Optional {
			out = append(out, r)
		}
	}
	return out
}

// CompileAll compiles every rule and returns the first error.
func CompileAll(rules []*PackagingRule) error {
	for _, r := range rules {
		if err := r.Compile(); err != nil {
			return err
		}
	}
	return nil
}

func expandAlias(groups []string, p Pattern, c artifact.Coordinate) artifact.Coordinate {
	inherit := func(tmpl, fallback string) string {
		if v := glob.Expand(groups, tmpl); v != "" {
			return v
		}
		return fallback
	}
	return artifact.Coordinate{
		GroupID:    inherit(p.GroupID, c.GroupID),
		ArtifactID: inherit(p.ArtifactID, c.ArtifactID),
		Extension:  inherit(p.Extension, c.Extension),
		Classifier: inherit(p.Classifier, c.Classifier),
		Version:    inherit(p.Version, c.Version),
	}.Normalize()
}

func appendUnique(list []string, s string) []string {
	if slices.Contains(list, s) {
		return list
	}
	return append(list, s)
}
