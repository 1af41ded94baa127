package report

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/mvnpack/pkg/artifact"
	"github.com/matzehuels/mvnpack/pkg/metadata"
)

// Package is one cluster of the diagram.
type Package struct {
	Name     string
	Metadata *metadata.PackageMetadata
}

// Options configures diagram generation.
type Options struct {
	// Detailed adds path and namespace to artifact labels.
	Detailed bool
}

type edge struct {
	from, to string
	optional bool
}

// ToDOT converts packages to Graphviz DOT source.
func ToDOT(pkgs []Package, opts Options) string {
	// Every identity of an installed artifact maps to its node.
	installed := make(map[string]string)
	for _, p := range pkgs {
		for _, a := range p.Metadata.Artifacts {
			ids := nodeIDs(a)
			for _, id := range ids {
				if _, ok := installed[id]; !ok {
					installed[id] = ids[0]
				}
			}
		}
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.3;\n")

	var edges []edge
	external := make(map[string]bool)
	unknown := make(map[string]bool)

	for i, p := range pkgs {
		name := p.Name
		if name == "" {
			name = "(main)"
		}
		fmt.Fprintf(&buf, "\n  subgraph cluster_%d {\n", i)
		fmt.Fprintf(&buf, "    label=%q;\n", name)
		buf.WriteString("    style=\"rounded,dashed\";\n")

		for _, a := range p.Metadata.Artifacts {
			id := nodeIDs(a)[0]
			fmt.Fprintf(&buf, "    %q [label=%q];\n", id, fmtLabel(a, opts.Detailed))

			for _, d := range a.Dependencies {
				to := dependencyID(d)
				if node, ok := installed[to]; ok {
					to = node
				} else if d.ResolvedVersion == artifact.UnknownVersion {
					unknown[to] = true
				} else {
					external[to] = true
				}
				edges = append(edges, edge{from: id, to: to, optional: d.Optional})
			}
		}
		for _, s := range p.Metadata.SkippedArtifacts {
			c := artifact.New(s.GroupID, s.ArtifactID, s.Extension, s.Classifier, "")
			fmt.Fprintf(&buf, "    %q [label=%q, style=\"rounded,dotted\"];\n", "skipped:"+c.WithoutVersion().String(), c.WithoutVersion().String()+"\n(skipped)")
		}
		buf.WriteString("  }\n")
	}

	if len(external)+len(unknown) > 0 {
		buf.WriteString("\n")
	}
	for _, id := range sortedKeys(external) {
		fmt.Fprintf(&buf, "  %q [fillcolor=lightgrey];\n", id)
	}
	for _, id := range sortedKeys(unknown) {
		fmt.Fprintf(&buf, "  %q [style=\"rounded,filled,dashed\", color=red, fontcolor=red];\n", id)
	}

	buf.WriteString("\n")
	slices.SortStableFunc(edges, func(a, b edge) int {
		if c := strings.Compare(a.from, b.from); c != 0 {
			return c
		}
		return strings.Compare(a.to, b.to)
	})
	edges = slices.Compact(edges)
	for _, e := range edges {
		if e.optional {
			fmt.Fprintf(&buf, "  %q -> %q [style=dashed];\n", e.from, e.to)
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.from, e.to)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// nodeIDs returns the coordinates an installed artifact answers to, the
// primary one first.
func nodeIDs(a *metadata.Artifact) []string {
	c := a.Coordinate()
	versions := a.CompatVersions
	if len(versions) == 0 {
		versions = []string{artifact.DefaultVersion}
	}
	ids := []string{c.String()}
	for _, v := range versions {
		ids = append(ids, c.WithVersion(v).String())
	}
	return ids
}

func dependencyID(d *metadata.Dependency) string {
	c := d.Coordinate()
	if d.ResolvedVersion != "" && d.ResolvedVersion != artifact.UnknownVersion {
		c = c.WithVersion(d.ResolvedVersion)
	}
	return c.String()
}

func fmtLabel(a *metadata.Artifact, detailed bool) string {
	label := a.Coordinate().String()
	if !detailed {
		return label
	}
	var parts []string
	if a.Path != "" {
		parts = append(parts, "path: "+a.Path)
	}
	if a.Namespace != "" {
		parts = append(parts, "namespace: "+a.Namespace)
	}
	if len(a.CompatVersions) > 0 {
		parts = append(parts, "compat: "+strings.Join(a.CompatVersions, ", "))
	}
	if len(parts) == 0 {
		return label
	}
	return label + "\n" + strings.Join(parts, "\n")
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// RenderSVG renders DOT source to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root element so the SVG scales with its
// container.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
