package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mvnpack/pkg/errors"
	"github.com/matzehuels/mvnpack/pkg/metadata"
	"github.com/matzehuels/mvnpack/pkg/report"
)

type graphOpts struct {
	output   string
	format   string
	detailed bool
}

// graphCommand creates the graph command.
func (c *CLI) graphCommand() *cobra.Command {
	opts := graphOpts{}

	cmd := &cobra.Command{
		Use:   "graph <metadata.xml>...",
		Short: "Render installed package metadata as a dependency diagram",
		Long: `Graph reads package metadata files, such as the ones written by "mvnpack install",
and renders their artifacts and dependencies with Graphviz. Each file becomes a
cluster named after the file.`,
		Example: `  mvnpack graph usr/share/maven-metadata/*.xml -o deps.svg
  mvnpack graph mypkg.xml --format dot | dot -Tpng > deps.png`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGraph(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "dot or svg (default from output extension, else dot)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "include paths and namespaces in labels")

	return cmd
}

func (c *CLI) runGraph(cmd *cobra.Command, args []string, opts graphOpts) error {
	format := opts.format
	if format == "" {
		format = "dot"
		if strings.EqualFold(filepath.Ext(opts.output), ".svg") {
			format = "svg"
		}
	}
	if format != "dot" && format != "svg" {
		return errors.New(errors.ErrCodeInvalidInput, "unsupported format %q (use dot or svg)", format)
	}

	pkgs := make([]report.Package, 0, len(args))
	for _, path := range args {
		md, err := metadata.ReadFile(path)
		if err != nil {
			return err
		}
		pkgs = append(pkgs, report.Package{
			Name:     strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
			Metadata: md,
		})
	}

	out := []byte(report.ToDOT(pkgs, report.Options{Detailed: opts.detailed}))
	if format == "svg" {
		spinner := newSpinner("Rendering SVG...")
		spinner.Start()
		svg, err := report.RenderSVG(cmd.Context(), string(out))
		spinner.Stop()
		if err != nil {
			return err
		}
		out = svg
	}

	if opts.output == "" {
		_, err := cmd.OutOrStdout().Write(out)
		return err
	}
	if err := os.WriteFile(opts.output, out, 0644); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}
	printSuccess("Rendered %d packages", len(pkgs))
	printFile(opts.output)
	return nil
}
