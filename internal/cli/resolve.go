package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mvnpack/pkg/artifact"
	"github.com/matzehuels/mvnpack/pkg/errors"
	"github.com/matzehuels/mvnpack/pkg/glob"
	"github.com/matzehuels/mvnpack/pkg/rules"
)

// resolveCommand creates the resolve command.
func (c *CLI) resolveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <coordinate>...",
		Short: "Resolve artifacts against system metadata",
		Long: `Resolve looks up each coordinate (groupId:artifactId[:extension[:classifier]]:version,
or groupId:artifactId) in the configured metadata repositories and prints the
file it resolves to.

Coordinates without a version resolve to the system version.`,
		Example: `  mvnpack resolve junit:junit:4.12
  mvnpack resolve org.apache.maven:maven-core:pom:3.9.0`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			coords, err := parseCoordinates(args)
			if err != nil {
				return err
			}
			cfg, err := c.config()
			if err != nil {
				return err
			}
			store, err := c.openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			res, err := c.newResolver(cfg, store)
			if err != nil {
				return err
			}

			var missing []string
			for _, coord := range coords {
				r := res.Resolve(cmd.Context(), coord)
				if !r.Found() {
					printError("%s", coord)
					missing = append(missing, coord.String())
					continue
				}
				printSuccess("%s", coord)
				printKeyValue("  path", r.Path)
				if r.CompatVersion != "" {
					printKeyValue("  compat", r.CompatVersion)
				}
				if r.Namespace != "" {
					printKeyValue("  namespace", r.Namespace)
				}
			}
			if len(missing) > 0 {
				return errors.New(errors.ErrCodeNotFound, "unable to resolve %s", strings.Join(missing, ", "))
			}
			return nil
		},
	}
}

type rulesOpts struct {
	glob     string
	template string
}

// rulesCommand creates the rules command.
func (c *CLI) rulesCommand() *cobra.Command {
	opts := rulesOpts{}

	cmd := &cobra.Command{
		Use:   "rules <coordinate>...",
		Short: "Show the effective packaging rule for artifacts",
		Long: `Rules prints the packaging decision the configured rules make for each
coordinate.

With --glob, the configured rules are ignored: each coordinate's
groupId:artifactId:version is matched against the glob and rewritten with
--template, which may refer to capture groups as @1, @2 and so on. Empty
template segments keep the input value.`,
		Example: `  mvnpack rules com.example:test2:1.0
  mvnpack rules org.sonatype.sisu:sisu-parent:pom:2.3.0 --glob 'org.sonatype.sisu:{sisu,guice}-{*}' --template ':@2'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			coords, err := parseCoordinates(args)
			if err != nil {
				return err
			}
			if opts.glob != "" {
				return runGlob(cmd, coords, opts)
			}

			cfg, err := c.config()
			if err != nil {
				return err
			}
			for i, coord := range coords {
				eff, err := rules.Compute(cfg.Rules, coord)
				if err != nil {
					return err
				}
				if i > 0 {
					printNewline()
				}
				printEffectiveRule(coord, eff)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.glob, "glob", "", "groupId:artifactId:version glob to test instead of the configured rules")
	cmd.Flags().StringVar(&opts.template, "template", "", "groupId:artifactId:version template applied on a --glob match")

	return cmd
}

// runGlob writes one line per coordinate: the rewritten triple, or
// "no match".
func runGlob(cmd *cobra.Command, coords []artifact.Coordinate, opts rulesOpts) error {
	t, err := glob.ParseTriple(opts.glob)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, coord := range coords {
		res, ok := t.Apply(coord.GroupID, coord.ArtifactID, coord.Version, opts.template)
		if !ok {
			fmt.Fprintf(out, "%s: no match\n", coord)
			continue
		}
		fmt.Fprintf(out, "%s: %s\n", coord, strings.Join(res[:], ":"))
	}
	return nil
}

func printEffectiveRule(coord artifact.Coordinate, eff *rules.EffectiveRule) {
	printInfo("%s", StyleTitle.Render(coord.String()))

	pkg := eff.TargetPackage
	if pkg == "" {
		pkg = "(main)"
	}
	printKeyValue("package", pkg)
	repo := eff.TargetRepository
	if repo == "" {
		repo = "(default)"
	}
	printKeyValue("repository", repo)
	if len(eff.Files) > 0 {
		printKeyValue("files", strings.Join(eff.Files, ", "))
	}
	if len(eff.Versions) > 0 {
		printKeyValue("versions", strings.Join(eff.Versions, ", "))
	}
	for _, a := range eff.Aliases {
		printKeyValue("alias", a.WithoutVersion().String())
	}
}

func parseCoordinates(args []string) ([]artifact.Coordinate, error) {
	coords := make([]artifact.Coordinate, 0, len(args))
	for _, arg := range args {
		c, err := artifact.Parse(arg)
		if err != nil {
			return nil, err
		}
		coords = append(coords, c)
	}
	return coords, nil
}
