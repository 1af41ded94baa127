package cli

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mvnpack/pkg/errors"
	"github.com/matzehuels/mvnpack/pkg/install"
)

type installOpts struct {
	plan        string
	name        string
	root        string
	descriptors string
	dryRun      bool
}

// installCommand creates the install command.
func (c *CLI) installCommand() *cobra.Command {
	opts := installOpts{}

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install the artifacts of an installation plan into packages",
		Long: `Install reads the installation plan left by the build, assigns every artifact
to a package according to the packaging rules, places the files under the
installation root and writes one file list per package.

File lists are named .mfiles for the main package and .mfiles-<id> for
subpackages.`,
		Example: `  mvnpack install -n mypkg
  mvnpack install -n mypkg --plan target/.xmvn-reactor --root $RPM_BUILD_ROOT`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInstall(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.plan, "plan", defaultPlan, "installation plan written by the build")
	cmd.Flags().StringVarP(&opts.name, "name", "n", "", "base package name (required)")
	cmd.Flags().StringVarP(&opts.root, "root", "d", "target/install", "installation root")
	cmd.Flags().StringVar(&opts.descriptors, "descriptors", ".", "directory for package file lists")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "compute packages without placing files")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func (c *CLI) runInstall(cmd *cobra.Command, opts installOpts) error {
	ctx := cmd.Context()

	if err := errors.ValidateFileName(opts.name); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid package name")
	}

	cfg, err := c.config()
	if err != nil {
		return err
	}
	plan, err := install.LoadPlan(opts.plan)
	if err != nil {
		return err
	}
	if len(plan.Artifacts) == 0 {
		printWarning("Installation plan %s lists no artifacts", opts.plan)
	}

	store, err := c.openStore(ctx, cfg)
	if err != nil {
		return err
	}
	res, err := c.newResolver(cfg, store)
	if err != nil {
		return err
	}
	repos, err := cfg.RepositorySet()
	if err != nil {
		return err
	}

	env := install.Env{Repositories: repos, Logger: c.Logger}
	plugins := install.NewPluginLoader(cfg.Installer.PluginDir, cfg.Installer.HostNamespaces, env)
	defer plugins.Close()

	reactor := install.NewReactor(install.Options{
		Rules:           cfg.Rules,
		BasePackageName: opts.name,
		MetadataDir:     cfg.Installer.MetadataDir,
		Resolver:        res,
		Plugins:         plugins,
		Default:         install.NewDefaultInstaller(env),
		Logger:          c.Logger,
	})

	prog := newProgress(c.Logger)
	result, err := reactor.Run(ctx, plan)
	if err != nil {
		return err
	}
	prog.done("Installation planned", "artifacts", len(plan.Artifacts), "packages", len(result.Packages))

	if len(result.Unmatched) > 0 {
		for _, r := range result.Unmatched {
			printError("Packaging %s was not matched by any artifact", r)
		}
		return errors.New(errors.ErrCodeInvalidConfig, "%d packaging rules were not matched", len(result.Unmatched))
	}

	for _, pkg := range result.Packages {
		if !opts.dryRun {
			if err := pkg.Install(opts.root); err != nil {
				return err
			}
		}
		path, err := writeDescriptor(opts.descriptors, pkg)
		if err != nil {
			return err
		}

		printSuccess("Package %s", StyleHighlight.Render(pkg.String()))
		printStats(len(pkg.Metadata.Artifacts), len(pkg.Files()), len(pkg.Metadata.SkippedArtifacts))
		printFile(path)
	}
	if opts.dryRun {
		printInfo("Dry run: no files placed under %s", opts.root)
	}
	return nil
}

// writeDescriptor writes the file list of pkg to dir/.mfiles[-id].
func writeDescriptor(dir string, pkg *install.Package) (string, error) {
	name := ".mfiles"
	if pkg.ID != "" {
		name += "-" + pkg.ID
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := pkg.WriteDescriptor(f); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}
