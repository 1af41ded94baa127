// Package pkg provides the core libraries for mvnpack.
//
// # Overview
//
// mvnpack turns the artifacts a Java build produced into distribution
// packages. It resolves Maven coordinates against the metadata that installed
// system packages ship, applies user-supplied packaging rules, and installs
// each artifact into a package with a file list and a metadata document of
// its own. The pkg directory is organized into four areas:
//
//  1. Model - [artifact] coordinates, [glob] patterns and [metadata] documents
//  2. Policy - packaging [rules] and installation [repository] layouts
//  3. Resolution - the [metadata] store, [resolver], [cache] and [provision]
//  4. Installation - the [install] reactor and its installers, plus [report]
//
// # Architecture
//
// The typical data flow through mvnpack:
//
//	Installation plan (.xmvn-reactor)
//	         ↓
//	    [rules] package (effective rule per artifact)
//	         ↓
//	    [install] package (packages, installers, files)
//	         ↓
//	    [resolver] package (dependency versions and namespaces)
//	         ↓
//	    Installed files, .mfiles lists and package metadata
//
// # Quick Start
//
// Install a plan into a build root:
//
//	store, _ := metadata.Load(ctx, []string{"/usr/share/maven-metadata"}, metadata.Options{})
//	plan, _ := install.LoadPlan(".xmvn-reactor")
//
//	reactor := install.NewReactor(install.Options{
//	    BasePackageName: "mypkg",
//	    MetadataDir:     "usr/share/maven-metadata",
//	    Resolver:        resolver.New(store, resolver.Options{}),
//	})
//	result, _ := reactor.Run(ctx, plan)
//	for _, p := range result.Packages {
//	    _ = p.Install("target/install")
//	}
//
// # Main Packages
//
// [artifact] - Maven coordinates, their defaults (jar, SYSTEM) and the
// mvn(...) descriptor form.
//
// [glob] - Wildcard patterns with capture groups and @N backreferences, and
// the group/artifact/version triples rules match against.
//
// [metadata] - The package metadata model, its XML codec and the in-memory
// store built from metadata fragments.
//
// [rules] - Packaging rules and the effective rule computed for an artifact.
//
// [repository] - Installation repositories (jpp, flat, maven) and their
// path layouts.
//
// [resolver] - Artifact resolution against the store, with effective POM
// synthesis into the [cache] and on-demand provisioning via [provision].
//
// [install] - The installation reactor, default installer, plugin loader and
// package file model.
//
// [report] - Dependency diagrams of installed packages using Graphviz.
//
// [config] - TOML configuration. [errors] - Error codes and validation.
// [observability] - Hooks for resolution and installation events.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...            # All tests
//	go test ./pkg/install/...    # Specific package
package pkg
