// Package install turns an installation plan into distribution packages.
//
// A [Reactor] takes the artifacts of a [Plan] through a fixed sequence of
// phases. Each phase completes for every artifact before the next begins:
//
//  1. RuleComputed: the packaging rules are merged into an effective rule.
//  2. PackageAssigned: the target package is looked up in the
//     [PackageRegistry]. Artifacts packaged as "__noinstall" are dropped and
//     listed as skipped in every real package.
//  3. InstallerAssigned: the artifact "type" property selects a plugin
//     installer; otherwise the default installer is used.
//  4. Installed: each installer places files and metadata into its package.
//     PostInstall then runs once per distinct installer.
//
// Finally every dependency of every installed artifact is resolved, first
// against the artifacts installed in this run and then through the external
// resolver. Dependencies nothing can satisfy are recorded with the "UNKNOWN"
// version and namespace.
//
// # Plugins
//
// A [PluginLoader] discovers installers in a directory of .zip/.jar
// archives. The resource META-INF/mvnpack/installer/<type> names the
// implementation symbol. Symbols in an allowed host namespace resolve to
// installers registered with [RegisterInstaller]; all others must be shipped
// by the plugin archives themselves as an executable bin/<symbol>, which is
// driven as a subprocess speaking JSON lines.
package install
