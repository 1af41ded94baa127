package install

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mvnpack/pkg/metadata"
	"github.com/matzehuels/mvnpack/pkg/repository"
	"github.com/matzehuels/mvnpack/pkg/rules"
)

// Request is one artifact handed to an installer.
type Request struct {
	Package         *Package
	Artifact        *metadata.Artifact
	Rule            *rules.EffectiveRule
	BasePackageName string
}

// Installer places artifacts into packages.
type Installer interface {
	// Install adds the files and metadata records of req.Artifact to
	// req.Package.
	Install(ctx context.Context, req *Request) error
	// PostInstall runs once after every artifact has been installed.
	PostInstall(ctx context.Context) error
}

// Env is what installer factories get to build an installer with.
type Env struct {
	Repositories *repository.Set
	Logger       *log.Logger
}

func (e Env) withDefaults() Env {
	if e.Repositories == nil {
		e.Repositories = repository.NewSet(repository.Default())
	}
	if e.Logger == nil {
		e.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return e
}

// Factory creates an installer.
type Factory func(env Env) (Installer, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]Factory)
)

// RegisterInstaller makes an in-process installer available under symbol.
// Plugins refer to it by naming the symbol in their installer resource.
func RegisterInstaller(symbol string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[symbol] = f
}

// RegisteredInstallers returns the registered symbols, sorted.
func RegisteredInstallers() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	out := make([]string, 0, len(factories))
	for s := range factories {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func lookupFactory(symbol string) (Factory, bool) {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	f, ok := factories[symbol]
	return f, ok
}

// symbolNamespace returns the part of symbol before the last dot.
func symbolNamespace(symbol string) string {
	i := strings.LastIndexByte(symbol, '.')
	if i < 0 {
		return ""
	}
	return symbol[:i]
}

func installerName(inst Installer) string {
	if s, ok := inst.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", inst)
}
