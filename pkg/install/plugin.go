package install

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/zip"

	"github.com/matzehuels/mvnpack/pkg/errors"
	"github.com/matzehuels/mvnpack/pkg/metadata"
)

const (
	installerResourceDir = "META-INF/mvnpack/installer/"
	pluginBinDir         = "bin/"
)

// DefaultHostNamespaces are the symbol namespaces plugins may bind to
// in-process installers.
var DefaultHostNamespaces = []string{"mvnpack.builtin"}

// PluginLoader finds installer plugins in a directory of archives. Loaded
// installers are cached by type and by symbol; each symbol is instantiated
// at most once.
type PluginLoader struct {
	dir   string
	hosts []string
	env   Env

	mu        sync.Mutex
	archives  []string
	listed    bool
	byType    map[string]Installer
	bySymbol  map[string]Installer
	processes []*processInstaller
	workDir   string
}

// NewPluginLoader creates a loader over the archives in dir. Symbols whose
// namespace is in hosts (an entry ending in ".*" also admits its
// sub-namespaces) resolve to registered in-process installers.
func NewPluginLoader(dir string, hosts []string, env Env) *PluginLoader {
	if hosts == nil {
		hosts = DefaultHostNamespaces
	}
	return &PluginLoader{
		dir:      dir,
		hosts:    hosts,
		env:      env.withDefaults(),
		byType:   make(map[string]Installer),
		bySymbol: make(map[string]Installer),
	}
}

// Load returns the installer plugin for an artifact type. It reports false
// when no plugin declares the type.
func (l *PluginLoader) Load(ctx context.Context, typ string) (Installer, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if inst, ok := l.byType[typ]; ok {
		return inst, true, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInterrupted, err, "load installer plugin")
	}
	if l.dir == "" {
		return nil, false, nil
	}
	if err := errors.ValidateFileName(typ); err != nil {
		return nil, false, errors.Wrap(errors.ErrCodePluginFailed, err, "invalid artifact type")
	}

	symbol, err := l.findSymbol(typ)
	if err != nil {
		return nil, false, err
	}
	if symbol == "" {
		return nil, false, nil
	}

	inst, ok := l.bySymbol[symbol]
	if !ok {
		if inst, err = l.instantiate(symbol); err != nil {
			return nil, false, err
		}
		l.bySymbol[symbol] = inst
	}
	l.byType[typ] = inst
	l.env.Logger.Debug("loaded installer plugin", "type", typ, "symbol", symbol)
	return inst, true, nil
}

// Close stops plugin processes and removes extracted executables.
func (l *PluginLoader) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, p := range l.processes {
		p.kill()
	}
	l.processes = nil
	if l.workDir == "" {
		return nil
	}
	err := os.RemoveAll(l.workDir)
	l.workDir = ""
	return err
}

func (l *PluginLoader) listArchives() ([]string, error) {
	if l.listed {
		return l.archives, nil
	}
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			l.listed = true
			return nil, nil
		}
		return nil, errors.Wrap(errors.ErrCodePluginFailed, err, "list plugin directory %s", l.dir)
	}
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.Type().IsRegular() && (ext == ".zip" || ext == ".jar") {
			l.archives = append(l.archives, filepath.Join(l.dir, e.Name()))
		}
	}
	sort.Strings(l.archives)
	l.listed = true
	return l.archives, nil
}

// findSymbol returns the symbol named by the first archive declaring typ.
func (l *PluginLoader) findSymbol(typ string) (string, error) {
	archives, err := l.listArchives()
	if err != nil {
		return "", err
	}
	for _, archive := range archives {
		data, ok, err := readEntry(archive, installerResourceDir+typ)
		if err != nil {
			return "", err
		}
		if !ok {
			continue
		}
		symbol := strings.TrimSpace(string(data))
		if symbol == "" {
			return "", errors.New(errors.ErrCodePluginFailed, "%s: empty installer declaration for type %q", archive, typ)
		}
		return symbol, nil
	}
	return "", nil
}

func (l *PluginLoader) isHostSymbol(symbol string) bool {
	ns := symbolNamespace(symbol)
	for _, h := range l.hosts {
		if prefix, ok := strings.CutSuffix(h, ".*"); ok {
			if ns == prefix || strings.HasPrefix(ns, prefix+".") {
				return true
			}
			continue
		}
		if ns == h {
			return true
		}
	}
	return false
}

func (l *PluginLoader) instantiate(symbol string) (Installer, error) {
	if l.isHostSymbol(symbol) {
		factory, ok := lookupFactory(symbol)
		if !ok {
			return nil, errors.New(errors.ErrCodePluginFailed, "no host installer registered as %s (known: %s)",
				symbol, strings.Join(RegisteredInstallers(), ", "))
		}
		inst, err := factory(l.env)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodePluginFailed, err, "create installer %s", symbol)
		}
		return inst, nil
	}

	exe, err := l.extract(symbol)
	if err != nil {
		return nil, err
	}
	p := &processInstaller{symbol: symbol, path: exe, logger: l.env.Logger}
	l.processes = append(l.processes, p)
	return p, nil
}

// extract copies bin/<symbol> from the plugin archives into the work
// directory.
func (l *PluginLoader) extract(symbol string) (string, error) {
	if err := errors.ValidateFileName(symbol); err != nil {
		return "", errors.Wrap(errors.ErrCodePluginFailed, err, "invalid installer symbol")
	}
	archives, err := l.listArchives()
	if err != nil {
		return "", err
	}
	for _, archive := range archives {
		data, ok, err := readEntry(archive, pluginBinDir+symbol)
		if err != nil {
			return "", err
		}
		if !ok {
			continue
		}
		if l.workDir == "" {
			if l.workDir, err = os.MkdirTemp("", "mvnpack-plugins-"); err != nil {
				return "", errors.Wrap(errors.ErrCodePluginFailed, err, "create plugin work directory")
			}
		}
		exe := filepath.Join(l.workDir, symbol)
		if err := os.WriteFile(exe, data, 0755); err != nil {
			return "", errors.Wrap(errors.ErrCodePluginFailed, err, "extract %s", symbol)
		}
		return exe, nil
	}
	return "", errors.New(errors.ErrCodePluginFailed, "installer %s is not provided by any plugin archive", symbol)
}

func readEntry(archive, name string) ([]byte, bool, error) {
	zr, err := zip.OpenReader(archive)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodePluginFailed, err, "open plugin archive %s", archive)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, false, errors.Wrap(errors.ErrCodePluginFailed, err, "%s: open %s", archive, name)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, false, errors.Wrap(errors.ErrCodePluginFailed, err, "%s: read %s", archive, name)
		}
		return data, true, nil
	}
	return nil, false, nil
}

// Wire format of the subprocess protocol. Each request and reply is one
// JSON document per line.

type pluginRequest struct {
	Op              string             `json:"op"`
	Package         string             `json:"package,omitempty"`
	BasePackageName string             `json:"basePackageName,omitempty"`
	Artifact        *metadata.Artifact `json:"artifact,omitempty"`
	Rule            *pluginRule        `json:"rule,omitempty"`
}

type pluginRule struct {
	TargetPackage    string   `json:"targetPackage,omitempty"`
	TargetRepository string   `json:"targetRepository,omitempty"`
	Files            []string `json:"files,omitempty"`
	Versions         []string `json:"versions,omitempty"`
	Aliases          []string `json:"aliases,omitempty"`
}

type pluginReply struct {
	OK        bool                 `json:"ok"`
	Error     string               `json:"error,omitempty"`
	Files     []pluginFile         `json:"files,omitempty"`
	Artifacts []*metadata.Artifact `json:"artifacts,omitempty"`
}

type pluginFile struct {
	Target    string `json:"target"`
	Source    string `json:"source,omitempty"`
	Link      string `json:"link,omitempty"`
	Directory bool   `json:"directory,omitempty"`
	Mode      int    `json:"mode,omitempty"`
}

func (f pluginFile) entry() (File, error) {
	switch {
	case f.Directory:
		return NewDirectory(f.Target)
	case f.Link != "":
		return NewSymbolicLink(f.Target, f.Link)
	default:
		mode := f.Mode
		if mode == 0 {
			mode = DefaultMode
		}
		return NewRegularFile(f.Target, f.Source, mode)
	}
}

// processInstaller drives an installer executable over stdin/stdout. The
// process is started on first use and exits after postInstall.
type processInstaller struct {
	symbol string
	path   string
	logger *log.Logger

	mu    sync.Mutex
	cmd   *exec.Cmd
	stdin io.WriteCloser
	enc   *json.Encoder
	dec   *json.Decoder
}

func (p *processInstaller) String() string { return p.symbol }

func (p *processInstaller) start() error {
	if p.cmd != nil {
		return nil
	}
	cmd := exec.Command(p.path)
	cmd.Stderr = os.Stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	p.cmd, p.stdin = cmd, stdin
	p.enc, p.dec = json.NewEncoder(stdin), json.NewDecoder(stdout)
	p.logger.Debug("started installer plugin", "symbol", p.symbol, "pid", cmd.Process.Pid)
	return nil
}

func (p *processInstaller) call(ctx context.Context, req *pluginRequest) (*pluginReply, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInterrupted, err, "plugin %s", p.symbol)
	}
	if err := p.start(); err != nil {
		return nil, errors.Wrap(errors.ErrCodePluginFailed, err, "start plugin %s", p.symbol)
	}
	if err := p.enc.Encode(req); err != nil {
		return nil, errors.Wrap(errors.ErrCodePluginFailed, err, "plugin %s: send %s", p.symbol, req.Op)
	}
	var reply pluginReply
	if err := p.dec.Decode(&reply); err != nil {
		return nil, errors.Wrap(errors.ErrCodePluginFailed, err, "plugin %s: read %s reply", p.symbol, req.Op)
	}
	if !reply.OK {
		return nil, errors.New(errors.ErrCodeInstallFailed, "plugin %s: %s failed: %s", p.symbol, req.Op, reply.Error)
	}
	return &reply, nil
}

func (p *processInstaller) Install(ctx context.Context, req *Request) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	rule := &pluginRule{
		TargetPackage:    req.Rule.TargetPackage,
		TargetRepository: req.Rule.TargetRepository,
		Files:            req.Rule.Files,
		Versions:         req.Rule.Versions,
	}
	for _, a := range req.Rule.Aliases {
		rule.Aliases = append(rule.Aliases, a.String())
	}

	reply, err := p.call(ctx, &pluginRequest{
		Op:              "install",
		Package:         req.Package.ID,
		BasePackageName: req.BasePackageName,
		Artifact:        req.Artifact,
		Rule:            rule,
	})
	if err != nil {
		return err
	}

	for _, pf := range reply.Files {
		f, err := pf.entry()
		if err != nil {
			return errors.Wrap(errors.ErrCodePluginFailed, err, "plugin %s: bad file entry", p.symbol)
		}
		if err := req.Package.AddFile(f); err != nil {
			return err
		}
	}
	req.Package.Metadata.Artifacts = append(req.Package.Metadata.Artifacts, reply.Artifacts...)
	return nil
}

func (p *processInstaller) PostInstall(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cmd == nil {
		return nil
	}
	if _, err := p.call(ctx, &pluginRequest{Op: "postInstall"}); err != nil {
		return err
	}
	p.stdin.Close()
	err := p.cmd.Wait()
	p.cmd = nil
	if err != nil {
		return errors.Wrap(errors.ErrCodePluginFailed, err, "plugin %s exited", p.symbol)
	}
	return nil
}

func (p *processInstaller) kill() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd == nil {
		return
	}
	p.stdin.Close()
	_ = p.cmd.Process.Kill()
	_ = p.cmd.Wait()
	p.cmd = nil
}
