package toolshift

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"go.uber.org/zap"

	"github.com/universal-mcp/toolshift/internal/catalog"
	"github.com/universal-mcp/toolshift/internal/pysrc"
	"github.com/universal-mcp/toolshift/internal/scripting"
)

// Engine orchestrates the toolshift pipeline over a batch of wrapper
// modules: path resolution, parsing, registry extraction, then exactly
// one of the analysis or rewrite passes per run. Each module is
// processed from fresh state; nothing is shared between modules except
// the optional catalog.
type Engine struct {
	appsDir     string
	catalogPath string
	catalog     *catalog.Catalog
	log         *zap.Logger
	useParallel bool
	stdout      io.Writer
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's structured logger. Defaults to a no-op
// logger.
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// WithCatalog enables the SQLite catalog at dbPath. Rewrite passes then
// skip modules whose content hash is unchanged since the same pass last
// ran, and analysis results are persisted for later listing.
func WithCatalog(dbPath string) Option {
	return func(e *Engine) {
		e.catalogPath = dbPath
	}
}

// WithParallel enables the parallel batch pipeline: modules are
// processed by a worker pool and results are committed and printed in
// input order by a serial collector. Modules share no mutable state,
// so this is safe by construction.
func WithParallel(parallel bool) Option {
	return func(e *Engine) {
		e.useParallel = parallel
	}
}

// WithOutput redirects the engine's user-facing result lines, which go
// to os.Stdout by default.
func WithOutput(w io.Writer) Option {
	return func(e *Engine) {
		e.stdout = w
	}
}

// New creates an Engine that resolves module identifiers beneath
// appsDir. The expected layout is <appsDir>/<app>/app.py.
func New(appsDir string, opts ...Option) (*Engine, error) {
	e := &Engine{
		appsDir: appsDir,
		log:     zap.NewNop(),
		stdout:  os.Stdout,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.catalogPath != "" {
		c, err := catalog.Open(e.catalogPath)
		if err != nil {
			return nil, fmt.Errorf("toolshift: open catalog: %w", err)
		}
		e.catalog = c
	}
	return e, nil
}

// Close releases the Engine's catalog resources, if any.
func (e *Engine) Close() error {
	if e.catalog == nil {
		return nil
	}
	return e.catalog.Close()
}

// Catalog returns the open catalog, or nil when none was configured.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// AppPath returns the source path an app identifier resolves to.
func (e *Engine) AppPath(app string) string {
	return filepath.Join(e.appsDir, app, "app.py")
}

// outcome is the result of processing a single module. Messages are
// user-facing lines printed in input order during the serial commit
// phase, regardless of how the batch was scheduled.
type outcome struct {
	app      string
	path     string
	hash     string
	messages []string
	calls    *ModuleCalls // analysis result, nil in rewrite modes
	rewrote  bool
	skipped  bool
	err      error // fatal for this module only
}

func (o *outcome) sayf(format string, args ...any) {
	o.messages = append(o.messages, fmt.Sprintf(format, args...))
}

// forEachApp runs fn once per app, serially or via a worker pool, and
// returns the outcomes in input order.
func (e *Engine) forEachApp(ctx context.Context, apps []string, fn func(context.Context, string) *outcome) []*outcome {
	outcomes := make([]*outcome, len(apps))
	if !e.useParallel || len(apps) < 2 {
		for i, app := range apps {
			outcomes[i] = fn(ctx, app)
		}
		return outcomes
	}

	numWorkers := min(runtime.NumCPU(), len(apps))

	type workItem struct {
		idx int
		app string
	}
	workCh := make(chan workItem, len(apps))
	for i, app := range apps {
		workCh <- workItem{idx: i, app: app}
	}
	close(workCh)

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range workCh {
				outcomes[item.idx] = fn(ctx, item.app)
			}
		}()
	}
	wg.Wait()
	return outcomes
}

// loadModule reads and parses one wrapper module. A missing path or a
// parse failure is reported on the outcome and leaves out.err nil: the
// module is skipped and the batch continues.
func (e *Engine) loadModule(ctx context.Context, app string, out *outcome) *pysrc.Module {
	out.path = e.AppPath(app)

	src, err := os.ReadFile(out.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			out.sayf("Could not find %s for application %s", out.path, app)
			out.skipped = true
			return nil
		}
		out.err = fmt.Errorf("read %s: %w", out.path, err)
		return nil
	}
	out.hash = fmt.Sprintf("%x", sha256.Sum256(src))

	mod, err := pysrc.Parse(ctx, out.path, src)
	if err != nil {
		out.sayf("Error parsing %s: %v", out.path, err)
		out.skipped = true
		return nil
	}
	return mod
}

// AnalyzeCalls runs the read-only call analysis over the batch: for
// each module, the registry is extracted and internal call edges
// between registered operations are collected. Modules with an empty
// registry contribute nothing. When a catalog is enabled, each module's
// edges replace the previously recorded set.
func (e *Engine) AnalyzeCalls(ctx context.Context, apps []string) (*CallReport, error) {
	outcomes := e.forEachApp(ctx, apps, func(ctx context.Context, app string) *outcome {
		out := &outcome{app: app}
		mod := e.loadModule(ctx, app, out)
		if mod == nil {
			return out
		}
		defer mod.Close()

		reg := ExtractRegistry(mod)
		if reg.Empty() {
			e.log.Debug("no registered operations", zap.String("app", app))
			out.skipped = true
			return out
		}

		edges := InternalCalls(mod, reg)
		out.calls = &ModuleCalls{App: app, Edges: edges}
		e.log.Debug("analyzed module",
			zap.String("app", app),
			zap.Int("tools", len(reg)),
			zap.Int("edges", len(edges)),
		)
		return out
	})

	report := &CallReport{}
	var errs []error
	for _, out := range outcomes {
		e.printMessages(out)
		if out.err != nil {
			errs = append(errs, fmt.Errorf("analyze %s: %w", out.app, out.err))
			continue
		}
		if out.calls == nil {
			continue
		}
		report.Modules = append(report.Modules, *out.calls)
		if e.catalog != nil {
			if err := e.recordAnalysis(out); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return report, e.summarize("analysis", errs)
}

// recordAnalysis persists one module's analysis result to the catalog.
func (e *Engine) recordAnalysis(out *outcome) error {
	edges := make([]catalog.Edge, 0, len(out.calls.Edges))
	for _, edge := range out.calls.Edges {
		edges = append(edges, catalog.Edge{App: out.app, Caller: edge.Caller, Callee: edge.Callee})
	}
	if err := e.catalog.ReplaceEdges(out.app, edges); err != nil {
		return fmt.Errorf("record edges for %s: %w", out.app, err)
	}
	if err := e.catalog.RecordPass(out.app, out.path, "calls", out.hash); err != nil {
		return fmt.Errorf("record pass for %s: %w", out.app, err)
	}
	return nil
}

// rewritePass describes one of the two destructive passes.
type rewritePass struct {
	name    string // catalog and log identifier
	success string // printed with the module path on success
	edits   func(*pysrc.Module, Registry) []pysrc.Edit
}

var (
	asyncifyDefsPass = rewritePass{
		name:    "asyncify-defs",
		success: "Successfully converted functions in %s to async.",
		edits:   AsyncifyFunctions,
	}
	asyncifyHTTPPass = rewritePass{
		name:    "asyncify-http",
		success: "Successfully converted HTTP calls in %s to async.",
		edits:   AsyncifyHTTPCalls,
	}
)

// RewriteSummary counts per-module results of a rewrite batch.
type RewriteSummary struct {
	Converted int // files rewritten (or already in target form)
	Skipped   int // missing, unparseable, empty registry, or unchanged
	Failed    int // serialization or I/O failures
}

// AsyncifyDefs converts every registered synchronous function
// definition to an async definition and overwrites each module source
// in place (full write to a temp file, then rename; the original is
// untouched if anything fails before the rename).
func (e *Engine) AsyncifyDefs(ctx context.Context, apps []string) (*RewriteSummary, error) {
	return e.runRewrite(ctx, apps, asyncifyDefsPass)
}

// AsyncifyCalls rewrites synchronous HTTP helper calls inside
// registered operation bodies to their awaited asynchronous
// counterparts and overwrites each module source in place.
func (e *Engine) AsyncifyCalls(ctx context.Context, apps []string) (*RewriteSummary, error) {
	return e.runRewrite(ctx, apps, asyncifyHTTPPass)
}

func (e *Engine) runRewrite(ctx context.Context, apps []string, pass rewritePass) (*RewriteSummary, error) {
	outcomes := e.forEachApp(ctx, apps, func(ctx context.Context, app string) *outcome {
		return e.rewriteModule(ctx, app, pass)
	})

	summary := &RewriteSummary{}
	var errs []error
	for _, out := range outcomes {
		e.printMessages(out)
		switch {
		case out.err != nil:
			summary.Failed++
			errs = append(errs, fmt.Errorf("%s %s: %w", pass.name, out.app, out.err))
		case out.rewrote:
			summary.Converted++
			if e.catalog != nil {
				if err := e.catalog.RecordPass(out.app, out.path, pass.name, out.hash); err != nil {
					errs = append(errs, err)
				}
			}
		default:
			summary.Skipped++
		}
	}
	return summary, e.summarize(pass.name, errs)
}

func (e *Engine) rewriteModule(ctx context.Context, app string, pass rewritePass) *outcome {
	out := &outcome{app: app}
	mod := e.loadModule(ctx, app, out)
	if mod == nil {
		return out
	}
	defer mod.Close()

	// Skip modules this pass has already processed at this content hash.
	if e.catalog != nil {
		last, err := e.catalog.LastHash(out.path, pass.name)
		if err != nil {
			out.err = err
			return out
		}
		if last == out.hash {
			e.log.Debug("unchanged since last run, skipping",
				zap.String("app", app), zap.String("pass", pass.name))
			out.skipped = true
			return out
		}
	}

	reg := ExtractRegistry(mod)
	if reg.Empty() {
		out.sayf("No tool functions found in %s", out.path)
		out.skipped = true
		return out
	}

	edits := pass.edits(mod, reg)
	if len(edits) > 0 {
		rewritten, err := pysrc.Apply(mod.Src, edits)
		if err != nil {
			out.err = fmt.Errorf("serialize: %w", err)
			return out
		}
		if err := writeFileAtomic(out.path, rewritten); err != nil {
			out.err = err
			return out
		}
		out.hash = fmt.Sprintf("%x", sha256.Sum256(rewritten))
	}

	out.rewrote = true
	out.sayf(pass.success, out.path)
	e.log.Info("rewrote module",
		zap.String("app", app),
		zap.String("pass", pass.name),
		zap.Int("edits", len(edits)),
	)
	return out
}

// RunChecks evaluates a Risor check script once per module, exposing
// each module's registry and internal call edges as script globals.
func (e *Engine) RunChecks(ctx context.Context, scriptPath string, apps []string) error {
	script, err := os.ReadFile(scriptPath)
	if err != nil {
		return fmt.Errorf("toolshift: read script: %w", err)
	}
	runner := scripting.NewRunner(e.log)

	outcomes := e.forEachApp(ctx, apps, func(ctx context.Context, app string) *outcome {
		out := &outcome{app: app}
		mod := e.loadModule(ctx, app, out)
		if mod == nil {
			return out
		}
		defer mod.Close()

		reg := ExtractRegistry(mod)
		edges := InternalCalls(mod, reg)
		calls := make([]scripting.Call, 0, len(edges))
		for _, edge := range edges {
			calls = append(calls, scripting.Call{Caller: edge.Caller, Callee: edge.Callee})
		}
		out.err = runner.Run(ctx, string(script), scriptPath, scripting.Input{
			App:    app,
			Path:   out.path,
			Source: string(mod.Src),
			Tools:  reg.Names(),
			Calls:  calls,
		})
		return out
	})

	var errs []error
	for _, out := range outcomes {
		e.printMessages(out)
		if out.err != nil {
			errs = append(errs, fmt.Errorf("check %s: %w", out.app, out.err))
		}
	}
	return e.summarize("checks", errs)
}

func (e *Engine) printMessages(out *outcome) {
	for _, msg := range out.messages {
		fmt.Fprintln(e.stdout, msg)
	}
}

// summarize folds per-module errors into a single batch error, keeping
// the first cause in the chain.
func (e *Engine) summarize(op string, errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("toolshift: %s had %d error(s): %w", op, len(errs), errs[0])
}

// writeFileAtomic writes data to a temp file in path's directory, then
// renames it over path.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".toolshift-*")
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if info, statErr := os.Stat(path); statErr == nil {
		if err := tmp.Chmod(info.Mode()); err != nil {
			tmp.Close()
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
