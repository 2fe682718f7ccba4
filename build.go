package bosscss

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yacobolo/bosscss/internal/boundary"
	"github.com/yacobolo/bosscss/internal/classmap"
	"github.com/yacobolo/bosscss/internal/css"
	"github.com/yacobolo/bosscss/internal/report"
	"github.com/yacobolo/bosscss/internal/session"
)

// CompiledFile is one compiled content file
type CompiledFile struct {
	Source           string `json:"source"`
	Output           string `json:"output,omitempty"` // empty when compile output is disabled
	NeedsRuntime     bool   `json:"needs_runtime"`
	ReplacedElements int    `json:"replaced_elements"`
}

// BuildResult contains build stats
type BuildResult struct {
	ScanStats
	Rules      int               // rules in the assembled stylesheet
	Boundaries int               // boundary marker files found
	Outputs    []boundary.Output // stylesheets written, global first
	Compiled   []CompiledFile    // sorted by source
	Warnings   []report.Warning  // sorted by file and position
	Stats      Stats
	ClassNames map[string]string // token -> short name, nil without a className strategy
	Failed     int               // files that could not be processed
	Duration   time.Duration
}

// OutputPaths returns the written stylesheet paths.
func (r *BuildResult) OutputPaths() []string {
	paths := make([]string, 0, len(r.Outputs))
	for _, out := range r.Outputs {
		paths = append(paths, out.Path)
	}
	return paths
}

// Builder runs builds against one session. Watch keeps a Builder alive
// between rebuilds so unchanged files are not processed again.
type Builder struct {
	cfg     Config
	root    string // absolute
	output  string // absolute global stylesheet
	outDir  string // absolute, empty when compile output is disabled
	tokens  string // absolute tokens file, empty when none
	sess    *session.Session
	scanner *scanner
	stats   *statsCollector
	log     *zap.Logger

	scanStats ScanStats
	warnings  map[string][]report.Warning
	compiled  map[string]CompiledFile
	failed    map[string]bool
}

// NewBuilder validates cfg and prepares a session.
func NewBuilder(cfg Config, log *zap.Logger) (*Builder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %s: %w", cfg.Root, err)
	}
	if cfg.TokensFile != "" {
		cfg.TokensFile = resolve(root, cfg.TokensFile)
	}

	scfg, err := cfg.sessionConfig()
	if err != nil {
		return nil, err
	}
	sess, err := session.New(scfg, log)
	if err != nil {
		return nil, err
	}
	if err := classmap.CheckConcurrency(sess.Mapper(), cfg.Concurrency); err != nil {
		return nil, fmt.Errorf("%w (set concurrency to 1 or use the hash strategy)", err)
	}

	b := &Builder{
		cfg:    cfg,
		root:   root,
		output: resolve(root, cfg.Output),
		tokens: cfg.TokensFile,
		sess:   sess,
		stats:  newStatsCollector(sess.Bus()),
		log:    log.Named("build"),
	}
	if cfg.OutDir != "" {
		b.outDir = resolve(root, cfg.OutDir)
	}
	b.scanner, err = newScanner(root, cfg.Ignore, b.output, b.outDir)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Build is the main entry point
func Build(ctx context.Context, cfg Config, log *zap.Logger) (*BuildResult, error) {
	b, err := NewBuilder(cfg, log)
	if err != nil {
		return nil, err
	}
	return b.Build(ctx)
}

// Session returns the session the builder writes into.
func (b *Builder) Session() *session.Session {
	return b.sess
}

func resolve(root, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(root, path)
}

type source struct {
	path string
	data []byte
	kind FileKind
}

// fileResult is the outcome of processing one file into a private engine.
type fileResult struct {
	engine   *css.Engine
	warnings []report.Warning
	compiled *CompiledFile
	code     []byte // compile output, nil when nothing is written
	err      error
}

// Build scans the content files and rebuilds everything from scratch. A file
// that fails is reported in the returned error; the other files are still
// written. Only scan and context errors return a nil result.
func (b *Builder) Build(ctx context.Context) (*BuildResult, error) {
	start := time.Now()

	// 1. Scan content files
	files, stats, err := b.scanner.scan(b.cfg.Content)
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	b.log.Info("scanned content",
		zap.Int("files", stats.FilesScanned),
		zap.Int("skipped", stats.FilesSkipped))

	if err := b.sess.Reset(); err != nil {
		return nil, err
	}
	b.stats.reset()
	b.scanStats = stats
	b.warnings = make(map[string][]report.Warning)
	b.compiled = make(map[string]CompiledFile)
	b.failed = make(map[string]bool)

	// 2. Read every file
	sources, errs := b.read(ctx, files)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 3. Register prepared components before anything is compiled
	scan := b.sess.Compiler(b.sess.NewEngine())
	for i, src := range sources {
		if src == nil || src.kind != KindScript {
			continue
		}
		if err := scan.Scan(ctx, src.data, src.path); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("scan %s: %w", src.path, err))
			b.failed[src.path] = true
			sources[i] = nil
		}
	}

	// 4. Process files concurrently, each into its own engine
	results := make([]fileResult, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.Concurrency)
	for i, src := range sources {
		if src == nil {
			continue
		}
		g.Go(func() error {
			results[i] = b.process(gctx, src)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// 5. Merge in file order so the stylesheet is deterministic
	engine := b.sess.Engine()
	for i, res := range results {
		src := sources[i]
		if src == nil {
			continue
		}
		if res.err != nil {
			errs = multierr.Append(errs, res.err)
			b.failed[src.path] = true
			continue
		}
		engine.Merge(res.engine)
		errs = multierr.Append(errs, b.record(src.path, res))
	}

	result, err := b.emit()
	if err != nil {
		return nil, err
	}
	result.Duration = time.Since(start)
	b.log.Info("build finished",
		zap.Int("rules", result.Rules),
		zap.Int("outputs", len(result.Outputs)),
		zap.Int("warnings", len(result.Warnings)),
		zap.Int("failed", result.Failed),
		zap.Duration("duration", result.Duration))
	return result, errs
}

// read loads files concurrently. Unreadable files leave a nil entry.
func (b *Builder) read(ctx context.Context, files []string) ([]*source, error) {
	sources := make([]*source, len(files))
	errs := make([]error, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.Concurrency)
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				errs[i] = fmt.Errorf("read %s: %w", path, err)
				return nil
			}
			sources[i] = &source{path: path, data: data, kind: KindOf(path)}
			return nil
		})
	}
	_ = g.Wait()
	for i, err := range errs {
		if err != nil {
			b.failed[files[i]] = true
		}
	}
	return sources, multierr.Combine(errs...)
}

// process writes one file into a private engine.
func (b *Builder) process(ctx context.Context, src *source) fileResult {
	engine := b.sess.NewEngine()
	res := fileResult{engine: engine}

	if src.kind == KindScript {
		out, err := b.sess.Compiler(engine).Compile(ctx, src.data, src.path)
		if err != nil {
			res.err = err
			return res
		}
		res.warnings = out.Warnings
		res.compiled = &CompiledFile{
			Source:           src.path,
			NeedsRuntime:     out.NeedsRuntime,
			ReplacedElements: out.ReplacedElements,
		}
		if b.outDir != "" {
			res.code = []byte(out.Code)
		}
		return res
	}

	renderer := b.sess.Renderer(engine)
	out, err := renderer.RenderClassNames(ctx, b.sess.Parser(), string(src.data), src.path)
	renderer.Flush(src.path)
	if err != nil {
		res.err = fmt.Errorf("parse %s: %w", src.path, err)
		return res
	}
	res.warnings = out.Warnings
	if b.outDir != "" {
		res.code = src.data
		if m := b.sess.Mapper(); m != nil {
			res.code = []byte(b.sess.Parser().RewriteClassNameTokensWithMap(string(src.data), m.Get))
		}
	}
	return res
}

// record keeps the per-file outcome and writes the compile output.
func (b *Builder) record(path string, res fileResult) error {
	b.warnings[path] = res.warnings
	delete(b.failed, path)
	if res.compiled == nil && res.code == nil {
		return nil
	}

	file := CompiledFile{Source: path}
	if res.compiled != nil {
		file = *res.compiled
	}
	if res.code != nil {
		target, err := b.target(path)
		if err != nil {
			return err
		}
		if err := writeFile(target, res.code); err != nil {
			return fmt.Errorf("write %s: %w", target, err)
		}
		file.Output = target
	}
	b.compiled[path] = file
	return nil
}

// target maps a content file into the compile output directory.
func (b *Builder) target(path string) (string, error) {
	rel, err := filepath.Rel(b.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%s is outside the root %s", path, b.root)
	}
	return filepath.Join(b.outDir, rel), nil
}

// emit partitions the stylesheet and writes every output.
func (b *Builder) emit() (*BuildResult, error) {
	engine := b.sess.Engine()

	nodes, boundaryWarnings, err := boundary.Discover(b.root, b.cfg.Ignore)
	if err != nil {
		return nil, fmt.Errorf("boundary discovery failed: %w", err)
	}
	part := boundary.Partition(engine.State(), nodes, b.cfg.Criticality, b.output)

	for _, out := range part.Outputs {
		text := out.Text
		if text != "" && !strings.HasSuffix(text, "\n") {
			text += "\n"
		}
		if err := writeFile(out.Path, []byte(text)); err != nil {
			return nil, fmt.Errorf("write %s: %w", out.Path, err)
		}
	}

	result := &BuildResult{
		ScanStats:  b.scanStats,
		Rules:      engine.Len(),
		Boundaries: len(nodes),
		Outputs:    part.Outputs,
		Stats:      b.stats.snapshot(),
		Failed:     len(b.failed),
	}
	for _, ws := range b.warnings {
		result.Warnings = append(result.Warnings, ws...)
	}
	result.Warnings = append(result.Warnings, boundaryWarnings...)
	report.SortWarnings(result.Warnings)

	for _, file := range b.compiled {
		result.Compiled = append(result.Compiled, file)
	}
	sort.Slice(result.Compiled, func(i, j int) bool {
		return result.Compiled[i].Source < result.Compiled[j].Source
	})

	if m := b.sess.Mapper(); m != nil {
		result.ClassNames = m.Mapping()
	}
	return result, nil
}

// Rebuild reprocesses changed files against the current stylesheet. Each file
// is removed from the engine and written again; when that fails the engine
// is rolled back and the previous rules stay. Changes to prepared component
// definitions or to the tokens file fall back to a full Build. Added or
// removed boundary markers only repartition the output.
func (b *Builder) Rebuild(ctx context.Context, changed []string) (*BuildResult, error) {
	start := time.Now()
	engine := b.sess.Engine()
	prepared := b.sess.Prepared()

	var errs error
	for _, path := range changed {
		path = resolve(b.root, path)

		if path == b.tokens {
			b.log.Info("tokens changed, rebuilding", zap.String("path", path))
			nb, err := NewBuilder(b.cfg, b.log)
			if err != nil {
				return nil, err
			}
			*b = *nb
			return b.Build(ctx)
		}
		if b.isMarker(path) {
			// emit discovers boundaries again
			b.log.Debug("boundary marker changed", zap.String("path", path))
			continue
		}
		if !b.isContent(path) || b.scanner.shouldSkip(path) {
			continue
		}

		data, err := os.ReadFile(path)
		removed := errors.Is(err, fs.ErrNotExist)
		if err != nil && !removed {
			errs = multierr.Append(errs, fmt.Errorf("read %s: %w", path, err))
			b.failed[path] = true
			continue
		}

		if KindOf(path) == KindScript {
			defined := len(b.definedIn(path)) > 0
			prepared.Forget(path)
			if !removed {
				if err := b.sess.Compiler(b.sess.NewEngine()).Scan(ctx, data, path); err != nil {
					errs = multierr.Append(errs, fmt.Errorf("scan %s: %w", path, err))
					b.failed[path] = true
					continue
				}
			}
			if defined || len(b.definedIn(path)) > 0 {
				b.log.Info("prepared components changed, rebuilding", zap.String("path", path))
				return b.Build(ctx)
			}
		}

		snap := engine.Snapshot()
		engine.RemoveSource(path)
		if removed {
			b.forget(path)
			continue
		}

		res := b.process(ctx, &source{path: path, data: data, kind: KindOf(path)})
		if res.err != nil {
			engine.Restore(snap)
			errs = multierr.Append(errs, res.err)
			b.failed[path] = true
			continue
		}
		engine.Merge(res.engine)
		errs = multierr.Append(errs, b.record(path, res))
		b.log.Debug("rebuilt", zap.String("path", path))
	}

	result, err := b.emit()
	if err != nil {
		return nil, err
	}
	result.Duration = time.Since(start)
	return result, errs
}

// isContent reports whether path matches a content pattern.
func (b *Builder) isContent(path string) bool {
	for _, pattern := range b.cfg.Content {
		full := resolve(b.root, pattern)
		if ok, _ := doublestar.PathMatch(full, path); ok {
			return true
		}
	}
	return false
}

// isMarker reports whether path is a boundary marker under the root.
func (b *Builder) isMarker(path string) bool {
	rel, err := filepath.Rel(b.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	ok, _ := doublestar.Match(boundary.MarkerPattern, filepath.ToSlash(rel))
	return ok
}

// definedIn returns the prepared components source defines.
func (b *Builder) definedIn(source string) []string {
	prepared := b.sess.Prepared()
	var names []string
	for _, name := range prepared.Names() {
		if def, ok := prepared.Lookup(name); ok && def.Source == source {
			names = append(names, name)
		}
	}
	return names
}

// forget drops a deleted file and its compile output.
func (b *Builder) forget(path string) {
	delete(b.warnings, path)
	delete(b.failed, path)
	if file, ok := b.compiled[path]; ok && file.Output != "" {
		if err := os.Remove(file.Output); err != nil && !errors.Is(err, fs.ErrNotExist) {
			b.log.Warn("failed to remove compile output", zap.String("path", file.Output), zap.Error(err))
		}
	}
	delete(b.compiled, path)
}

// writeFile creates parent directories and skips identical content, so
// unchanged outputs keep their modification time.
func writeFile(path string, data []byte) error {
	if existing, err := os.ReadFile(path); err == nil && bytes.Equal(existing, data) {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
