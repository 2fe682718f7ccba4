// Package session holds the state of one build: the dictionary, the shared
// engine, breakpoints, the prepared component registry, the className mapper
// and the event bus. Nothing in the module keeps package-level mutable state;
// every collaborator is reached through a Session.
package session

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/yacobolo/bosscss/internal/classmap"
	"github.com/yacobolo/bosscss/internal/classname"
	"github.com/yacobolo/bosscss/internal/compiler"
	"github.com/yacobolo/bosscss/internal/css"
	"github.com/yacobolo/bosscss/internal/dictionary"
	"github.com/yacobolo/bosscss/internal/events"
	"github.com/yacobolo/bosscss/internal/proptree"
	"github.com/yacobolo/bosscss/internal/query"
	"github.com/yacobolo/bosscss/internal/render"
	"github.com/yacobolo/bosscss/internal/tokens"
)

// Config configures a session.
type Config struct {
	Prefix            string                  // custom property and class name prefix
	Unit              string                  // unit for unitless numbers, "px" when empty
	Strategy          render.Strategy         // inline-first when empty
	ClassNameStrategy string                  // "", hash, shortest or sequential
	Breakpoints       map[string]query.Bounds // built-in table when nil
	TokensFile        string                  // optional tokens.toml / tokens.yaml
	Compile           compiler.Options
}

// Session owns every mutable registry of a build.
type Session struct {
	cfg Config
	log *zap.Logger

	dict      *dictionary.Default
	table     *query.Table
	resolver  *query.Resolver
	parser    *classname.Parser
	extractor *proptree.Extractor
	bus       *events.Bus
	tokens    *tokens.Set

	mu       sync.Mutex
	engine   *css.Engine
	prepared *compiler.Registry
	mapper   classmap.Mapper
}

// New creates a session. The tokens file, when configured, is loaded and its
// variables written into the shared engine.
func New(cfg Config, log *zap.Logger) (*Session, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Unit == "" {
		cfg.Unit = "px"
	}
	if cfg.Breakpoints == nil {
		cfg.Breakpoints = query.DefaultBreakpoints()
	}
	if cfg.Compile.Marker == "" {
		cfg.Compile = compiler.DefaultOptions()
	}

	s := &Session{cfg: cfg, log: log.Named("session")}
	s.dict = dictionary.New(dictionary.WithUnit(cfg.Unit), dictionary.WithPrefix(cfg.Prefix))
	s.table = query.NewTable(cfg.Breakpoints)
	s.resolver = query.NewResolver(s.dict, s.table)
	s.parser = classname.NewParser(s.dict, log)
	s.extractor = proptree.NewExtractor(s.dict, cfg.Compile.Marker, log)
	s.bus = events.NewBus(log)

	if cfg.TokensFile != "" {
		set, err := tokens.Load(cfg.TokensFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load tokens: %w", err)
		}
		s.tokens = set
	}

	if err := s.boot(); err != nil {
		return nil, err
	}
	s.log.Debug("session ready",
		zap.String("strategy", string(cfg.Strategy)),
		zap.String("classNameStrategy", cfg.ClassNameStrategy),
		zap.Int("breakpoints", len(cfg.Breakpoints)),
	)
	return s, nil
}

func (s *Session) boot() error {
	var mapper classmap.Mapper
	if s.cfg.ClassNameStrategy != "" {
		m, err := classmap.New(s.cfg.ClassNameStrategy, s.cfg.Prefix)
		if err != nil {
			return err
		}
		mapper = m
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine = css.New(s.log)
	s.prepared = compiler.NewRegistry()
	s.mapper = mapper
	if s.tokens != nil {
		s.tokens.Apply(s.engine, s.cfg.Prefix, s.cfg.TokensFile)
	}
	return nil
}

// Reset drops every rule, prepared definition and class name assignment.
// Bus subscriptions survive a reset.
func (s *Session) Reset() error {
	s.log.Debug("reset")
	return s.boot()
}

// Config returns the effective configuration.
func (s *Session) Config() Config {
	return s.cfg
}

func (s *Session) Dict() dictionary.Dictionary { return s.dict }
func (s *Session) Parser() *classname.Parser   { return s.parser }
func (s *Session) Bus() *events.Bus            { return s.bus }
func (s *Session) Resolver() *query.Resolver   { return s.resolver }
func (s *Session) Tokens() *tokens.Set         { return s.tokens }

// Engine returns the shared engine.
func (s *Session) Engine() *css.Engine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine
}

// Prepared returns the prepared component registry.
func (s *Session) Prepared() *compiler.Registry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prepared
}

// Mapper returns the className mapper, nil when no strategy is configured.
func (s *Session) Mapper() classmap.Mapper {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mapper
}

// NewEngine creates a private engine for one file. Merge it into Engine()
// when the file is done.
func (s *Session) NewEngine() *css.Engine {
	return css.New(s.log)
}

// Renderer creates a renderer writing into engine. Renderers keep pending
// keyframes, so every goroutine needs its own.
func (s *Session) Renderer(engine *css.Engine) *render.Renderer {
	opts := render.Options{
		Prefix:   s.cfg.Prefix,
		Strategy: s.cfg.Strategy,
	}
	if m := s.Mapper(); m != nil {
		opts.Mapper = m.Get
	}
	if s.tokens != nil {
		opts.KnownToken = s.tokens.Known
	}
	return render.New(engine, s.dict, s.resolver, s.bus, opts, s.log)
}

// Compiler creates a compiler writing into engine. Compilers share the
// prepared registry, so definitions scanned in one file inline in another.
func (s *Session) Compiler(engine *css.Engine) *compiler.Compiler {
	return compiler.New(compiler.Deps{
		Dict:      s.dict,
		Renderer:  s.Renderer(engine),
		Parser:    s.parser,
		Extractor: s.extractor,
		Prepared:  s.Prepared(),
		Bus:       s.bus,
	}, s.cfg.Compile, s.log)
}
