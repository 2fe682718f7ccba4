package bosscss

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/yacobolo/bosscss/internal/compiler"
	"github.com/yacobolo/bosscss/internal/report"
	"github.com/yacobolo/bosscss/internal/session"
)

func newSession(cfg Config, log *zap.Logger) (*session.Session, error) {
	cfg = cfg.withDefaults()
	scfg, err := cfg.sessionConfig()
	if err != nil {
		return nil, err
	}
	return session.New(scfg, log)
}

// CompileSource compiles one source on its own and returns the compiled code
// together with the CSS it produced. Prepared components defined in src are
// inlined; definitions from other files are unknown.
func CompileSource(ctx context.Context, cfg Config, src []byte, path string, log *zap.Logger) (compiler.Result, string, error) {
	sess, err := newSession(cfg, log)
	if err != nil {
		return compiler.Result{}, "", err
	}

	c := sess.Compiler(sess.Engine())
	if err := c.Scan(ctx, src, path); err != nil {
		return compiler.Result{}, "", fmt.Errorf("scan %s: %w", path, err)
	}
	res, err := c.Compile(ctx, src, path)
	if err != nil {
		return compiler.Result{}, "", err
	}
	return res, sess.Engine().Text(), nil
}

// ParseClassNames returns the CSS for the className tokens found in text.
func ParseClassNames(ctx context.Context, cfg Config, text string, log *zap.Logger) (string, []report.Warning, error) {
	sess, err := newSession(cfg, log)
	if err != nil {
		return "", nil, err
	}

	renderer := sess.Renderer(sess.Engine())
	out, err := renderer.RenderClassNames(ctx, sess.Parser(), text, "<input>")
	if err != nil {
		return "", out.Warnings, err
	}
	renderer.Flush("<input>")
	return sess.Engine().Text(), out.Warnings, nil
}
