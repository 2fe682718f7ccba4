// Package bosscss turns structured style props and className tokens into
// CSS, and optionally compiles JSX sources into runtime-free output.
//
// # Build
//
// Scan content files, write the stylesheet and the compiled sources:
//
//	config := bosscss.DefaultConfig()
//	config.Content = []string{"src/**/*.{tsx,html}"}
//	config.OutDir = "dist/src"
//	result, err := bosscss.Build(ctx, config, logger)
//
// Directories holding a "*.boss.css" marker file get their own stylesheet,
// written into the marker; everything else goes to config.Output.
//
// # Single sources
//
//	res, css, err := bosscss.CompileSource(ctx, config, src, "app.tsx", logger)
//	css, warnings, err := bosscss.ParseClassNames(ctx, config, "hover:color:red", logger)
//
// # CLI Tool
//
// bosscss also provides a CLI tool. Install with:
//
//	go install github.com/yacobolo/bosscss/cmd/bosscss@latest
package bosscss
