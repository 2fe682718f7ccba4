// Package tokens loads design token files and exposes them as CSS custom
// properties on the stylesheet root.
//
// A tokens file is a nested table whose leaves are values:
//
//	[color]
//	white = "#fff"
//	[space]
//	md = "16px"
//
// Each leaf becomes "--color-white: #fff" and is referenced from source as
// $$.token.color.white.
package tokens

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/yacobolo/bosscss/internal/css"
	"github.com/yacobolo/bosscss/internal/dictionary"
)

// ErrUnsupportedFormat is returned for token files that are neither TOML
// nor YAML.
var ErrUnsupportedFormat = errors.New("unsupported tokens format")

// Token is one flattened leaf.
type Token struct {
	Path  []string
	Value string
}

// Set is an immutable collection of tokens.
type Set struct {
	tokens []Token
	known  map[string]bool
}

// Load reads a tokens file, choosing the decoder by extension.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tokens %s: %w", path, err)
	}
	set, err := Parse(data, strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return nil, fmt.Errorf("tokens %s: %w", path, err)
	}
	return set, nil
}

// Parse decodes data in format ("toml", "yaml" or "yml").
func Parse(data []byte, format string) (*Set, error) {
	raw := make(map[string]any)
	switch format {
	case "toml":
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("decode toml: %w", err)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("%q: %w", format, ErrUnsupportedFormat)
	}

	s := &Set{known: make(map[string]bool)}
	if err := s.flatten(nil, raw); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Set) flatten(path []string, m map[string]any) error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		p := append(append([]string(nil), path...), k)
		switch v := m[k].(type) {
		case map[string]any:
			if err := s.flatten(p, v); err != nil {
				return err
			}
		case string:
			s.add(p, v)
		case int:
			s.add(p, strconv.Itoa(v))
		case int64:
			s.add(p, strconv.FormatInt(v, 10))
		case float64:
			s.add(p, strconv.FormatFloat(v, 'f', -1, 64))
		case bool:
			s.add(p, strconv.FormatBool(v))
		default:
			return fmt.Errorf("token %s: unsupported value %T", strings.Join(p, "."), v)
		}
	}
	return nil
}

func (s *Set) add(path []string, value string) {
	s.tokens = append(s.tokens, Token{Path: path, Value: value})
	s.known[strings.Join(path, ".")] = true
}

// Tokens returns the flattened tokens in path order.
func (s *Set) Tokens() []Token {
	if s == nil {
		return nil
	}
	return s.tokens
}

// Len returns the number of tokens.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.tokens)
}

// Known reports whether path names a token. A nil set knows every path,
// so references are only validated when a tokens file is configured.
func (s *Set) Known(path []string) bool {
	if s == nil {
		return true
	}
	return s.known[strings.Join(path, ".")]
}

// Apply writes every token as a root custom property.
func (s *Set) Apply(engine *css.Engine, prefix, source string) {
	for _, t := range s.Tokens() {
		engine.AddRoot(dictionary.TokenName(prefix, t.Path)+": "+t.Value, source)
	}
}
