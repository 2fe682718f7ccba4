package css

import (
	"sort"
	"strconv"
	"strings"

	"github.com/tdewolff/parse/v2"
	csslex "github.com/tdewolff/parse/v2/css"
)

// Ordering groups for queried rules
const (
	groupMaxOnly = iota
	groupRange
	groupMinOnly
	groupOtherMedia
	groupOther
)

type atKey struct {
	group     int
	primary   float64
	secondary float64
	index     int
}

// SortAtRules orders queried rules by (group, primary, secondary, index):
// max-width only, min+max ranges, min-width only, other media, other at-rules.
func SortAtRules(rules []Entry) {
	keys := make(map[string]atKey, len(rules))
	for _, r := range rules {
		keys[r.Text] = classifyQuery(r.Query, r.Index)
	}
	sort.SliceStable(rules, func(i, j int) bool {
		a, b := keys[rules[i].Text], keys[rules[j].Text]
		if a.group != b.group {
			return a.group < b.group
		}
		if a.primary != b.primary {
			return a.primary < b.primary
		}
		if a.secondary != b.secondary {
			return a.secondary < b.secondary
		}
		return a.index < b.index
	})
}

func classifyQuery(query string, index int) atKey {
	key := atKey{group: groupOther, index: index}
	b := ReadMediaBounds(query)
	if !b.Media {
		return key
	}
	switch {
	case b.HasMax && !b.HasMin:
		key.group = groupMaxOnly
		key.primary = -b.Max
	case b.HasMin && b.HasMax:
		key.group = groupRange
		key.primary = b.Min
		key.secondary = b.Max
	case b.HasMin:
		key.group = groupMinOnly
		key.primary = b.Min
	default:
		key.group = groupOtherMedia
	}
	return key
}

// MediaBounds is the width range of a media query
type MediaBounds struct {
	Media  bool
	Min    float64
	Max    float64
	HasMin bool
	HasMax bool
}

// ReadMediaBounds lexes an at-rule prelude and extracts min-width and
// max-width features. em/rem lengths are converted at 16px.
func ReadMediaBounds(query string) MediaBounds {
	var b MediaBounds
	lexer := csslex.NewLexer(parse.NewInputString(query))

	feature := ""
	first := true
	for {
		tt, text := lexer.Next()
		if tt == csslex.ErrorToken {
			break
		}
		if tt == csslex.WhitespaceToken || tt == csslex.CommentToken {
			continue
		}
		if first {
			first = false
			if tt != csslex.AtKeywordToken || !strings.EqualFold(string(text), "@media") {
				return b
			}
			b.Media = true
			continue
		}

		switch tt {
		case csslex.IdentToken:
			feature = strings.ToLower(string(text))
		case csslex.ColonToken:
			// feature name stays pending until its value
		case csslex.DimensionToken, csslex.NumberToken:
			px, ok := toPixels(string(text))
			if ok {
				switch feature {
				case "min-width":
					b.Min, b.HasMin = px, true
				case "max-width":
					b.Max, b.HasMax = px, true
				}
			}
			feature = ""
		default:
			feature = ""
		}
	}
	return b
}

func toPixels(dim string) (float64, bool) {
	dim = strings.ToLower(dim)
	unit := strings.TrimLeft(dim, "+-0123456789.")
	num := strings.TrimSuffix(dim, unit)
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, false
	}
	switch unit {
	case "", "px":
		return v, true
	case "em", "rem":
		return v * 16, true
	default:
		return 0, false
	}
}
