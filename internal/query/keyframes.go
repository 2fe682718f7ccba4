package query

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Step is one keyframe selector with its declarations.
type Step struct {
	Key          string
	Declarations []string
}

var percentStep = regexp.MustCompile(`^\d{1,3}(\.\d+)?%?$`)

// IsStep reports whether key is a keyframe selector: from, to or a percentage.
func IsStep(key string) bool {
	return key == "from" || key == "to" || percentStep.MatchString(key)
}

// NormalizeStep appends "%" to bare numeric step keys.
func NormalizeStep(key string) string {
	if key == "from" || key == "to" || strings.HasSuffix(key, "%") {
		return key
	}
	return key + "%"
}

// KeyframesName returns the namespace suffix when present, otherwise a
// content hash of "prefix|context-path".
func KeyframesName(suffix, prefix string, path []string) string {
	if suffix != "" {
		return suffix
	}
	h := xxhash.Sum64String(prefix + "|" + strings.Join(path, ":"))
	return "kf-" + strconv.FormatUint(h, 36)
}

// RenderKeyframes renders "@keyframes name { step { decl; decl } ... }".
func RenderKeyframes(name string, steps []Step) string {
	var b strings.Builder
	b.WriteString("@keyframes ")
	b.WriteString(name)
	b.WriteString(" {")
	for _, s := range steps {
		if len(s.Declarations) == 0 {
			continue
		}
		b.WriteString(" ")
		b.WriteString(NormalizeStep(s.Key))
		b.WriteString(" { ")
		b.WriteString(strings.Join(s.Declarations, "; "))
		b.WriteString(" }")
	}
	b.WriteString(" }")
	return b.String()
}

// KeyframesQuery is the query under which keyframes blocks are stored, so
// they sort with the other non-media at-rules.
func KeyframesQuery(name string) string {
	return "@keyframes " + name
}
