// Package classmap shortens selector tokens into compact class names.
package classmap

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/cespare/xxhash/v2"
)

var (
	// ErrUnknownStrategy is returned by New for unsupported strategy names.
	ErrUnknownStrategy = errors.New("unknown className strategy")
	// ErrSerialStrategy is returned when a strategy whose output depends on
	// call order is combined with concurrent file processing.
	ErrSerialStrategy = errors.New("className strategy requires serial processing")
)

// Strategy names
const (
	Hash       = "hash"
	Shortest   = "shortest"
	Sequential = "sequential"
)

// Mapper assigns a class name to every token, get-or-create. The same token
// always maps to the same name for the lifetime of the mapper.
type Mapper interface {
	Get(token string) string
	// RequiresSerial reports whether names depend on the order of Get calls.
	RequiresSerial() bool
	// Mapping returns a copy of every assignment made so far.
	Mapping() map[string]string
}

// New creates the mapper for strategy. prefix is prepended to every name.
func New(strategy, prefix string) (Mapper, error) {
	switch strategy {
	case Hash:
		return newTable(prefix, false, hashName), nil
	case Shortest:
		return newTable(prefix, true, func(_ string, n int) string { return shortName(n) }), nil
	case Sequential:
		return newTable(prefix, true, func(_ string, n int) string { return "c" + strconv.Itoa(n) }), nil
	default:
		return nil, fmt.Errorf("%q: %w", strategy, ErrUnknownStrategy)
	}
}

// CheckConcurrency fails when a serial strategy is used with more than one
// worker. A nil mapper always passes.
func CheckConcurrency(m Mapper, concurrency int) error {
	if m == nil || concurrency <= 1 || !m.RequiresSerial() {
		return nil
	}
	return fmt.Errorf("concurrency %d: %w", concurrency, ErrSerialStrategy)
}

// Tokens returns the mapped tokens in sorted order.
func Tokens(m Mapper) []string {
	mapping := m.Mapping()
	out := make([]string, 0, len(mapping))
	for tok := range mapping {
		out = append(out, tok)
	}
	sort.Strings(out)
	return out
}

type table struct {
	mu     sync.Mutex
	prefix string
	serial bool
	names  map[string]string
	taken  map[string]bool
	next   func(token string, attempt int) string
	count  int
}

func newTable(prefix string, serial bool, next func(string, int) string) *table {
	return &table{
		prefix: prefix,
		serial: serial,
		names:  make(map[string]string),
		taken:  make(map[string]bool),
		next:   next,
	}
}

func (t *table) Get(token string) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if name, ok := t.names[token]; ok {
		return name
	}

	var name string
	if t.serial {
		for {
			name = t.prefix + t.next(token, t.count)
			t.count++
			if !t.taken[name] {
				break
			}
		}
	} else {
		// hash names grow on collision
		for attempt := 0; ; attempt++ {
			name = t.prefix + t.next(token, attempt)
			if !t.taken[name] {
				break
			}
		}
	}

	t.names[token] = name
	t.taken[name] = true
	return name
}

func (t *table) RequiresSerial() bool {
	return t.serial
}

func (t *table) Mapping() map[string]string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]string, len(t.names))
	for k, v := range t.names {
		out[k] = v
	}
	return out
}

// hashName returns "b" plus the base36 xxhash of token, six characters long
// and one character longer per collision attempt.
func hashName(token string, attempt int) string {
	h := strconv.FormatUint(xxhash.Sum64String(token), 36)
	n := 6 + attempt
	if n > len(h) {
		h += strconv.Itoa(attempt)
		n = len(h)
	}
	return "b" + h[:n]
}

const (
	firstChars = "abcdefghijklmnopqrstuvwxyz"
	restChars  = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// shortName enumerates identifiers by length: a..z, aa..z9, aaa...
func shortName(n int) string {
	length := 1
	block := len(firstChars)
	for n >= block {
		n -= block
		length++
		block *= len(restChars)
	}

	out := make([]byte, length)
	for i := length - 1; i > 0; i-- {
		out[i] = restChars[n%len(restChars)]
		n /= len(restChars)
	}
	out[0] = firstChars[n]
	return string(out)
}
