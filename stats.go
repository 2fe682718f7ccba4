package bosscss

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/yacobolo/bosscss/internal/dictionary"
	"github.com/yacobolo/bosscss/internal/events"
)

// Stats summarizes the properties a build wrote.
type Stats struct {
	Properties  int                              `json:"properties"`   // distinct CSS properties
	Inlined     int                              `json:"inlined"`      // props kept in style attributes
	Classes     int                              `json:"classes"`      // props written as rules
	TokenValues int                              `json:"token_values"` // distinct properties using a custom property
	Categories  map[dictionary.Category][]string `json:"categories"`   // property names per category
}

// statsCollector listens to prop events. Handlers run on every worker, so
// it locks.
type statsCollector struct {
	mu      sync.Mutex
	props   map[string]string
	inlined int
	classes int
}

func newStatsCollector(bus *events.Bus) *statsCollector {
	c := &statsCollector{props: make(map[string]string)}
	bus.Subscribe("stats", events.OnProp, c.onProp)
	return c
}

func (c *statsCollector) onProp(_ context.Context, e events.Event) error {
	ev, ok := e.(events.PropEvent)
	if !ok {
		return nil
	}
	value := ev.Variable
	if ev.Prop != nil {
		if s, ok := ev.Prop.String(); ok {
			value = s
		} else if ev.Prop.Code != "" {
			value = ev.Prop.Code
		}
	}
	if path, ok := strings.CutPrefix(value, dictionary.TokenMarker); ok {
		value = dictionary.TokenVar("", strings.Split(path, "."))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, seen := c.props[ev.Property]; !seen || value != "" {
		c.props[ev.Property] = value
	}
	if ev.ClassName == "" {
		c.inlined++
	} else {
		c.classes++
	}
	return nil
}

func (c *statsCollector) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.props = make(map[string]string)
	c.inlined = 0
	c.classes = 0
}

func (c *statsCollector) snapshot() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Properties: len(c.props),
		Inlined:    c.inlined,
		Classes:    c.classes,
		Categories: make(map[dictionary.Category][]string),
	}
	for cat, props := range dictionary.Categorize(c.props) {
		for _, p := range props {
			s.Categories[cat] = append(s.Categories[cat], p.Name)
			if p.IsToken {
				s.TokenValues++
			}
		}
	}
	return s
}

// SortedCategories returns the categories with at least one property.
func (s Stats) SortedCategories() []dictionary.Category {
	out := make([]dictionary.Category, 0, len(s.Categories))
	for cat := range s.Categories {
		out = append(out, cat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
