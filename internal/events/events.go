// Package events defines the plugin events fired while parsing and
// compiling, and the bus that dispatches them.
package events

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/yacobolo/bosscss/internal/proptree"
)

// Name identifies an event kind.
type Name string

const (
	OnPropTree    Name = "onPropTree"
	OnProp        Name = "onProp"
	OnParse       Name = "onParse"
	OnCompileProp Name = "onCompileProp"
)

// Event is implemented by PropTreeEvent, PropEvent, ParseEvent and
// CompilePropEvent only.
type Event interface {
	Name() Name
	isEvent()
}

// PropTreeEvent fires once per extracted prop tree.
type PropTreeEvent struct {
	Source string
	Tree   *proptree.Tree
	Tag    string // output element, empty for className and marker trees
	Input  string // "jsx", "classname" or "marker"
}

// PropEvent fires for every property written to the stylesheet.
type PropEvent struct {
	Source    string
	Property  string
	Prop      *proptree.Prop
	Contexts  []string
	ClassName string // empty when the property was inlined
	Variable  string // custom property name for dynamic values, optional
	Query     string // optional
}

// ParseEvent fires once per parsed source file or text.
type ParseEvent struct {
	Source  string
	Content string
	Tokens  int // recognized className tokens
}

// CompilePropEvent fires when the compiler lowers a prop into output code.
type CompilePropEvent struct {
	Source   string
	Property string
	Prop     *proptree.Prop
	Inline   bool   // written to the style attribute
	Output   string // emitted JS, optional
}

func (PropTreeEvent) Name() Name    { return OnPropTree }
func (PropEvent) Name() Name        { return OnProp }
func (ParseEvent) Name() Name       { return OnParse }
func (CompilePropEvent) Name() Name { return OnCompileProp }

func (PropTreeEvent) isEvent()    {}
func (PropEvent) isEvent()        {}
func (ParseEvent) isEvent()       {}
func (CompilePropEvent) isEvent() {}

// Describe returns a one-line summary for logs.
func Describe(e Event) string {
	switch ev := e.(type) {
	case PropTreeEvent:
		return fmt.Sprintf("%s %s: %d props", ev.Name(), ev.Source, ev.Tree.Len())
	case PropEvent:
		return fmt.Sprintf("%s %s: %s", ev.Name(), ev.Source, ev.Property)
	case ParseEvent:
		return fmt.Sprintf("%s %s: %d tokens", ev.Name(), ev.Source, ev.Tokens)
	case CompilePropEvent:
		return fmt.Sprintf("%s %s: %s", ev.Name(), ev.Source, ev.Property)
	default:
		panic(fmt.Sprintf("events: unknown event %T", e))
	}
}

// Handler receives an event.
type Handler func(ctx context.Context, e Event) error

// Filter selects the plugins a trigger is delivered to.
type Filter func(plugin string) bool

type subscription struct {
	plugin  string
	handler Handler
}

// Bus dispatches events to subscribed plugins in subscription order.
type Bus struct {
	mu   sync.RWMutex
	subs map[Name][]subscription
	log  *zap.Logger
}

// NewBus creates an empty bus.
func NewBus(log *zap.Logger) *Bus {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bus{
		subs: make(map[Name][]subscription),
		log:  log.Named("events"),
	}
}

// Subscribe registers handler for name on behalf of plugin.
func (b *Bus) Subscribe(plugin string, name Name, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[name] = append(b.subs[name], subscription{plugin: plugin, handler: handler})
}

// Len returns the number of handlers subscribed to name.
func (b *Bus) Len(name Name) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[name])
}

// Trigger delivers e to every subscriber accepted by test (all when nil).
// Every handler runs; their errors are combined.
func (b *Bus) Trigger(ctx context.Context, e Event, test Filter) error {
	if b == nil {
		return nil
	}
	b.mu.RLock()
	subs := append([]subscription(nil), b.subs[e.Name()]...)
	b.mu.RUnlock()

	if len(subs) == 0 {
		return nil
	}
	b.log.Debug("trigger", zap.String("event", Describe(e)), zap.Int("subscribers", len(subs)))

	var err error
	for _, s := range subs {
		if test != nil && !test(s.plugin) {
			continue
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return multierr.Append(err, ctxErr)
		}
		if herr := s.handler(ctx, e); herr != nil {
			err = multierr.Append(err, fmt.Errorf("%s %s: %w", s.plugin, e.Name(), herr))
		}
	}
	return err
}
