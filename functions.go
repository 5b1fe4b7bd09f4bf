package megawidget

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-megawidgets/pkg/coerce"
)

// Function is a helper callable from rule expressions.
type Function func(args ...any) (any, error)

// Functions is the table of helpers bound into rule expressions. Names are
// case-insensitive.
type Functions struct {
	mu    sync.RWMutex
	table map[string]Function
}

// NewFunctions returns an empty table.
func NewFunctions() *Functions {
	return &Functions{table: map[string]Function{}}
}

// StandardFunctions returns a table holding the helpers every RuleApplier
// starts from:
//
//	clamp(value, min, max)  value limited to [min, max]; ints stay ints
//	coalesce(values...)     first non-nil value, or nil
func StandardFunctions() *Functions {
	fns := NewFunctions()
	fns.table["clamp"] = clamp
	fns.table["coalesce"] = coalesce
	return fns
}

// Define adds fn under name. Redefining a name is an error.
func (f *Functions) Define(name string, fn Function) error {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return fmt.Errorf("megawidget: function name must not be empty")
	case fn == nil:
		return fmt.Errorf("megawidget: function %q is nil", name)
	}
	key := strings.ToLower(name)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.table == nil {
		f.table = map[string]Function{}
	}
	if _, exists := f.table[key]; exists {
		return fmt.Errorf("megawidget: function %q already registered", name)
	}
	f.table[key] = fn
	return nil
}

// Call runs the function defined under name.
func (f *Functions) Call(name string, args ...any) (any, error) {
	if f == nil {
		return nil, fmt.Errorf("megawidget: function %q not registered", name)
	}
	f.mu.RLock()
	fn, ok := f.table[strings.ToLower(name)]
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("megawidget: function %q not registered", name)
	}
	return fn(args...)
}

// Names lists the defined functions in lexical order.
func (f *Functions) Names() []string {
	if f == nil {
		return nil
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	names := make([]string, 0, len(f.table))
	for name := range f.table {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (f *Functions) clone() *Functions {
	if f == nil {
		return nil
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := &Functions{table: make(map[string]Function, len(f.table))}
	for name, fn := range f.table {
		out.table[name] = fn
	}
	return out
}

// bound returns a closure calling name, for engines that bind helpers as
// plain Go functions.
func (f *Functions) bound(name string) func(...any) (any, error) {
	return func(args ...any) (any, error) {
		return f.Call(name, args...)
	}
}

func clamp(args ...any) (any, error) {
	if len(args) != 3 {
		return nil, fmt.Errorf("clamp expects 3 arguments, got %d", len(args))
	}
	if lo, hi, value, ok := ints(args...); ok {
		if lo > hi {
			return nil, fmt.Errorf("clamp bounds inverted: %d > %d", lo, hi)
		}
		return min(max(value, lo), hi), nil
	}
	value, err := coerce.Float(args[0])
	if err != nil {
		return nil, fmt.Errorf("clamp value: %w", err)
	}
	lo, err := coerce.Float(args[1])
	if err != nil {
		return nil, fmt.Errorf("clamp min: %w", err)
	}
	hi, err := coerce.Float(args[2])
	if err != nil {
		return nil, fmt.Errorf("clamp max: %w", err)
	}
	if lo > hi {
		return nil, fmt.Errorf("clamp bounds inverted: %v > %v", lo, hi)
	}
	return min(max(value, lo), hi), nil
}

// ints converts value, lo and hi when all three are whole numbers.
func ints(args ...any) (lo, hi, value int, ok bool) {
	out := make([]int, len(args))
	for i, arg := range args {
		n, err := coerce.Int(arg)
		if err != nil {
			return 0, 0, 0, false
		}
		out[i] = n
	}
	return out[1], out[2], out[0], true
}

func coalesce(args ...any) (any, error) {
	for _, arg := range args {
		if arg != nil {
			return arg, nil
		}
	}
	return nil, nil
}
