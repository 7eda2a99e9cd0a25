package crochetschema

import (
	"sort"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// FormatFunc reports whether a string satisfies a named format.
type FormatFunc func(s string) bool

var (
	formatsLock sync.RWMutex
	formats     = builtinFormats()
)

// builtinFormats seeds the registry with the predicates of the
// jsonschema package, which follow RFC 3339 for date and time
// (leap seconds included) and RFC 3986 for uri.
func builtinFormats() map[string]FormatFunc {
	m := make(map[string]FormatFunc, len(jsonschema.Formats))
	for name, f := range jsonschema.Formats {
		m[name] = wrapFormat(f)
	}
	return m
}

func wrapFormat(f func(interface{}) bool) FormatFunc {
	return FormatFunc(func(s string) bool { return f(s) })
}

// RegisterFormat adds or replaces a format predicate. Schemas compiled
// before the call keep the predicate they were compiled with.
func RegisterFormat(name string, fn FormatFunc) {
	formatsLock.Lock()
	defer formatsLock.Unlock()
	if fn == nil {
		delete(formats, name)
		return
	}
	formats[name] = fn
}

func LookupFormat(name string) (FormatFunc, bool) {
	formatsLock.RLock()
	defer formatsLock.RUnlock()
	fn, ok := formats[name]
	return fn, ok
}

func FormatNames() []string {
	formatsLock.RLock()
	defer formatsLock.RUnlock()
	names := make([]string, 0, len(formats))
	for name := range formats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
