package engine

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
)

var (
	mu       sync.RWMutex
	registry = map[string]Engine{}
)

// Register validates and stores a named engine. Names are lower-cased.
// Registering the same name again overwrites the previous engine. The
// contract is checked here, before any fetch, so a broken engine fails fast
// with a *ContractError.
func Register(name string, e Engine) error {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return &ContractError{Reason: "engine name must not be empty"}
	}
	if e == nil || isNilValue(e) {
		return &ContractError{Name: name, Reason: "engine must not be nil"}
	}

	mu.Lock()
	defer mu.Unlock()
	registry[name] = e
	return nil
}

// Lookup returns the engine registered under name.
func Lookup(name string) (Engine, error) {
	mu.RLock()
	e, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("engine %q not registered: available engines=%v", name, Names())
	}
	return e, nil
}

// Names returns the sorted list of registered engine names.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// isNilValue catches typed-nil interface values, which pass a plain == nil
// check and then panic on first use.
func isNilValue(e Engine) bool {
	v := reflect.ValueOf(e)
	switch v.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
		return v.IsNil()
	default:
		return false
	}
}
