package toolkit

import (
	"reflect"
	"sync"

	"github.com/actionloop/agentcore/internal/logging"
)

// Registry stores ToolDefinitions keyed by name. It serves two read views:
// ListSummaries (name+description, shown to the model) and GetDetail
// (schema+examples, fetched on demand). Registration is idempotent by name:
// a later call replaces an earlier one and logs a warning, it never errors.
//
// Thread-safety: many-reader, rare-writer. Reads take a read lock; writes
// take a write lock. No iteration order is guaranteed.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]*ToolDefinition
	log  func(msg string, args ...any)
}

// NewRegistry returns an empty, ready-to-use Registry.
func NewRegistry() *Registry {
	return &Registry{
		defs: make(map[string]*ToolDefinition),
		log:  logging.Named("toolkit").Warn,
	}
}

// Register adds or replaces a tool definition by name. A definition
// registered without a description (a common shortcut for LOCAL tools built
// straight from a Go function) gets one generated from its name and
// argument fields.
func (r *Registry) Register(def *ToolDefinition) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.defs[def.Name]; exists {
		r.log("replacing existing tool registration", "tool", def.Name)
	}
	var argType reflect.Type
	if def.LocalTarget != nil {
		argType = localTargetArgType(def.LocalTarget.Func)
	}
	if def.Detail.Description == "" {
		def.Detail.Description = DefaultDescription(def.Name, argType)
	}
	if def.Detail.RequestExample == nil && argType != nil {
		def.Detail.RequestExample = GenerateExample(argType)
	}
	r.defs[def.Name] = def
}

// localTargetArgType returns the type of fn's last non-context parameter, if
// any, for use as the argument struct DefaultDescription reflects over.
func localTargetArgType(fn any) reflect.Type {
	t := reflect.TypeOf(fn)
	if t == nil || t.Kind() != reflect.Func || t.NumIn() == 0 {
		return nil
	}
	last := t.In(t.NumIn() - 1)
	if last.String() == "context.Context" {
		return nil
	}
	return last
}

// Remove deletes a tool definition by name. It is not an error to remove a
// name that isn't registered.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.defs, name)
}

// ListSummaries returns the ToolSummary view of every registered tool, in
// no particular order.
func (r *Registry) ListSummaries() []ToolSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ToolSummary, 0, len(r.defs))
	for _, def := range r.defs {
		out = append(out, def.Summary())
	}
	return out
}

// GetDetail returns the full ToolDetail for name, or false if no such tool
// is registered.
func (r *Registry) GetDetail(name string) (ToolDetail, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.defs[name]
	if !ok {
		return ToolDetail{}, false
	}
	return def.Detail, true
}

// GetDefinition returns the full ToolDefinition for name, or false if no
// such tool is registered.
func (r *Registry) GetDefinition(name string) (*ToolDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.defs[name]
	return def, ok
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.defs)
}
