package filter

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/s0up4200/gyazo/gyazo"
)

// Manager holds the named filter presets and resolves command-line
// filter arguments against them
type Manager struct {
	compiler  Compiler
	evaluator *Evaluator
	filters   map[string]CompiledFilter
	mu        sync.RWMutex
}

// ManagerOption configures a filter manager
type ManagerOption func(*Manager)

// WithCompiler sets a custom compiler
func WithCompiler(compiler Compiler) ManagerOption {
	return func(m *Manager) {
		m.compiler = compiler
	}
}

// WithEvaluator sets a custom evaluator
func WithEvaluator(evaluator *Evaluator) ManagerOption {
	return func(m *Manager) {
		m.evaluator = evaluator
	}
}

// NewManager creates a filter manager and compiles every preset.
// Preset names are case-insensitive.
func NewManager(presets map[string]string, opts ...ManagerOption) (*Manager, error) {
	m := &Manager{
		compiler:  NewExprCompiler(WithCache(100)),
		evaluator: NewEvaluator(),
		filters:   make(map[string]CompiledFilter, len(presets)),
	}

	for _, opt := range opts {
		opt(m)
	}

	if err := m.RegisterFilters(presets); err != nil {
		return nil, err
	}

	return m, nil
}

// RegisterFilter registers a new filter or updates an existing one
func (m *Manager) RegisterFilter(name, expression string) error {
	filter, err := m.compiler.Compile(expression)
	if err != nil {
		return fmt.Errorf("failed to compile filter '%s': %w", name, err)
	}

	m.mu.Lock()
	m.filters[strings.ToLower(name)] = filter
	m.mu.Unlock()

	return nil
}

// RegisterFilters registers multiple filters at once. Nothing is
// registered if any expression fails to compile.
func (m *Manager) RegisterFilters(filters map[string]string) error {
	compiled := make(map[string]CompiledFilter, len(filters))

	for name, expr := range filters {
		filter, err := m.compiler.Compile(expr)
		if err != nil {
			return fmt.Errorf("failed to compile filter '%s': %w", name, err)
		}
		compiled[strings.ToLower(name)] = filter
	}

	m.mu.Lock()
	for name, filter := range compiled {
		m.filters[name] = filter
	}
	m.mu.Unlock()

	return nil
}

// GetFilter returns a compiled filter by name
func (m *Manager) GetFilter(name string) (CompiledFilter, bool) {
	m.mu.RLock()
	filter, exists := m.filters[strings.ToLower(name)]
	m.mu.RUnlock()
	return filter, exists
}

// ListFilters returns all registered filter names, sorted
func (m *Manager) ListFilters() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.filters))
	for name := range m.filters {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Resolve picks the filter for a command. An inline expression wins over
// a preset; both empty yields a nil filter.
func (m *Manager) Resolve(expression, preset string) (CompiledFilter, error) {
	if strings.TrimSpace(expression) != "" {
		return m.compiler.Compile(expression)
	}

	if preset == "" {
		return nil, nil
	}

	filter, ok := m.GetFilter(preset)
	if !ok {
		return nil, fmt.Errorf("filter preset '%s' not found", preset)
	}
	return filter, nil
}

// Select returns the images matched by filter. A nil filter matches all.
func (m *Manager) Select(ctx context.Context, filter Filter, images []gyazo.Image) ([]gyazo.Image, error) {
	if filter == nil {
		return images, nil
	}
	return m.evaluator.Evaluate(ctx, filter, images)
}
