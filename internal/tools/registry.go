package tools

import (
	"sort"
	"sync"

	"finsight/pkg/errors"
)

// Tool names used by the workflows
const (
	PortfolioAllocationTool = "portfolio_allocation"
	AssetTrendTool          = "asset_trend"
	MacroIndicatorsTool     = "macro_indicators"
	MarketVolatilityTool    = "market_volatility"
	NewsSearchTool          = "semantic_news_search"
	SentimentAggregateTool  = "sentiment_aggregate"
	SynthesisTool           = "portfolio_diagnosis"
)

// Registry stores tools by name for discovery and lookup.
type Registry struct {
	tools map[string]Tool
	mu    sync.RWMutex
}

// NewRegistry constructs an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register adds or replaces a tool under its own name.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name()] = t
}

// Get retrieves a tool by name if registered.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// MustGet returns a registered tool or ErrNotFound
func (r *Registry) MustGet(name string) (Tool, error) {
	t, ok := r.Get(name)
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "tool %s is not registered", name)
	}
	return t, nil
}

// Wrap replaces every registered tool with wrap(tool)
func (r *Registry) Wrap(wrap func(Tool) Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, t := range r.tools {
		r.tools[name] = wrap(t)
	}
}

// List returns the names of all registered tools, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}
