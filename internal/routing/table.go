// Package routing resolves application identifiers to Azure DevOps
// projects and area paths using a YAML routing table.
package routing

import (
	"os"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/spec-kit/support-intake/internal/domain"
)

type routesFile struct {
	Routes []domain.Route `yaml:"routes"`
}

// Table maps app_id values to routes. The table is read-mostly; Reload
// replaces the whole map under a write lock, so readers observe either the
// previous or the new table, never a partial one.
type Table struct {
	mu     sync.RWMutex
	path   string
	routes map[string]domain.Route
	logger *zap.Logger
}

// NewTable loads the routing table from the given file. A missing or
// malformed file yields an empty table rather than an error: the service
// must start even with broken routing config, it simply cannot route until
// the config is fixed and reloaded.
func NewTable(path string, logger *zap.Logger) *Table {
	t := &Table{path: path, routes: map[string]domain.Route{}, logger: logger}
	t.routes = t.load()
	return t
}

func (t *Table) load() map[string]domain.Route {
	routes := map[string]domain.Route{}

	content, err := os.ReadFile(t.path)
	if err != nil {
		t.logger.Warn("routing config not readable, using empty routing",
			zap.String("path", t.path), zap.Error(err))
		return routes
	}

	var parsed routesFile
	if err := yaml.Unmarshal(content, &parsed); err != nil {
		t.logger.Warn("routing config malformed, using empty routing",
			zap.String("path", t.path), zap.Error(err))
		return routes
	}
	if len(parsed.Routes) == 0 {
		t.logger.Warn("routing config has no routes", zap.String("path", t.path))
		return routes
	}

	for _, route := range parsed.Routes {
		if route.AppID == "" {
			continue
		}
		routes[route.AppID] = route
	}

	t.logger.Info("loaded support routes", zap.Int("count", len(routes)))
	return routes
}

// Resolve returns the route for the given app_id. Exact match only; the
// single reserved fallback key is itself resolved by this method when a
// caller asks for it explicitly.
func (t *Table) Resolve(appID string) (domain.Route, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	route, ok := t.routes[appID]
	return route, ok
}

// ResolveWithFallback looks up the app_id and falls back to the reserved
// default entry. The second return is false only when neither resolves.
func (t *Table) ResolveWithFallback(appID string) (domain.Route, bool) {
	if route, ok := t.Resolve(appID); ok {
		return route, true
	}
	return t.Resolve(domain.FallbackAppID)
}

// AppIDs returns all configured application ids, excluding reserved keys,
// in sorted order.
func (t *Table) AppIDs() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ids := make([]string, 0, len(t.routes))
	for id := range t.routes {
		if strings.HasPrefix(id, "_") {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Reload re-reads the routing file and swaps the table in one step.
// Returns the number of routes now loaded.
func (t *Table) Reload() int {
	routes := t.load()
	t.mu.Lock()
	t.routes = routes
	t.mu.Unlock()
	return len(routes)
}
