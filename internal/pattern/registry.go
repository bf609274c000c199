package pattern

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Registry holds the ordered catalog of detectable prompt patterns.
// Scans apply patterns in registration order so policy evaluation sees a
// deterministic ordering when multiple patterns fire in the same scan.
type Registry struct {
	mu      sync.RWMutex
	ordered []*Pattern
	byID    map[string]*Pattern
	trace   *slog.Logger
}

// NewRegistry creates an empty pattern registry.
func NewRegistry() *Registry {
	return &Registry{
		byID: make(map[string]*Pattern),
	}
}

// SetTrace installs a diagnostic logger that records every trigger check and
// match at debug level. Tracing never affects matching semantics.
func (r *Registry) SetTrace(log *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trace = log
}

// Add registers a pattern. It fails if the ID is already registered or the
// pattern definition is invalid; a duplicate ID is never a silent overwrite.
func (r *Registry) Add(p Pattern) error {
	if err := p.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[p.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateID, p.ID)
	}
	stored := p
	r.ordered = append(r.ordered, &stored)
	r.byID[p.ID] = &stored
	return nil
}

// Remove deletes a pattern by ID. Removing an absent ID is a no-op.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[id]; !exists {
		return
	}
	delete(r.byID, id)
	for i, p := range r.ordered {
		if p.ID == id {
			r.ordered = append(r.ordered[:i], r.ordered[i+1:]...)
			break
		}
	}
}

// Has reports whether a pattern with the given ID is registered.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byID[id]
	return ok
}

// IDs returns the registered pattern IDs in registration order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.ordered))
	for _, p := range r.ordered {
		ids = append(ids, p.ID)
	}
	return ids
}

// Patterns returns copies of the registered patterns in registration order.
func (r *Registry) Patterns() []Pattern {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Pattern, 0, len(r.ordered))
	for _, p := range r.ordered {
		out = append(out, *p)
	}
	return out
}

// Triggered reports whether the text contains any pattern's trigger
// substring, compared case-insensitively. Patterns without a trigger always
// count as hit. This is the cheap phase-1 scan run against raw output chunks.
func (r *Registry) Triggered(text string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lower := strings.ToLower(text)
	for _, p := range r.ordered {
		if p.triggerLower == "" || strings.Contains(lower, p.triggerLower) {
			if r.trace != nil {
				r.trace.Debug("trigger hit", "pattern", p.ID)
			}
			return true
		}
	}
	return false
}

// Scan applies every pattern whose category matches the filter (or all, when
// filter is empty) against the rendered screen text. Each pattern's trigger
// substring is checked case-insensitively before its regex executes. All
// non-overlapping regex occurrences are collected per pattern, in
// registration order.
func (r *Registry) Scan(text string, filter Category) []MatchResult {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lower := strings.ToLower(text)
	var results []MatchResult
	for _, p := range r.ordered {
		if filter != "" && p.Category != filter {
			continue
		}
		if p.triggerLower != "" && !strings.Contains(lower, p.triggerLower) {
			if r.trace != nil {
				r.trace.Debug("trigger miss", "pattern", p.ID)
			}
			continue
		}
		matches := p.re.FindAllStringSubmatch(text, -1)
		if matches == nil {
			if r.trace != nil {
				r.trace.Debug("regex miss", "pattern", p.ID)
			}
			continue
		}
		names := p.re.SubexpNames()
		for _, m := range matches {
			captures := make(map[string]string)
			for i, name := range names {
				if i == 0 || name == "" || i >= len(m) {
					continue
				}
				captures[name] = m[i]
			}
			result := MatchResult{
				PatternID:   p.ID,
				Kind:        p.Kind,
				MatchedText: m[0],
				Captures:    captures,
				Response:    p.Response.Resolve(captures),
				Notify:      p.Notify,
				OnceOnly:    p.OnceOnly,
			}
			if r.trace != nil {
				r.trace.Debug("pattern matched", "pattern", p.ID, "text", m[0])
			}
			results = append(results, result)
		}
	}
	return results
}
