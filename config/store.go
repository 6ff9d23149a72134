/*
 * VC5 load balancer. Copyright (C) 2021-present David Coles
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation; either version 2 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License along
 * with this program; if not, write to the Free Software Foundation, Inc.,
 * 51 Franklin Street, Fifth Floor, Boston, MA 02110-1301 USA.
 */

// Package config is the persisted, hierarchical key/value store backing
// the node's out-of-core configuration: radio domain, node address,
// gateway flag, and the other settings the local HTTP UI and console
// bridge read and write. Paths are dotted ("radio.channel"); a %version
// sentinel key detects a schema change and falls back to defaults rather
// than handing the engine half-migrated data.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

const versionKey = "%version"

// Store is a hierarchical dotted-path key/value store, built from a
// defaults map and stamped with a version marker. It is safe for
// concurrent use.
type Store struct {
	mu       sync.Mutex
	data     map[string]any
	dirty    bool
	reset    bool
	defaults map[string]any
	version  any
}

// New constructs a Store seeded from defaults, tagged with version.
func New(defaults map[string]any, version any) *Store {
	s := &Store{defaults: cloneMap(defaults), version: version}
	s.ResetToDefaults()
	return s
}

// ResetToDefaults discards the store's current contents and reinitializes
// it from the defaults it was constructed with, stamping %version. The
// store is left dirty, since this state has never been saved.
func (s *Store) ResetToDefaults() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = cloneMap(s.defaults)
	s.data[versionKey] = s.version
	s.dirty = true
	s.reset = true
}

// WasReset reports whether the store's current contents came from
// ResetToDefaults rather than a successfully Loaded file.
func (s *Store) WasReset() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reset
}

// Load reads a previously-Saved store from r. A read error, a parse
// error, or a %version that doesn't match version all reset the store to
// defaults rather than propagating a failure — the same catch-everything
// fallback original_source/configdata.py takes when its JSON load raises.
func Load(r io.Reader, defaults map[string]any, version any) *Store {
	s := New(defaults, version)

	raw, err := io.ReadAll(r)
	if err != nil {
		return s
	}

	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return s
	}

	if v, ok := data[versionKey]; !ok || !versionsEqual(v, version) {
		return s
	}

	s.mu.Lock()
	s.data = data
	s.dirty = false
	s.reset = false
	s.mu.Unlock()
	return s
}

// Save writes the store to w as JSON, iff it is dirty or force is set.
// Clears the dirty flag on a successful write.
func (s *Store) Save(w io.Writer, force bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty && !force {
		return nil
	}
	if err := json.NewEncoder(w).Encode(s.data); err != nil {
		return fmt.Errorf("config: save: %w", err)
	}
	s.dirty = false
	return nil
}

// Dirty reports whether the store has unsaved changes.
func (s *Store) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Get returns the value at dotted path name, and whether it was present.
func (s *Store) Get(name string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, last, ok := lookup(s.data, name, false)
	if !ok {
		return nil, false
	}
	return data[last], true
}

// Set stores value at dotted path name, creating intermediate maps along
// the path as needed. The store is marked dirty only if the value
// actually changed.
func (s *Store) Set(name string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, last, _ := lookup(s.data, name, true)
	if data[last] != value {
		data[last] = value
		s.dirty = true
	}
}

// Delete removes the value at dotted path name. Reports false if it
// wasn't present.
func (s *Store) Delete(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, last, ok := lookup(s.data, name, false)
	if !ok {
		return false
	}
	delete(data, last)
	s.dirty = true
	return true
}

// List returns every dotted-path variable name in the store, sorted.
// %-prefixed sentinel keys (the %version marker) are excluded unless
// includeHidden is set.
func (s *Store) List(includeHidden bool) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return listPaths(s.data, nil, includeHidden)
}

func listPaths(data map[string]any, prefix []string, includeHidden bool) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []string
	for _, k := range keys {
		if !includeHidden && strings.HasPrefix(k, "%") {
			continue
		}
		if sub, ok := data[k].(map[string]any); ok {
			out = append(out, listPaths(sub, append(prefix, k), includeHidden)...)
			continue
		}
		out = append(out, strings.Join(append(append([]string{}, prefix...), k), "."))
	}
	return out
}

// lookup drills into data along name's dotted path, returning the
// innermost map and the final path component. If define is true,
// missing intermediate maps (and the leaf itself) are created; otherwise
// a missing intermediate or leaf reports ok=false.
func lookup(data map[string]any, name string, define bool) (map[string]any, string, bool) {
	parts := strings.Split(name, ".")
	cur := data
	for _, part := range parts[:len(parts)-1] {
		next, ok := cur[part]
		if !ok {
			if !define {
				return nil, "", false
			}
			m := map[string]any{}
			cur[part] = m
			cur = m
			continue
		}
		m, ok := next.(map[string]any)
		if !ok {
			return nil, "", false
		}
		cur = m
	}

	last := parts[len(parts)-1]
	if _, ok := cur[last]; !ok {
		if !define {
			return nil, "", false
		}
		cur[last] = nil
	}
	return cur, last, true
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if sub, ok := v.(map[string]any); ok {
			out[k] = cloneMap(sub)
		} else {
			out[k] = v
		}
	}
	return out
}

// versionsEqual compares a and b leniently: version markers round-trip
// through JSON as float64 even when the caller's version constant is an
// int, so a strict any==any compare would spuriously fail every Load.
func versionsEqual(a, b any) bool {
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if aok && bok {
		return af == bf
	}
	return a == b
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
