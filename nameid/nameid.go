// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

// Package nameid canonicalizes algorithm names, including aliases, to
// dense numeric ids. The map is append-only: an id is assigned on first
// sight of a canonical name and is never reused, and concurrent interns
// of equal (ASCII-folded) names are linearizable — they return the same
// id.
package nameid

import (
	"strings"
	"sync"

	"github.com/sage-x-project/cryptoprov/pkg/ids"
)

// Map is a library context's name table.
type Map struct {
	mu        sync.RWMutex
	byName    map[string]ids.NameID // folded name (canonical or alias) -> id
	canonical map[ids.NameID]string // id -> first-seen (canonical) name
	next      ids.NameID
}

// New returns an empty name map.
func New() *Map {
	return &Map{
		byName:    make(map[string]ids.NameID),
		canonical: make(map[ids.NameID]string),
	}
}

func fold(name string) string {
	return strings.ToLower(name)
}

// Intern returns the id for name, assigning a fresh one on first sight.
// Two concurrent interns of the same (folded) name always return the
// same id.
func (m *Map) Intern(name string) ids.NameID {
	key := fold(name)

	m.mu.RLock()
	if id, ok := m.byName[key]; ok {
		m.mu.RUnlock()
		return id
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.byName[key]; ok {
		return id
	}

	m.next++
	id := m.next
	m.byName[key] = id
	m.canonical[id] = name
	return id
}

// Lookup returns the id already assigned to name, or 0 if name has never
// been interned or aliased.
func (m *Map) Lookup(name string) ids.NameID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.byName[fold(name)]
}

// AddAlias makes newName resolve to existingID. It is a no-op if
// existingID was never interned.
func (m *Map) AddAlias(existingID ids.NameID, newName string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.canonical[existingID]; !ok {
		return
	}
	m.byName[fold(newName)] = existingID
}

// ForEach invokes fn once per canonical name, in unspecified order.
// Aliases are not yielded.
func (m *Map) ForEach(fn func(id ids.NameID, name string)) {
	m.mu.RLock()
	snapshot := make(map[ids.NameID]string, len(m.canonical))
	for id, name := range m.canonical {
		snapshot[id] = name
	}
	m.mu.RUnlock()

	for id, name := range snapshot {
		fn(id, name)
	}
}

// Len returns the number of canonical names interned so far.
func (m *Map) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.canonical)
}
