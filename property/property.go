// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

// Package property parses property definitions and queries and scores
// candidate implementations against a caller's requirements. A
// definition describes what an implementation provides; a query
// describes what a caller requires, optionally annotated with
// preferences that only influence ranking among otherwise-matching
// candidates.
package property

import (
	"fmt"
	"strings"

	pkgerrors "github.com/sage-x-project/cryptoprov/pkg/errors"
)

// Op is the relation a property atom expresses.
type Op int

const (
	// Mandatory atoms ("name=value") must be satisfied for a match.
	Mandatory Op = iota
	// Preference atoms ("name?value") only contribute to the score.
	Preference
)

// Atom is a single "name OP value" clause.
type Atom struct {
	Name  string
	Op    Op
	Value string
}

// Definition is the set of mandatory atoms an implementation provides.
type Definition struct {
	atoms map[string]string
}

// Query is the set of atoms — mandatory and preference — a caller
// requires or prefers.
type Query struct {
	mandatory  map[string]string
	preference map[string]string
	// order preserves parse order for String(), purely cosmetic.
	order []Atom
}

// ParseDefinition parses a property definition string. Only "="
// (mandatory) atoms are meaningful in a definition; a "?" atom in a
// definition string is accepted but folded in as mandatory, matching
// how the reference provider model treats "what I provide" as
// unconditional.
func ParseDefinition(s string) (*Definition, error) {
	atoms, err := parseAtoms(s)
	if err != nil {
		return nil, err
	}
	d := &Definition{atoms: make(map[string]string, len(atoms))}
	for _, a := range atoms {
		d.atoms[a.Name] = a.Value
	}
	return d, nil
}

// Get returns the value a definition provides for name, and whether it
// provides one at all.
func (d *Definition) Get(name string) (string, bool) {
	if d == nil {
		return "", false
	}
	v, ok := d.atoms[name]
	return v, ok
}

// ParseQuery parses a property query string.
func ParseQuery(s string) (*Query, error) {
	atoms, err := parseAtoms(s)
	if err != nil {
		return nil, err
	}
	q := &Query{
		mandatory:  make(map[string]string),
		preference: make(map[string]string),
		order:      atoms,
	}
	for _, a := range atoms {
		switch a.Op {
		case Mandatory:
			q.mandatory[a.Name] = a.Value
		case Preference:
			q.preference[a.Name] = a.Value
		}
	}
	return q, nil
}

// MergeDefaults concatenates defaultQueryString's atoms into q, skipping
// any atom name q already explicitly specifies. Global default
// properties apply to every query unless the query overrides the same
// atom name.
func (q *Query) MergeDefaults(defaultQueryString string) (*Query, error) {
	defaults, err := ParseQuery(defaultQueryString)
	if err != nil {
		return nil, err
	}

	merged := &Query{
		mandatory:  make(map[string]string, len(q.mandatory)),
		preference: make(map[string]string, len(q.preference)),
	}
	for k, v := range q.mandatory {
		merged.mandatory[k] = v
	}
	for k, v := range q.preference {
		merged.preference[k] = v
	}
	merged.order = append(merged.order, q.order...)

	has := func(name string) bool {
		_, m := q.mandatory[name]
		_, p := q.preference[name]
		return m || p
	}
	for _, a := range defaults.order {
		if has(a.Name) {
			continue
		}
		switch a.Op {
		case Mandatory:
			merged.mandatory[a.Name] = a.Value
		case Preference:
			merged.preference[a.Name] = a.Value
		}
		merged.order = append(merged.order, a)
	}
	return merged, nil
}

// String renders the query back to textual form, in parse order.
func (q *Query) String() string {
	if q == nil || len(q.order) == 0 {
		return ""
	}
	parts := make([]string, 0, len(q.order))
	for _, a := range q.order {
		op := "="
		if a.Op == Preference {
			op = "?"
		}
		parts = append(parts, fmt.Sprintf("%s%s%s", a.Name, op, a.Value))
	}
	return strings.Join(parts, ",")
}

// Match reports whether def satisfies every mandatory atom of q, and if
// so, the number of q's preference atoms def also satisfies.
func Match(def *Definition, q *Query) (bool, int) {
	if q == nil {
		return true, 0
	}
	for name, want := range q.mandatory {
		got, ok := def.Get(name)
		if !ok || !valuesEqual(got, want) {
			return false, 0
		}
	}
	score := 0
	for name, want := range q.preference {
		if got, ok := def.Get(name); ok && valuesEqual(got, want) {
			score++
		}
	}
	return true, score
}

func valuesEqual(a, b string) bool {
	return normalizeValue(a) == normalizeValue(b)
}

// normalizeValue folds boolean spellings ("yes"/"true"/"1", "no"/
// "false"/"0") to a canonical form and trims surrounding whitespace and
// quotes on everything else, so the values " yes" and "\"yes\"" compare
// equal.
func normalizeValue(v string) string {
	v = strings.TrimSpace(v)
	v = strings.Trim(v, `"'`)
	switch strings.ToLower(v) {
	case "yes", "true":
		return "1"
	case "no", "false":
		return "0"
	default:
		return strings.ToLower(v)
	}
}

// parseAtoms parses a whitespace- and comma-separated sequence of
// "name=value" or "name?value" atoms. Values may be quoted to embed
// spaces or commas. Malformed atoms are rejected.
func parseAtoms(s string) ([]Atom, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	fields, err := splitAtoms(s)
	if err != nil {
		return nil, err
	}

	atoms := make([]Atom, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		idx := strings.IndexAny(f, "=?")
		if idx <= 0 {
			return nil, pkgerrors.ErrInvalidProperty.WithMessage(fmt.Sprintf("malformed atom %q", f))
		}
		name := strings.TrimSpace(f[:idx])
		if name == "" {
			return nil, pkgerrors.ErrInvalidProperty.WithMessage(fmt.Sprintf("malformed atom %q: empty name", f))
		}
		op := Mandatory
		if f[idx] == '?' {
			op = Preference
		}
		value := strings.TrimSpace(f[idx+1:])
		value = strings.Trim(value, `"'`)
		atoms = append(atoms, Atom{Name: name, Op: op, Value: value})
	}
	return atoms, nil
}

// splitAtoms splits on commas and whitespace, respecting quoted values.
func splitAtoms(s string) ([]string, error) {
	var fields []string
	var cur strings.Builder
	inQuote := byte(0)

	flush := func() {
		if cur.Len() > 0 {
			fields = append(fields, cur.String())
			cur.Reset()
		}
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inQuote != 0:
			cur.WriteByte(c)
			if c == inQuote {
				inQuote = 0
			}
		case c == '"' || c == '\'':
			inQuote = c
			cur.WriteByte(c)
		case c == ',' || c == ' ' || c == '\t' || c == '\n':
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	if inQuote != 0 {
		return nil, pkgerrors.ErrInvalidProperty.WithMessage("unterminated quote")
	}
	flush()
	return fields, nil
}
