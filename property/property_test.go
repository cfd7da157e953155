// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

package property

import "testing"

func TestParseDefinitionAndMatch(t *testing.T) {
	def, err := ParseDefinition("fips=yes,provider=builtin")
	if err != nil {
		t.Fatalf("ParseDefinition: %v", err)
	}

	q, err := ParseQuery("fips=yes")
	if err != nil {
		t.Fatalf("ParseQuery: %v", err)
	}

	ok, score := Match(def, q)
	if !ok {
		t.Fatal("expected definition to satisfy mandatory query atom")
	}
	if score != 0 {
		t.Errorf("score = %d, want 0 (no preference atoms in query)", score)
	}
}

func TestMatchFailsOnUnsatisfiedMandatory(t *testing.T) {
	def, _ := ParseDefinition("fips=no")
	q, _ := ParseQuery("fips=yes")

	if ok, _ := Match(def, q); ok {
		t.Error("expected mismatch: definition provides fips=no, query requires fips=yes")
	}
}

func TestMatchScoresPreferenceAtoms(t *testing.T) {
	def, _ := ParseDefinition("fips=yes,speed=fast")
	q, _ := ParseQuery("fips=yes,speed?fast,region?us")

	ok, score := Match(def, q)
	if !ok {
		t.Fatal("expected match on mandatory atom")
	}
	if score != 1 {
		t.Errorf("score = %d, want 1 (only speed?fast satisfied)", score)
	}
}

func TestMatchMissingMandatoryAtomFails(t *testing.T) {
	def, _ := ParseDefinition("provider=builtin")
	q, _ := ParseQuery("fips=yes")

	if ok, _ := Match(def, q); ok {
		t.Error("expected mismatch: definition never mentions fips")
	}
}

func TestBooleanNormalization(t *testing.T) {
	def, _ := ParseDefinition("fips=true")
	q, _ := ParseQuery("fips=yes")

	if ok, _ := Match(def, q); !ok {
		t.Error("expected \"true\" and \"yes\" to normalize to the same boolean value")
	}
}

func TestQuotedValues(t *testing.T) {
	def, err := ParseDefinition(`name="SHA 256"`)
	if err != nil {
		t.Fatalf("ParseDefinition with quoted value: %v", err)
	}
	v, ok := def.Get("name")
	if !ok || v != "SHA 256" {
		t.Errorf("Get(name) = %q, %v, want \"SHA 256\", true", v, ok)
	}
}

func TestWhitespaceAndCommaSeparators(t *testing.T) {
	a, err := ParseQuery("fips=yes speed?fast")
	if err != nil {
		t.Fatalf("whitespace-separated parse: %v", err)
	}
	b, err := ParseQuery("fips=yes,speed?fast")
	if err != nil {
		t.Fatalf("comma-separated parse: %v", err)
	}
	if a.String() != b.String() {
		t.Errorf("whitespace- and comma-separated queries should parse equivalently: %q != %q", a.String(), b.String())
	}
}

func TestParseRejectsMalformedAtom(t *testing.T) {
	if _, err := ParseQuery("fips"); err == nil {
		t.Error("expected an error for an atom with no operator")
	}
	if _, err := ParseQuery("=yes"); err == nil {
		t.Error("expected an error for an atom with an empty name")
	}
}

func TestParseRejectsUnterminatedQuote(t *testing.T) {
	if _, err := ParseQuery(`name="unterminated`); err == nil {
		t.Error("expected an error for an unterminated quoted value")
	}
}

func TestMergeDefaultsDoesNotOverrideExplicitAtom(t *testing.T) {
	q, _ := ParseQuery("fips=no")
	merged, err := q.MergeDefaults("fips=yes,region=us")
	if err != nil {
		t.Fatalf("MergeDefaults: %v", err)
	}

	def, _ := ParseDefinition("fips=no,region=us")
	ok, _ := Match(def, merged)
	if !ok {
		t.Fatal("merged query should keep the explicit fips=no and add region=us")
	}

	defWrong, _ := ParseDefinition("fips=yes,region=us")
	if ok, _ := Match(defWrong, merged); ok {
		t.Error("merged query must not have been overridden by the default fips=yes")
	}
}

func TestEmptyQueryMatchesAnyDefinition(t *testing.T) {
	def, _ := ParseDefinition("fips=yes")
	q, _ := ParseQuery("")

	ok, score := Match(def, q)
	if !ok {
		t.Error("an empty query should match any definition")
	}
	if score != 0 {
		t.Errorf("score = %d, want 0", score)
	}
}
