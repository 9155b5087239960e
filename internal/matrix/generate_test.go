package matrix

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func smallTable() []Category {
	return []Category{
		{Name: "parallelism", Levels: []Level{NewLevel("high")}},
		{Name: "memory", Levels: []Level{NewLevel("constrained")}},
		{Name: "timeout", Levels: []Level{NewLevel("tight"), NewLevel("generous")}},
	}
}

func TestGenerate_BaselineFirst(t *testing.T) {
	configs, err := Generate(smallTable(), nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if configs[0].ID != 1 {
		t.Fatalf("first configuration has id %d, want 1", configs[0].ID)
	}
	if got := configs[0].NonBaseline(); len(got) != 0 {
		t.Errorf("configuration 1 has non-baseline assignments: %v", got)
	}
	for _, cfg := range configs[1:] {
		if len(cfg.NonBaseline()) == 0 {
			t.Errorf("configuration %d is a second all-baseline row", cfg.ID)
		}
	}
}

func TestGenerate_PairRows(t *testing.T) {
	// Categories sort to memory, parallelism, timeout. Pairs:
	//   (memory, parallelism)            1 row
	//   (memory, timeout)                2 rows (tight, generous)
	//   (parallelism, timeout)           2 rows
	configs, err := Generate(smallTable(), nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(configs) != 6 {
		t.Fatalf("got %d configurations, want 6 (baseline + 5 pairs)", len(configs))
	}

	want := Configuration{ID: 2, Assignments: []Assignment{
		{Category: "memory", Level: "constrained"},
		{Category: "parallelism", Level: "high"},
		{Category: "timeout", Level: "none"},
	}}
	if diff := cmp.Diff(want, configs[1]); diff != "" {
		t.Errorf("first pair row mismatch (-want +got):\n%s", diff)
	}

	for _, cfg := range configs[1:] {
		if n := len(cfg.NonBaseline()); n != 2 {
			t.Errorf("configuration %d has %d non-baseline levels, want 2", cfg.ID, n)
		}
	}
}

func TestGenerate_LevelDeclarationOrder(t *testing.T) {
	configs, err := Generate(smallTable(), nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	// Rows 3 and 4 are (memory, timeout): tight declared before generous.
	if got := configs[2].Level("timeout").Name(); got != "tight" {
		t.Errorf("row 3 timeout = %s, want tight", got)
	}
	if got := configs[3].Level("timeout").Name(); got != "generous" {
		t.Errorf("row 4 timeout = %s, want generous", got)
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	triples := []Triple{{
		Name: "all-three",
		Assignments: []Assignment{
			{Category: "parallelism", Level: "high"},
			{Category: "memory", Level: "constrained"},
			{Category: "timeout", Level: "tight"},
		},
	}}
	first, err := Generate(smallTable(), triples)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	second, err := Generate(smallTable(), triples)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("generation not deterministic (-first +second):\n%s", diff)
	}
}

func TestGenerate_TriplesAppendAfterPairs(t *testing.T) {
	triples := []Triple{{
		Name: "all-three",
		Assignments: []Assignment{
			{Category: "parallelism", Level: "high"},
			{Category: "memory", Level: "constrained"},
			{Category: "timeout", Level: "tight"},
		},
	}}
	configs, err := Generate(smallTable(), triples)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(configs) != 7 {
		t.Fatalf("got %d configurations, want 7", len(configs))
	}
	last := configs[len(configs)-1]
	if last.ID != 7 {
		t.Errorf("triple row id = %d, want 7", last.ID)
	}
	if n := len(last.NonBaseline()); n != 3 {
		t.Errorf("triple row has %d non-baseline levels, want 3", n)
	}
}

func TestGenerate_RejectsUnknownTripleCategory(t *testing.T) {
	triples := []Triple{{
		Name:        "bogus",
		Assignments: []Assignment{{Category: "disk", Level: "slow"}},
	}}
	_, err := Generate(smallTable(), triples)
	if err == nil {
		t.Fatal("expected error for unknown category")
	}
	if !strings.Contains(err.Error(), "bogus") || !strings.Contains(err.Error(), "disk") {
		t.Errorf("error does not name the triple and category: %v", err)
	}
}

func TestGenerate_RejectsUnknownTripleLevel(t *testing.T) {
	triples := []Triple{{
		Name:        "bad-level",
		Assignments: []Assignment{{Category: "timeout", Level: "infinite"}},
	}}
	_, err := Generate(smallTable(), triples)
	if err == nil {
		t.Fatal("expected error for unknown level")
	}
	if !strings.Contains(err.Error(), "infinite") {
		t.Errorf("error does not name the level: %v", err)
	}
}

func TestGenerate_RejectsExplicitBaseline(t *testing.T) {
	table := []Category{
		{Name: "memory", Levels: []Level{NewLevel("constrained"), Baseline}},
	}
	if _, err := Generate(table, nil); err == nil {
		t.Fatal("expected error for explicit baseline level")
	}
}

func TestGenerate_RejectsDuplicateCategory(t *testing.T) {
	table := []Category{
		{Name: "memory", Levels: []Level{NewLevel("constrained")}},
		{Name: "memory", Levels: []Level{NewLevel("huge")}},
	}
	if _, err := Generate(table, nil); err == nil {
		t.Fatal("expected error for duplicate category")
	}
}

func TestFilterApplicable(t *testing.T) {
	table := []Category{
		{Name: "parallelism", Levels: []Level{NewLevel("high")}},
		{Name: "memory", Levels: []Level{NewLevel("constrained")}},
		{Name: "timeout", Levels: []Level{NewLevel("tight")}},
	}
	// parallel-memory-timeout resolves; parallel-network-order needs the
	// absent network and test_order categories.
	kept := FilterApplicable(table, DefaultTriples)
	if len(kept) != 1 || kept[0].Name != "parallel-memory-timeout" {
		t.Errorf("kept = %v, want only parallel-memory-timeout", kept)
	}
}
