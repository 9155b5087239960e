package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"flakelens/internal/matrix"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flakelens.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
investigation: checkout-suite
runs_dir: testdata/runs
thread_dump: testdata/dump.json
categories:
  - name: parallelism
    levels: [high]
  - name: memory
    levels: [constrained]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Investigation != "checkout-suite" {
		t.Errorf("investigation = %q", cfg.Investigation)
	}
	want := []matrix.Category{
		{Name: "parallelism", Levels: []matrix.Level{matrix.NewLevel("high")}},
		{Name: "memory", Levels: []matrix.Level{matrix.NewLevel("constrained")}},
	}
	if diff := cmp.Diff(want, cfg.Table(), cmp.AllowUnexported(matrix.Level{})); diff != "" {
		t.Errorf("table mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_MissingFileNamesPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.yaml")
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for missing config")
	}
	if !strings.Contains(err.Error(), path) {
		t.Errorf("error does not name the path: %v", err)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "categories: [not: valid: yaml\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name: "duplicate category",
			cfg: Config{Categories: []CategoryConfig{
				{Name: "memory", Levels: []string{"a"}},
				{Name: "memory", Levels: []string{"b"}},
			}},
			wantErr: "duplicate category",
		},
		{
			name: "empty levels",
			cfg: Config{Categories: []CategoryConfig{
				{Name: "memory"},
			}},
			wantErr: "no levels",
		},
		{
			name: "explicit baseline",
			cfg: Config{Categories: []CategoryConfig{
				{Name: "memory", Levels: []string{"none"}},
			}},
			wantErr: "baseline",
		},
		{
			name: "triple unknown category",
			cfg: Config{
				Categories: []CategoryConfig{{Name: "memory", Levels: []string{"a"}}},
				Triples: []TripleConfig{{
					Name:   "bad",
					Levels: map[string]string{"disk": "slow"},
				}},
			},
			wantErr: "unknown category",
		},
		{
			name: "triple unknown level",
			cfg: Config{
				Categories: []CategoryConfig{{Name: "memory", Levels: []string{"a"}}},
				Triples: []TripleConfig{{
					Name:   "bad",
					Levels: map[string]string{"memory": "z"},
				}},
			},
			wantErr: "unknown level",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("err = %v, want substring %q", err, tc.wantErr)
			}
		})
	}
}

func TestMatrixTriples_DefaultsWhenUnconfigured(t *testing.T) {
	cfg := Config{Categories: []CategoryConfig{
		{Name: "parallelism", Levels: []string{"high"}},
		{Name: "memory", Levels: []string{"constrained"}},
		{Name: "timeout", Levels: []string{"tight"}},
	}}
	triples := cfg.MatrixTriples()
	if len(triples) != 1 || triples[0].Name != "parallel-memory-timeout" {
		t.Errorf("triples = %v, want the applicable built-in", triples)
	}
}

func TestMatrixTriples_ConfiguredOverride(t *testing.T) {
	cfg := Config{
		Categories: []CategoryConfig{
			{Name: "parallelism", Levels: []string{"high"}},
			{Name: "memory", Levels: []string{"constrained"}},
		},
		Triples: []TripleConfig{{
			Name: "custom",
			Levels: map[string]string{
				"parallelism": "high",
				"memory":      "constrained",
			},
		}},
	}
	triples := cfg.MatrixTriples()
	want := []matrix.Triple{{
		Name: "custom",
		Assignments: []matrix.Assignment{
			{Category: "memory", Level: "constrained"},
			{Category: "parallelism", Level: "high"},
		},
	}}
	if diff := cmp.Diff(want, triples); diff != "" {
		t.Errorf("triples mismatch (-want +got):\n%s", diff)
	}
}
