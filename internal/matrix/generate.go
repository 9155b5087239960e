package matrix

import (
	"fmt"
	"sort"
)

// Generate builds the experiment design for a category table:
//
//	row 1            the mandatory all-baseline configuration
//	rows 2..n        one row per (category pair, level pair): both
//	                 categories at the chosen non-baseline level,
//	                 everything else at baseline
//	trailing rows    the supplied hand-picked triples, verbatim
//
// One pair per row is deliberately redundant compared to a minimal
// covering array; reproducibility won over minimal size. Categories are
// iterated in lexicographic name order and levels in declaration order,
// so the same table always yields the same id sequence — required for
// joining execution results back to configurations.
func Generate(table []Category, triples []Triple) ([]Configuration, error) {
	if err := validateTable(table); err != nil {
		return nil, err
	}

	cats := append([]Category(nil), table...)
	sort.Slice(cats, func(i, j int) bool { return cats[i].Name < cats[j].Name })

	nextID := 1
	emit := func(set map[string]Level) Configuration {
		cfg := Configuration{ID: nextID}
		nextID++
		for _, c := range cats {
			level := Baseline
			if l, ok := set[c.Name]; ok {
				level = l
			}
			cfg.Assignments = append(cfg.Assignments, Assignment{
				Category: c.Name,
				Level:    level.Name(),
			})
		}
		return cfg
	}

	configs := []Configuration{emit(nil)} // baseline, id 1

	for i := 0; i < len(cats); i++ {
		for j := i + 1; j < len(cats); j++ {
			for _, la := range cats[i].Levels {
				if la.IsBaseline() {
					continue
				}
				for _, lb := range cats[j].Levels {
					if lb.IsBaseline() {
						continue
					}
					configs = append(configs, emit(map[string]Level{
						cats[i].Name: la,
						cats[j].Name: lb,
					}))
				}
			}
		}
	}

	for _, t := range triples {
		set, err := tripleLevels(cats, t)
		if err != nil {
			return nil, err
		}
		configs = append(configs, emit(set))
	}

	return configs, nil
}

func validateTable(table []Category) error {
	seen := map[string]bool{}
	for _, c := range table {
		if c.Name == "" {
			return fmt.Errorf("category with empty name")
		}
		if seen[c.Name] {
			return fmt.Errorf("duplicate category %q", c.Name)
		}
		seen[c.Name] = true
		for _, l := range c.Levels {
			if l.IsBaseline() {
				return fmt.Errorf("category %q declares the baseline level explicitly", c.Name)
			}
		}
	}
	return nil
}

func tripleLevels(cats []Category, t Triple) (map[string]Level, error) {
	set := map[string]Level{}
	for _, a := range t.Assignments {
		var cat *Category
		for i := range cats {
			if cats[i].Name == a.Category {
				cat = &cats[i]
				break
			}
		}
		if cat == nil {
			return nil, fmt.Errorf("triple %q references unknown category %q", t.Name, a.Category)
		}
		if !cat.HasLevel(a.Level) {
			return nil, fmt.Errorf("triple %q references unknown level %q of category %q", t.Name, a.Level, a.Category)
		}
		set[a.Category] = NewLevel(a.Level)
	}
	return set, nil
}

// DefaultTriples are the built-in interaction scenarios, kept as
// literal rows. They apply only when the table declares the categories
// and levels they reference; FilterApplicable drops the rest.
var DefaultTriples = []Triple{
	{
		Name: "parallel-memory-timeout",
		Assignments: []Assignment{
			{Category: "parallelism", Level: "high"},
			{Category: "memory", Level: "constrained"},
			{Category: "timeout", Level: "tight"},
		},
	},
	{
		Name: "parallel-network-order",
		Assignments: []Assignment{
			{Category: "parallelism", Level: "high"},
			{Category: "network", Level: "delayed"},
			{Category: "test_order", Level: "random"},
		},
	},
}

// FilterApplicable keeps the triples whose every assignment resolves
// against the table.
func FilterApplicable(table []Category, triples []Triple) []Triple {
	var out []Triple
	for _, t := range triples {
		if _, err := tripleLevels(table, t); err == nil {
			out = append(out, t)
		}
	}
	return out
}
