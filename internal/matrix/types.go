package matrix

// Level is one perturbation level of a category. The zero value is the
// Baseline level ("no perturbation"), a first-class variant rather than
// a magic "none" string; it renders as "none" only at the CSV boundary.
type Level struct {
	name string
}

// Baseline is the unperturbed level, implicitly level 0 of every category.
var Baseline = Level{}

// NewLevel returns a named non-baseline level. An empty name is Baseline.
func NewLevel(name string) Level {
	if name == "" || name == BaselineName {
		return Baseline
	}
	return Level{name: name}
}

// BaselineName is the literal used for Baseline in CSV files.
const BaselineName = "none"

// IsBaseline reports whether l is the unperturbed level.
func (l Level) IsBaseline() bool { return l.name == "" }

// Name returns the level name, BaselineName for the baseline.
func (l Level) Name() string {
	if l.name == "" {
		return BaselineName
	}
	return l.name
}

// Category is one experiment factor: a name and its ordered non-baseline
// levels. Baseline is always present implicitly and is excluded from
// pair generation.
type Category struct {
	Name   string
	Levels []Level
}

// HasLevel reports whether name is one of the category's declared
// levels (or the baseline).
func (c Category) HasLevel(name string) bool {
	if name == BaselineName {
		return true
	}
	for _, l := range c.Levels {
		if l.Name() == name {
			return true
		}
	}
	return false
}

// Assignment binds one category to one chosen level.
type Assignment struct {
	Category string `json:"category"`
	Level    string `json:"level"`
}

// Configuration is a total assignment of one level per category, in
// ascending category-name order. Identity is the assignment vector;
// ID 1 is reserved for the all-baseline configuration.
type Configuration struct {
	ID          int          `json:"id"`
	Assignments []Assignment `json:"assignments"`
}

// Level returns the level assigned to category name, Baseline if the
// category is not present.
func (c Configuration) Level(category string) Level {
	for _, a := range c.Assignments {
		if a.Category == category {
			return NewLevel(a.Level)
		}
	}
	return Baseline
}

// NonBaseline returns the assignments whose level is not Baseline,
// preserving category order.
func (c Configuration) NonBaseline() []Assignment {
	var out []Assignment
	for _, a := range c.Assignments {
		if a.Level != BaselineName {
			out = append(out, a)
		}
	}
	return out
}

// Triple is a hand-picked row combining three or more simultaneous
// non-baseline levels for scenarios known to interact. Triples are
// literal data, never generated.
type Triple struct {
	Name        string       `yaml:"name"`
	Assignments []Assignment `yaml:"assignments"`
}
