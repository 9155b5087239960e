package matrix

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
)

// WriteCSV renders configurations as the experiment matrix:
//
//	TestID,<Category1>,...,<CategoryN>
//
// Categories appear in ascending name order, matching the assignment
// order inside each Configuration; level names are literal, with
// "none" for baseline.
func WriteCSV(w io.Writer, table []Category, configs []Configuration) error {
	names := make([]string, 0, len(table))
	for _, c := range table {
		names = append(names, c.Name)
	}
	sort.Strings(names)

	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"TestID"}, names...)); err != nil {
		return fmt.Errorf("write matrix header: %w", err)
	}
	for _, cfg := range configs {
		row := make([]string, 0, len(names)+1)
		row = append(row, strconv.Itoa(cfg.ID))
		for _, name := range names {
			row = append(row, cfg.Level(name).Name())
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write matrix row %d: %w", cfg.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a matrix CSV back into configurations. The header
// names the categories; every non-header row is one configuration.
func ReadCSV(r io.Reader) ([]Configuration, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read matrix header: %w", err)
	}
	if len(header) < 2 || header[0] != "TestID" {
		return nil, fmt.Errorf("matrix header must start with TestID, got %v", header)
	}
	cats := header[1:]

	var configs []Configuration
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read matrix row: %w", err)
		}
		if len(row) != len(header) {
			return nil, fmt.Errorf("matrix row has %d fields, want %d", len(row), len(header))
		}
		id, err := strconv.Atoi(row[0])
		if err != nil {
			return nil, fmt.Errorf("matrix row has non-numeric TestID %q", row[0])
		}
		cfg := Configuration{ID: id}
		for i, cat := range cats {
			cfg.Assignments = append(cfg.Assignments, Assignment{
				Category: cat,
				Level:    NewLevel(row[i+1]).Name(),
			})
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}
