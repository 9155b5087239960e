package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"flakelens/internal/config"
	"flakelens/internal/matrix"
	"flakelens/internal/store"
)

var matrixFlags struct {
	configPath string
	outputPath string
	dbPath     string
	save       bool
}

var matrixCmd = &cobra.Command{
	Use:   "matrix",
	Short: "Work with the pairwise experiment matrix",
}

var matrixGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the experiment matrix from a config file",
	Long: `Generate the experiment design for the category table declared in the
investigation config: the all-baseline row first, then one row per
category/level pair, then any hand-picked interaction triples.

The generated CSV is what the external executor runs; its results CSV
feeds back into "flakelens correlate".`,
	RunE: runMatrix,
}

func init() {
	matrixCmd.AddCommand(matrixGenerateCmd)
	f := matrixGenerateCmd.Flags()
	f.StringVarP(&matrixFlags.configPath, "config", "c", "flakelens.yaml", "Investigation config file")
	f.StringVarP(&matrixFlags.outputPath, "output", "o", "", "Write the matrix CSV to this path instead of stdout")
	f.StringVar(&matrixFlags.dbPath, "db", store.DefaultDBPath, "Store DB path")
	f.BoolVar(&matrixFlags.save, "save", false, "Persist the matrix to the store")
}

func runMatrix(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(matrixFlags.configPath)
	if err != nil {
		return err
	}
	if len(cfg.Categories) == 0 {
		return fmt.Errorf("config %s declares no categories", matrixFlags.configPath)
	}

	configs, err := matrix.Generate(cfg.Table(), cfg.MatrixTriples())
	if err != nil {
		return err
	}

	if matrixFlags.save {
		st, err := openStore(matrixFlags.dbPath)
		if err != nil {
			return err
		}
		defer st.Close()
		name := cfg.Investigation
		if name == "" {
			name = "default"
		}
		if err := st.SaveMatrix(name, configs); err != nil {
			return err
		}
	}

	if matrixFlags.outputPath == "" {
		return matrix.WriteCSV(cmd.OutOrStdout(), cfg.Table(), configs)
	}
	f, err := os.Create(matrixFlags.outputPath)
	if err != nil {
		return fmt.Errorf("create matrix CSV %s: %w", matrixFlags.outputPath, err)
	}
	defer f.Close()
	if err := matrix.WriteCSV(f, cfg.Table(), configs); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Matrix with %d configurations written to: %s\n", len(configs), matrixFlags.outputPath)
	return nil
}
