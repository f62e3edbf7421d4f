// Package main writes the JSON schema of the depinfer json report.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Sumatoshi-tech/depinfer/pkg/report"
)

const schemaFile = "report.json"

func main() {
	var outputDir string

	flag.StringVar(&outputDir, "o", "docs/schemas", "Output directory for schemas")
	flag.Parse()

	err := writeSchema(outputDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stdout, "Generated %s\n", filepath.Join(outputDir, schemaFile))
}

func writeSchema(dir string) error {
	mkdirErr := os.MkdirAll(dir, 0o755)
	if mkdirErr != nil {
		return fmt.Errorf("create output directory: %w", mkdirErr)
	}

	data, err := json.MarshalIndent(report.JSONSchema(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	writeErr := os.WriteFile(filepath.Join(dir, schemaFile), append(data, '\n'), 0o644)
	if writeErr != nil {
		return fmt.Errorf("write schema: %w", writeErr)
	}

	return nil
}
