package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"

	"github.com/cardclash/clash-server-go/internal/catalog"
)

func main() {
	var outPath string
	var checkPath string
	flag.StringVar(&outPath, "out", "", "path to write the JSON schema")
	flag.StringVar(&checkPath, "check", "", "optional catalog YAML to validate before writing")
	flag.Parse()

	if outPath == "" {
		fmt.Fprintln(os.Stderr, "--out is required")
		os.Exit(1)
	}

	if checkPath != "" {
		if _, err := catalog.LoadFile(checkPath); err != nil {
			fmt.Fprintf(os.Stderr, "invalid catalog: %v\n", err)
			os.Exit(1)
		}
	}

	if err := writeSchema(outPath, catalog.Schema()); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write schema: %v\n", err)
		os.Exit(1)
	}
}

func writeSchema(outPath string, schema *jsonschema.Schema) error {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create schema directory: %w", err)
	}

	tmpPath := outPath + ".tmp"
	if err := os.WriteFile(tmpPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write temp schema: %w", err)
	}

	if err := os.Rename(tmpPath, outPath); err != nil {
		return fmt.Errorf("replace schema: %w", err)
	}
	return nil
}
