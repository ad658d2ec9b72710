package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/crudweb/pkg/types"
)

// Output formats accepted by --output.
const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

func validateOutput(format string) error {
	switch format {
	case outputText, outputJSON, outputYAML:
		return nil
	}
	return userError(fmt.Errorf("invalid output format %q (valid: text, json, yaml)", format))
}

// printRecords writes a record list. Text output is one "{id}-{title}"
// line per record, the same label the index page links with.
func printRecords(w io.Writer, format string, records []types.Record) error {
	if format == outputText {
		for _, r := range records {
			writeLine(w, "%d-%s", r.ID, r.Title)
		}
		return nil
	}
	return encode(w, format, records)
}

// printRecord writes a single record with its description.
func printRecord(w io.Writer, format string, r types.Record) error {
	if format == outputText {
		writeLine(w, "%d-%s", r.ID, r.Title)
		writeLine(w, "%s", r.Description)
		return nil
	}
	return encode(w, format, r)
}

func encode(w io.Writer, format string, v any) error {
	switch format {
	case outputJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return sysError(fmt.Errorf("marshal json: %w", err))
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return sysError(fmt.Errorf("marshal yaml: %w", err))
		}
		return enc.Close()
	}
	return validateOutput(format)
}
