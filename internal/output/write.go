package output

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
)

// Format selects how variables are written.
type Format string

const (
	FormatPlain Format = "plain"
	FormatJSON  Format = "json"
	FormatEnv   Format = "env"
)

// ParseFormat parses an --output value. The empty string is plain.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case "", FormatPlain:
		return FormatPlain, nil
	case FormatJSON, FormatEnv:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want plain, json or env)", s)
	}
}

// Write writes variables in format: plain prints the version only, json
// prints every variable, env prints KEY=value lines sorted by key.
func Write(w io.Writer, format Format, variables map[string]string) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, variables)
	case FormatEnv:
		return writeEnv(w, variables)
	default:
		_, err := fmt.Fprintln(w, variables[VarVersion])
		return err
	}
}

// WriteVariable writes a single variable value to the writer.
func WriteVariable(w io.Writer, variables map[string]string, name string) error {
	val, ok := variables[name]
	if !ok {
		return fmt.Errorf("unknown variable %q (available: %s)", name, strings.Join(sortedKeys(variables), ", "))
	}
	_, err := fmt.Fprintln(w, val)
	return err
}

func writeJSON(w io.Writer, variables map[string]string) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(variables); err != nil {
		return fmt.Errorf("writing JSON output: %w", err)
	}
	return nil
}

func writeEnv(w io.Writer, variables map[string]string) error {
	for _, k := range sortedKeys(variables) {
		if _, err := fmt.Fprintf(w, "%s=%s\n", k, variables[k]); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
