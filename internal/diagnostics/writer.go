package diagnostics

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

// WriteJSONLines writes one JSON object per diagnostic.
func WriteJSONLines(w io.Writer, diags []mnx.Diagnostic) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	for _, d := range diags {
		if err := enc.Encode(d); err != nil {
			return fmt.Errorf("failed to encode diagnostic: %w", err)
		}
	}
	return bw.Flush()
}

// WriteFile replaces path with the JSON-lines export, creating parent directories.
func WriteFile(path string, diags []mnx.Diagnostic) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create diagnostics directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create diagnostics file: %w", err)
	}
	if err := WriteJSONLines(f, diags); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadJSONLines parses a JSON-lines export back into diagnostics.
func ReadJSONLines(r io.Reader) ([]mnx.Diagnostic, error) {
	var out []mnx.Diagnostic
	dec := json.NewDecoder(r)
	for dec.More() {
		var d mnx.Diagnostic
		if err := dec.Decode(&d); err != nil {
			return nil, fmt.Errorf("failed to decode diagnostic %d: %w", len(out)+1, err)
		}
		out = append(out, d)
	}
	return out, nil
}
