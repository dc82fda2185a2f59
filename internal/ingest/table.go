package ingest

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

// maxLineBytes bounds a single dump line; InChI strings of large molecules run long.
const maxLineBytes = 16 << 20

// Row is one data line of a table.
type Row struct {
	Line   int
	Fields []string
}

// Table is a dump file split into header and rows.
type Table struct {
	File   string
	Kind   mnx.InputKind
	Schema *Schema
	Rows   []Row
}

// ReadTable splits tab-separated content, detects its schema and returns the
// data rows. Comment lines start with '#'; the last comment line before the
// first data line is the header. A file without comments uses its first line.
func ReadTable(file string, kind mnx.InputKind, content []byte) (*Table, error) {
	sc := bufio.NewScanner(bytes.NewReader(content))
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var header []string
	var rows []Row
	lineNum := 0
	for sc.Scan() {
		lineNum++
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			if rows == nil {
				header = splitHeader(strings.TrimPrefix(line, "#"))
			}
			continue
		}
		if header == nil {
			header = splitHeader(line)
			continue
		}
		if rows == nil {
			rows = []Row{}
		}
		rows = append(rows, Row{Line: lineNum, Fields: strings.Split(line, "\t")})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", file, err)
	}

	schema, err := DetectSchema(file, kind, header)
	if err != nil {
		return nil, err
	}
	return &Table{File: file, Kind: kind, Schema: schema, Rows: rows}, nil
}

func splitHeader(line string) []string {
	fields := strings.Split(line, "\t")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields
}
