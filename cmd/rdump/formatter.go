package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/rdump-dev/rdump/internal/orchestrator"
)

// Format selects the output renderer (§6 "emitted record surface" +
// SPEC_FULL's plain/paths-only/JSON trio, grounded on the original
// tool's Markdown/Paths/Json formatter variants).
type Format string

const (
	FormatPlain Format = "plain"
	FormatPaths Format = "paths"
	FormatJSON  Format = "json"
)

// ParseFormat validates a --format flag value.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatPlain, FormatPaths, FormatJSON:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unknown format %q (want plain, paths, or json)", s)
	}
}

type jsonRecord struct {
	Path         string    `json:"path"`
	SizeBytes    int64     `json:"size_bytes"`
	ModifiedTime time.Time `json:"modified_time"`
	Content      string    `json:"content,omitempty"`
}

// WriteResults renders records to w in the requested format. noHeaders
// suppresses the "File: path" / "---" separators of the plain format; it
// is rejected for any other format before this is ever called (the
// combination is a usage error, per the already-decided open question).
func WriteResults(w io.Writer, records []orchestrator.Record, format Format, noHeaders, lineNumbers bool) error {
	switch format {
	case FormatPaths:
		for _, r := range records {
			if _, err := fmt.Fprintln(w, r.Path); err != nil {
				return err
			}
		}
		return nil

	case FormatJSON:
		out := make([]jsonRecord, len(records))
		for i, r := range records {
			out[i] = jsonRecord{
				Path:         r.Path,
				SizeBytes:    r.SizeBytes,
				ModifiedTime: r.ModifiedTime,
				Content:      string(r.Content),
			}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)

	default:
		return writePlain(w, records, noHeaders, lineNumbers)
	}
}

func writePlain(w io.Writer, records []orchestrator.Record, noHeaders, lineNumbers bool) error {
	for i, r := range records {
		if i > 0 {
			if _, err := fmt.Fprint(w, "\n---\n\n"); err != nil {
				return err
			}
		}
		if !noHeaders {
			if _, err := fmt.Fprintf(w, "File: %s\n---\n", r.Path); err != nil {
				return err
			}
		}
		if err := writeContent(w, r.Content, lineNumbers); err != nil {
			return err
		}
	}
	return nil
}

func writeContent(w io.Writer, content []byte, lineNumbers bool) error {
	if !lineNumbers {
		_, err := w.Write(content)
		return err
	}

	line := 1
	start := 0
	for i, b := range content {
		if b == '\n' {
			if _, err := fmt.Fprintf(w, "%5d | %s\n", line, content[start:i]); err != nil {
				return err
			}
			line++
			start = i + 1
		}
	}
	if start < len(content) {
		_, err := fmt.Fprintf(w, "%5d | %s\n", line, content[start:])
		return err
	}
	return nil
}
