package spectrum

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Log is an append-only, chronologically ordered provenance trail. A Log value
// is never modified in place: appending returns a new Log with its own backing
// array, so logs handed out by one spectrum cannot change another.
type Log struct {
	records []Record
}

// NewLog builds a log from existing records, e.g. when restoring a stored spectrum.
func NewLog(records ...Record) Log {
	l := Log{records: make([]Record, len(records))}
	for i, r := range records {
		l.records[i] = cloneRecord(r)
	}
	return l
}

// Len returns the number of records in the log.
func (l Log) Len() int {
	return len(l.records)
}

// Records returns a copy of the log entries.
func (l Log) Records() []Record {
	out := make([]Record, len(l.records))
	for i, r := range l.records {
		out[i] = cloneRecord(r)
	}
	return out
}

// Last returns the most recent record.
func (l Log) Last() (Record, bool) {
	if len(l.records) == 0 {
		return Record{}, false
	}
	return cloneRecord(l.records[len(l.records)-1]), true
}

func (l Log) append(r Record) Log {
	records := make([]Record, len(l.records), len(l.records)+1)
	copy(records, l.records)
	return Log{records: append(records, r)}
}

// WriteYAML writes the log as a YAML sequence of records.
func (l Log) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(l.Records()); err != nil {
		return fmt.Errorf("encoding provenance: %w", err)
	}
	return enc.Close()
}

// WriteJSON writes the log as an indented JSON array.
func (l Log) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(l.Records()); err != nil {
		return fmt.Errorf("encoding provenance: %w", err)
	}
	return nil
}

// Summary renders a human readable overview of the log.
func (l Log) Summary() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Provenance: %d record(s)\n", len(l.records))
	if len(l.records) == 0 {
		return sb.String()
	}

	fmt.Fprintf(&sb, "First: %s\n", l.records[0].Timestamp.Format(time.RFC3339Nano))
	fmt.Fprintf(&sb, "Last:  %s\n", l.records[len(l.records)-1].Timestamp.Format(time.RFC3339Nano))

	counts := make(map[string]int)
	for i, r := range l.records {
		counts[r.Operation]++
		fmt.Fprintf(&sb, "%3d. %-18s %s", i+1, r.Operation, r.Timestamp.Format(time.RFC3339))
		if d := formatDetails(r.Details); d != "" {
			sb.WriteString("  " + d)
		}
		sb.WriteByte('\n')
	}

	ops := slices.Sorted(maps.Keys(counts))
	parts := make([]string, 0, len(ops))
	for _, op := range ops {
		parts = append(parts, fmt.Sprintf("%s=%d", op, counts[op]))
	}
	sb.WriteString("Operations: " + strings.Join(parts, ", ") + "\n")

	return sb.String()
}

func formatDetails(details map[string]any) string {
	keys := slices.Sorted(maps.Keys(details))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, details[k]))
	}
	return strings.Join(parts, " ")
}
