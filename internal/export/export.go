// Package export writes record tables and period results as CSV, JSON or
// YAML.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/j-veylop/whoop-dashboard-tui/internal/logger"
	"github.com/j-veylop/whoop-dashboard-tui/internal/metrics"
)

// Format is an output encoding.
type Format string

// Supported formats.
const (
	CSV  Format = "csv"
	JSON Format = "json"
	YAML Format = "yaml"
)

// Formats lists the supported formats.
var Formats = []Format{CSV, JSON, YAML}

// ParseFormat accepts a format name or file extension, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "csv":
		return CSV, nil
	case "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	}
	return "", fmt.Errorf("unsupported format: %q (use csv, json or yaml)", s)
}

// Ext returns the file extension without the dot.
func (f Format) Ext() string {
	return string(f)
}

// field is one exported key/value pair; rows keep table column order.
type field struct {
	key   string
	value any
}

type object []field

// MarshalJSON writes the fields in order.
func (o object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(f.value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// yamlNode builds a mapping node in field order.
func (o object) yamlNode() (*yaml.Node, error) {
	n := &yaml.Node{Kind: yaml.MappingNode}
	for _, f := range o {
		var v yaml.Node
		if err := v.Encode(f.value); err != nil {
			return nil, err
		}
		n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: f.key}, &v)
	}
	return n, nil
}

// jsonValue maps a cell to something JSON and YAML can hold. NaN and
// infinities become null.
func jsonValue(v any) any {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil
		}
		return x
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return v
	}
}

func tableObjects(t *metrics.Table) []object {
	out := make([]object, 0, t.Len())
	for _, r := range t.Rows {
		o := make(object, 0, len(t.Columns))
		for _, c := range t.Columns {
			o = append(o, field{c.Name, jsonValue(r.Value(c))})
		}
		out = append(out, o)
	}
	return out
}

// WriteTable writes every row of t to w.
func WriteTable(w io.Writer, t *metrics.Table, f Format) error {
	switch f {
	case CSV:
		cw := csv.NewWriter(w)
		header := make([]string, len(t.Columns))
		for i, c := range t.Columns {
			header[i] = c.Name
		}
		if err := cw.Write(header); err != nil {
			return fmt.Errorf("failed to write CSV header: %w", err)
		}
		for _, r := range t.Rows {
			row := make([]string, len(t.Columns))
			for i, c := range t.Columns {
				row[i] = r.Format(c)
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("failed to write CSV row: %w", err)
			}
		}
		cw.Flush()
		return cw.Error()
	case JSON, YAML:
		return encode(w, tableObjects(t), f)
	}
	return fmt.Errorf("unsupported format: %q", f)
}

var resultColumns = []string{"metric", "label", "unit", "current", "comparison", "delta_percent"}

func resultObjects(results []metrics.PeriodResult) []object {
	out := make([]object, 0, len(results))
	for _, r := range results {
		def, _ := metrics.Lookup(r.Metric)
		out = append(out, object{
			{"metric", r.Metric},
			{"label", def.Label},
			{"unit", def.Unit},
			{"current", jsonValue(r.Current)},
			{"comparison", jsonValue(r.Comparison)},
			{"delta_percent", jsonValue(r.DeltaPercent)},
		})
	}
	return out
}

// WriteResults writes period comparisons. In CSV an undefined value is
// written as NaN, Inf or -Inf so it stays distinguishable from zero.
func WriteResults(w io.Writer, results []metrics.PeriodResult, f Format) error {
	switch f {
	case CSV:
		cw := csv.NewWriter(w)
		if err := cw.Write(resultColumns); err != nil {
			return fmt.Errorf("failed to write CSV header: %w", err)
		}
		for _, r := range results {
			def, _ := metrics.Lookup(r.Metric)
			row := []string{
				r.Metric, def.Label, def.Unit,
				formatFloat(r.Current), formatFloat(r.Comparison), formatFloat(r.DeltaPercent),
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("failed to write CSV row: %w", err)
			}
		}
		cw.Flush()
		return cw.Error()
	case JSON, YAML:
		return encode(w, resultObjects(results), f)
	}
	return fmt.Errorf("unsupported format: %q", f)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func encode(w io.Writer, objs []object, f Format) error {
	if f == JSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(objs); err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		return nil
	}

	seq := &yaml.Node{Kind: yaml.SequenceNode}
	for _, o := range objs {
		n, err := o.yamlNode()
		if err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		seq.Content = append(seq.Content, n)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(seq); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return enc.Close()
}

// FileName returns the name an export of name taken at now is saved under,
// e.g. "whoop_sleep_20240301-081500.csv".
func FileName(name string, f Format, now time.Time) string {
	return fmt.Sprintf("whoop_%s_%s.%s", name, now.Format("20060102-150405"), f.Ext())
}

// SaveFile writes the output of write to dir/name. The file is renamed
// into place once complete.
func SaveFile(dir, name string, write func(io.Writer) error) (string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	path := filepath.Join(dir, name)
	tmpFile := path + ".tmp"

	file, err := os.OpenFile(tmpFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	if err := write(file); err != nil {
		_ = file.Close()
		_ = os.Remove(tmpFile)
		return "", err
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmpFile)
		return "", fmt.Errorf("failed to close export file: %w", err)
	}
	if err := os.Rename(tmpFile, path); err != nil {
		if removeErr := os.Remove(tmpFile); removeErr != nil {
			logger.Error("failed to remove temp file", "error", removeErr)
		}
		return "", fmt.Errorf("failed to rename export file: %w", err)
	}
	return path, nil
}

// SaveTable writes t to a new timestamped file in dir and returns its path.
func SaveTable(dir string, t *metrics.Table, f Format, now time.Time) (string, error) {
	return SaveFile(dir, FileName(string(t.Source), f, now), func(w io.Writer) error {
		return WriteTable(w, t, f)
	})
}

// SaveResults writes period comparisons to a new timestamped file in dir.
func SaveResults(dir string, results []metrics.PeriodResult, f Format, now time.Time) (string, error) {
	return SaveFile(dir, FileName("metrics", f, now), func(w io.Writer) error {
		return WriteResults(w, results, f)
	})
}
