// Package rosterfile reads and writes rosters as CSV or YAML.
package rosterfile

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/okian/linemate/internal/domain/model"
)

// Format is a roster encoding.
type Format string

const (
	CSV  Format = "csv"
	YAML Format = "yaml"
)

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return CSV, nil
	case ".yaml", ".yml":
		return YAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, path)
	}
}

// Load reads and validates the roster at path.
func Load(path string) ([]model.Player, error) {
	f, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster: %w", err)
	}
	return Read(bytes.NewReader(data), f)
}

// Save validates players and writes them to path, replacing it atomically.
func Save(path string, players []model.Player) error {
	f, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := Write(&buf, f, players); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".roster-*")
	if err != nil {
		return fmt.Errorf("failed to create roster file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write roster: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write roster: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace roster: %w", err)
	}
	return nil
}

// Read decodes and validates a roster.
func Read(r io.Reader, f Format) ([]model.Player, error) {
	var (
		players []model.Player
		err     error
	)
	switch f {
	case CSV:
		players, err = readCSV(r)
	case YAML:
		players, err = readYAML(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
	if err != nil {
		return nil, err
	}
	if err := Validate(players); err != nil {
		return nil, err
	}
	return players, nil
}

// Write validates and encodes a roster.
func Write(w io.Writer, f Format, players []model.Player) error {
	if err := Validate(players); err != nil {
		return err
	}
	switch f {
	case CSV:
		return writeCSV(w, players)
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(players); err != nil {
			return fmt.Errorf("failed to encode roster: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
}

func readYAML(r io.Reader) ([]model.Player, error) {
	var players []model.Player
	if err := yaml.NewDecoder(r).Decode(&players); err != nil {
		if errors.Is(err, io.EOF) {
			return []model.Player{}, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrMalformedRow, err)
	}
	return players, nil
}

// Column aliases; the French names match rosters exported by older tools.
var columns = map[string]string{ //nolint:gochecknoglobals // lookup table
	"name":           "name",
	"nom":            "name",
	"attack":         "attack",
	"talent_attaque": "attack",
	"defense":        "defense",
	"defence":        "defense",
	"talent_defense": "defense",
	"present":        "present",
}

func readCSV(r io.Reader) ([]model.Player, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return []model.Player{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrMalformedRow, err)
	}

	idx := map[string]int{}
	for i, h := range header {
		if c, ok := columns[strings.ToLower(strings.TrimSpace(h))]; ok {
			idx[c] = i
		}
	}
	for _, c := range []string{"name", "attack", "defense"} {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, c)
		}
	}

	players := []model.Player{}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrMalformedRow, line, err)
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		p, err := parseRow(rec, idx)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrMalformedRow, line, err)
		}
		players = append(players, p)
	}
	return players, nil
}

func parseRow(rec []string, idx map[string]int) (model.Player, error) {
	field := func(c string) string {
		i, ok := idx[c]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	p := model.Player{Name: field("name")}
	var err error
	if p.Attack, err = parseTalent(field("attack")); err != nil {
		return p, fmt.Errorf("attack: %w", err)
	}
	if p.Defense, err = parseTalent(field("defense")); err != nil {
		return p, fmt.Errorf("defense: %w", err)
	}
	if s := field("present"); s != "" {
		if p.Present, err = parseBool(s); err != nil {
			return p, fmt.Errorf("present: %w", err)
		}
	}
	return p, nil
}

// parseTalent treats an empty cell as zero.
func parseTalent(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "y", "oui", "x":
		return true, nil
	case "no", "n", "non":
		return false, nil
	}
	return strconv.ParseBool(s)
}

func writeCSV(w io.Writer, players []model.Player) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"name", "attack", "defense", "present"}); err != nil {
		return fmt.Errorf("failed to write roster header: %w", err)
	}
	for _, p := range players {
		rec := []string{
			p.Name,
			strconv.FormatFloat(p.Attack, 'f', -1, 64),
			strconv.FormatFloat(p.Defense, 'f', -1, 64),
			strconv.FormatBool(p.Present),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("failed to write roster row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
