package rosterfile

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okian/linemate/internal/domain/model"
)

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"roster.csv", CSV, false},
		{"ROSTER.CSV", CSV, false},
		{"a/b/roster.yaml", YAML, false},
		{"roster.yml", YAML, false},
		{"roster.json", "", true},
		{"roster", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatFromPath(tt.path)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadCSV(t *testing.T) {
	in := "name,attack,defense,present\n" +
		"Ann,8,3,true\n" +
		"Bo, 4.5 ,7,false\n" +
		"\n" +
		"Cy,6,,yes\n"

	players, err := Read(strings.NewReader(in), CSV)
	require.NoError(t, err)
	require.Len(t, players, 3)

	assert.Equal(t, model.Player{Name: "Ann", Attack: 8, Defense: 3, Present: true}, players[0])
	assert.Equal(t, 4.5, players[1].Attack)
	assert.False(t, players[1].Present)
	assert.Equal(t, 0.0, players[2].Defense)
	assert.True(t, players[2].Present)
}

func TestReadCSV_LegacyColumns(t *testing.T) {
	in := "nom,talent_attaque,talent_defense\nAnn,8,3\nBo,4,7\n"

	players, err := Read(strings.NewReader(in), CSV)
	require.NoError(t, err)
	require.Len(t, players, 2)
	assert.Equal(t, "Bo", players[1].Name)
	assert.False(t, players[0].Present, "missing present column means absent")
}

func TestReadCSV_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
	}{
		{"missing column", "name,attack\nAnn,3\n", ErrMissingColumn},
		{"bad number", "name,attack,defense\nAnn,high,3\n", ErrMalformedRow},
		{"bad bool", "name,attack,defense,present\nAnn,1,3,maybe\n", ErrMalformedRow},
		{"out of range", "name,attack,defense\nAnn,11,3\n", ErrInvalidPlayer},
		{"negative", "name,attack,defense\nAnn,1,-1\n", ErrInvalidPlayer},
		{"blank name", "name,attack,defense\n  ,1,1\n", ErrInvalidPlayer},
		{"duplicate", "name,attack,defense\nAnn Lee,1,1\nann  lee,2,2\n", ErrDuplicatePlayer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.in), CSV)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestReadEmpty(t *testing.T) {
	players, err := Read(strings.NewReader(""), CSV)
	require.NoError(t, err)
	assert.Empty(t, players)

	players, err = Read(strings.NewReader(""), YAML)
	require.NoError(t, err)
	assert.Empty(t, players)
}

func TestReadYAML(t *testing.T) {
	in := `
- name: Ann
  attack: 8
  defense: 3
  present: true
- name: Bo
  attack: 4
  defense: 7
`
	players, err := Read(strings.NewReader(in), YAML)
	require.NoError(t, err)
	require.Len(t, players, 2)
	assert.True(t, players[0].Present)
	assert.Equal(t, 7.0, players[1].Defense)

	_, err = Read(strings.NewReader("name: [unterminated"), YAML)
	assert.ErrorIs(t, err, ErrMalformedRow)

	_, err = Read(strings.NewReader("- name: Ann\n  attack: 12\n"), YAML)
	assert.ErrorIs(t, err, ErrInvalidPlayer)
}

func TestValidate_TalentBounds(t *testing.T) {
	assert.NoError(t, Validate([]model.Player{{Name: "Low", Attack: 0, Defense: 0}, {Name: "High", Attack: 10, Defense: 10}}))
	assert.ErrorIs(t, Validate([]model.Player{{Name: "Neg", Attack: -0.5, Defense: 3}}), ErrInvalidPlayer)
	assert.ErrorIs(t, Validate([]model.Player{{Name: "Over", Attack: 3, Defense: 10.5}}), ErrInvalidPlayer)
}

func TestWriteRoundTrip(t *testing.T) {
	players := []model.Player{
		{Name: "Ann, the Wall", Attack: 8, Defense: 3.5, Present: true},
		{Name: "Bo", Attack: 0, Defense: 10},
	}
	for _, f := range []Format{CSV, YAML} {
		t.Run(string(f), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Write(&buf, f, players))

			got, err := Read(&buf, f)
			require.NoError(t, err)
			assert.Equal(t, players, got)
		})
	}

	err := Write(&bytes.Buffer{}, CSV, []model.Player{{Name: "x"}, {Name: "X"}})
	assert.ErrorIs(t, err, ErrDuplicatePlayer)
	assert.ErrorIs(t, Write(&bytes.Buffer{}, "toml", nil), ErrUnsupportedFormat)
}

func TestLoadSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "roster.csv")
	players := []model.Player{{Name: "Ann", Attack: 8, Defense: 3, Present: true}}

	require.NoError(t, Save(path, players))
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, players, got)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file is cleaned up")

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
