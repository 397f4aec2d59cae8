package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/AdamBeresnev/beerpong/internal/bracket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const layoutFile = `
name: Summer Cup
teams: [Aces, Bouncers, Cups]
brackets:
  - id: semi
    left: {team: Aces}
    right: {team: Bouncers}
  - id: final
    left: {bracket: semi}
    right: {team: Cups}
`

var uuidPattern = regexp.MustCompile(`[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)

func TestMain(m *testing.M) {
	bracket.SetFingerprintCost(bcrypt.MinCost)
	os.Exit(m.Run())
}

func runCLI(t *testing.T, dbPath string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	args = append([]string{"-db", dbPath, "-migrations", "../../migrations"}, args...)
	err := run(context.Background(), args, &out)
	return out.String(), err
}

func TestImportShowScore(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "beerpong.db")
	layoutPath := filepath.Join(dir, "cup.yaml")
	require.NoError(t, os.WriteFile(layoutPath, []byte(layoutFile), 0o600))

	out, err := runCLI(t, dbPath, "import", layoutPath)
	require.NoError(t, err)
	assert.Contains(t, out, `Created "Summer Cup"`)
	assert.Regexp(t, `Aces\s+[a-z0-9]{4}\n`, out)
	assert.Regexp(t, `Cups\s+[a-z0-9]{4}\n`, out)

	_, err = runCLI(t, dbPath, "import", layoutPath)
	assert.Error(t, err, "tournament names are unique")

	out, err = runCLI(t, dbPath, "show", "summer cup")
	require.NoError(t, err)
	assert.Contains(t, out, "Summer Cup (draft)")
	ids := uuidPattern.FindAllString(out, -1)
	require.NotEmpty(t, ids)
	semiID := ids[0]

	out, err = runCLI(t, dbPath, "score", "Summer Cup", semiID, "10", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "Summer Cup (started)")
	assert.Contains(t, out, "10:4")

	_, err = runCLI(t, dbPath, "score", "Summer Cup", semiID, "10", "4")
	assert.Error(t, err, "a played bracket can't be scored again")
}

func TestCLIErrors(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "beerpong.db")

	testCases := []struct {
		name string
		args []string
	}{
		{name: "no command", args: nil},
		{name: "unknown command", args: []string{"seed"}},
		{name: "missing layout", args: []string{"import"}},
		{name: "unknown tournament", args: []string{"show", "Nope"}},
		{name: "bad score", args: []string{"score", "Nope", "x", "1", "2"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := runCLI(t, dbPath, tc.args...)
			assert.Error(t, err)
		})
	}
}

func TestImportRejectedLayoutCanBeRetried(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "beerpong.db")
	layoutPath := filepath.Join(dir, "cup.yaml")

	rematch := layoutFile + `  - id: rematch
    left: {team: Aces}
    right: {bracket: semi}
`
	require.NoError(t, os.WriteFile(layoutPath, []byte(rematch), 0o600))
	_, err := runCLI(t, dbPath, "import", layoutPath)
	assert.ErrorIs(t, err, bracket.ErrValidation)

	_, err = runCLI(t, dbPath, "show", "Summer Cup")
	assert.ErrorIs(t, err, bracket.ErrNotFound)

	require.NoError(t, os.WriteFile(layoutPath, []byte(layoutFile), 0o600))
	out, err := runCLI(t, dbPath, "import", layoutPath)
	require.NoError(t, err)
	assert.Regexp(t, `Aces\s+[a-z0-9]{4}\n`, out)
}
