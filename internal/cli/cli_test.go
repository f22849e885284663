package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swiftsmith/internal/fuzz"
	"swiftsmith/pkg/swift"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Equal(t, "swiftsmith 0.1.0\n", out)
}

func TestGenerateToStdout(t *testing.T) {
	out, err := execute(t, "--seed", "AA==")
	require.NoError(t, err)
	assert.Contains(t, out, "// Seed:      AA==\n")
	assert.Contains(t, out, "public func main(_ ")

	positional, err := execute(t, "AA==")
	require.NoError(t, err)
	assert.Equal(t, out, positional)
}

func TestGenerateRandomSeed(t *testing.T) {
	out, err := execute(t)
	require.NoError(t, err)
	assert.Regexp(t, `// Seed:      [A-Za-z0-9+/]{43}=\n`, out)
}

func TestGenerateSeedConflict(t *testing.T) {
	_, err := execute(t, "--seed", "AA==", "AQ==")
	assert.ErrorContains(t, err, "options conflict")
}

func TestGenerateNegatedFlags(t *testing.T) {
	out, err := execute(t, "AA==", "--no-main", "--no-header")
	require.NoError(t, err)
	assert.NotContains(t, out, "// Seed:")
	assert.NotContains(t, out, "main(")
}

func TestGenerateVariantsToFiles(t *testing.T) {
	base := filepath.Join(t.TempDir(), "prog.swift")
	_, err := execute(t, "AA==", "-o", base, "--relation", "unnecessary-addition")
	require.NoError(t, err)

	dir := filepath.Dir(base)
	a, err := os.ReadFile(filepath.Join(dir, "progA.swift"))
	require.NoError(t, err)
	b, err := os.ReadFile(filepath.Join(dir, "progB.swift"))
	require.NoError(t, err)
	assert.Contains(t, string(a), "// Variant:   A\n")
	assert.Contains(t, string(b), "// Variant:   B unnecessary-addition\n")
	assert.NoFileExists(t, base)
}

func TestGenerateSingleFile(t *testing.T) {
	base := filepath.Join(t.TempDir(), "prog")
	_, err := execute(t, "AA==", "-o", base)
	require.NoError(t, err)
	assert.FileExists(t, base+".swift")
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"unknown relation", []string{"AA==", "--relation", "unnecessary-additon"}, "unnecessary-addition"},
		{"bad weight", []string{"AA==", "--probability", "program.enum=often"}, `invalid weight for "program.enum"`},
		{"unknown label", []string{"AA==", "--probability", "program.enm=1"}, "program.enum"},
		{"bad version", []string{"AA==", "--language-version", "five"}, "invalid language version"},
		{"bad log level", []string{"AA==", "--log-level", "loud"}, "invalid --log-level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestGenerateProbabilityFlag(t *testing.T) {
	out, err := execute(t, "AA==", "--probability", "program.enum=0", "--probability", "program.function=0")
	require.NoError(t, err)
	assert.NotContains(t, out, "enum ")
}

func TestGrammarWeights(t *testing.T) {
	out, err := execute(t, "grammar", "weights", "--probability", "program.enum=0.75")
	require.NoError(t, err)

	weights, err := swift.ReadProbabilities(strings.NewReader(out))
	require.NoError(t, err)
	assert.InDelta(t, 0.75, weights["program.enum"], 1e-9)
	assert.InDelta(t, 0.4, weights["program.function"], 1e-9)

	// The dump is itself a valid configuration.
	path := filepath.Join(t.TempDir(), "weights.json")
	_, err = execute(t, "grammar", "weights", "-o", path)
	require.NoError(t, err)
	_, err = execute(t, "AA==", "--probability-configuration", path)
	assert.NoError(t, err)
}

func TestGrammarPrintAndCheck(t *testing.T) {
	out, err := execute(t, "grammar", "print")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "CFG:\n"))
	assert.Contains(t, out, "S → ")

	out, err = execute(t, "grammar", "check")
	require.NoError(t, err)
	assert.Contains(t, out, "nonterminals: ")
	assert.Contains(t, out, "LL(1): ")
}

func TestFuzzCommand(t *testing.T) {
	dir := t.TempDir()
	crashes := filepath.Join(dir, "crashes")
	out, err := execute(t, "fuzz", "-n", "2", "-j", "1",
		"--work-dir", dir, "--crash-dir", crashes, "--compiler", "false")
	require.NoError(t, err)
	assert.Contains(t, out, "trials: 2\tok: 0\tfailures: 2")

	records, err := filepath.Glob(filepath.Join(crashes, "*.cbor"))
	require.NoError(t, err)
	require.Len(t, records, 2)

	rec, err := fuzz.ReadRecord(records[0])
	require.NoError(t, err)
	out, err = execute(t, "fuzz", "show", "--programs", records[0])
	require.NoError(t, err)
	assert.Contains(t, out, "  seed:      "+rec.Seed+"\n")
	assert.Contains(t, out, "  outcome:   failure\n")
	assert.Contains(t, out, "  program A:\n    // This is a RANDOMLY GENERATED PROGRAM.")
}
