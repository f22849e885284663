package fuzz

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordRoundTrip(t *testing.T) {
	dir := t.TempDir()
	rec := &Record{
		Seed:     "AA==",
		Relation: "failable-init",
		Outcome:  Crash,
		ExitCode: -1,
		Stderr:   "Stack dump:\n0. Program arguments: swiftc",
		Programs: []string{"public func a() {}", "public func a() { }"},
	}
	path, err := WriteRecord(dir, rec)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, rec.Digest()+".cbor"), path)

	got, err := ReadRecord(path)
	require.NoError(t, err)
	if diff := cmp.Diff(rec, got); diff != "" {
		t.Fatalf("record changed on disk (-want +got):\n%s", diff)
	}
}

func TestRecordEncodingIsCanonical(t *testing.T) {
	rec := &Record{Version: recordVersion, Seed: "AQ==", Outcome: Failure, Programs: []string{"x"}}
	a, err := rec.MarshalBinary()
	require.NoError(t, err)
	b, err := rec.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRecordDigest(t *testing.T) {
	a := &Record{Seed: "AA==", Programs: []string{"ab", "c"}}
	b := &Record{Seed: "AA==", Programs: []string{"a", "bc"}}
	c := &Record{Seed: "AA==", Programs: []string{"ab", "c"}}
	assert.NotEqual(t, a.Digest(), b.Digest())
	assert.Equal(t, a.Digest(), c.Digest())
	assert.Len(t, a.Digest(), 24)
}

func TestReadRecordRejectsOtherVersions(t *testing.T) {
	rec := &Record{Version: 9, Seed: "AA=="}
	data, err := rec.MarshalBinary()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "old.cbor")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err = ReadRecord(path)
	assert.ErrorContains(t, err, "unsupported record version 9")
}
