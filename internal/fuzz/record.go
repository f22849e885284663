package fuzz

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/blake2b"
)

const recordVersion = 1

// Record is an archived bug candidate. It holds everything needed to
// reproduce the trial: the seed and relation regenerate the programs, and
// the programs themselves survive generator changes.
type Record struct {
	Version  uint8
	Seed     string
	Relation string
	Outcome  Outcome
	ExitCode int
	Stderr   string
	Programs []string
}

// Digest names a record by its seed, relation and programs, so rerunning a
// seed overwrites its earlier record.
func (r *Record) Digest() string {
	h, err := blake2b.New256(nil)
	if err != nil {
		panic(fmt.Sprintf("blake2b.New256 failed: %v", err))
	}
	for _, p := range append([]string{r.Seed, r.Relation}, r.Programs...) {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:24]
}

func (r *Record) MarshalBinary() ([]byte, error) {
	encMode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, fmt.Errorf("failed to create CBOR encoder: %w", err)
	}
	type recordAlias Record
	data, err := encMode.Marshal((*recordAlias)(r))
	if err != nil {
		return nil, fmt.Errorf("CBOR encoding failed: %w", err)
	}
	return data, nil
}

func (r *Record) UnmarshalBinary(data []byte) error {
	type recordAlias Record
	if err := cbor.Unmarshal(data, (*recordAlias)(r)); err != nil {
		return fmt.Errorf("CBOR decoding failed: %w", err)
	}
	if r.Version != recordVersion {
		return fmt.Errorf("unsupported record version %d", r.Version)
	}
	return nil
}

// WriteRecord stores r under dir and returns its path.
func WriteRecord(dir string, r *Record) (string, error) {
	r.Version = recordVersion
	data, err := r.MarshalBinary()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, r.Digest()+".cbor")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func ReadRecord(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	r := &Record{}
	if err := r.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}
