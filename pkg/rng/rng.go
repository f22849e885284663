// Package rng is the seedable random source shared by every generation step.
//
// A Source is never global: each generation (and each fuzzing trial) owns one,
// so runs are reproducible from their seed and cannot interfere with each other.
package rng

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"os"
	"runtime"
	"strings"

	"golang.org/x/crypto/blake2b"
)

const (
	lcgA    uint64 = 0x5DEECE66D
	lcgC    uint64 = 0xB
	lcgMask uint64 = (1 << 48) - 1
)

// Source uses the libc srand48/lrand48 recurrence.
type Source struct {
	state     uint64
	trace     bool
	traceSite bool
	traceFile string
	tracePos  uint64
}

// New seeds a Source the way srand48 does.
func New(seed uint64) *Source {
	s := &Source{state: ((seed << 16) + 0x330E) & lcgMask}
	if os.Getenv("SWIFTSMITH_TRACE_RNG") != "" {
		s.trace = true
		s.traceSite = os.Getenv("SWIFTSMITH_TRACE_RNG_SITE") != ""
		s.traceFile = os.Getenv("SWIFTSMITH_TRACE_RNG_FILE")
		if s.traceFile == "" {
			s.traceFile = "/tmp/swiftsmith-rng.trace"
		}
		_ = os.WriteFile(s.traceFile, []byte(fmt.Sprintf("# seed=%d\n", seed)), 0o644)
	}
	return s
}

// SeedFromString hashes an arbitrary seed string (typically base64) into a
// 64-bit seed, so any text the user passes selects a distinct stream.
func SeedFromString(seed string) uint64 {
	sum := blake2b.Sum256([]byte(seed))
	return binary.LittleEndian.Uint64(sum[:8])
}

// NewSeed draws 32 random bytes and encodes them as base64, the seed format
// printed in generated headers and crash records.
func NewSeed() (string, error) {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("draw seed: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b[:]), nil
}

// FromString is New(SeedFromString(seed)).
func FromString(seed string) *Source {
	return New(SeedFromString(seed))
}

func (s *Source) next31() uint32 {
	s.state = (lcgA*s.state + lcgC) & lcgMask
	return uint32(s.state >> 17)
}

// Upto returns a value in [0, n). Upto(0) is 0 and consumes nothing.
func (s *Source) Upto(n uint32) uint32 {
	if n == 0 {
		return 0
	}
	x := s.next31() % n
	s.tracef("U %d -> %d", n, x)
	return x
}

// Intn is Upto for int bounds.
func (s *Source) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(s.Upto(uint32(n)))
}

// Between returns a value in the closed range [lo, hi].
func (s *Source) Between(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + s.Intn(hi-lo+1)
}

// Flipcoin is true with probability p percent.
func (s *Source) Flipcoin(p uint32) bool {
	if p > 100 {
		p = 100
	}
	ok := s.next31()%100 < p
	s.tracef("F %d -> %t", p, ok)
	return ok
}

// Float64 returns a value in [0, 1).
func (s *Source) Float64() float64 {
	return float64(s.next31()) / float64(1<<31)
}

// Weighted picks an index with probability proportional to its weight.
// It reports false when no weight is positive.
func (s *Source) Weighted(weights []float64) (int, bool) {
	total := 0.0
	last := -1
	for i, w := range weights {
		if w > 0 {
			total += w
			last = i
		}
	}
	if last < 0 {
		return 0, false
	}
	x := s.Float64() * total
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		if x < w {
			s.tracef("W %d -> %d", len(weights), i)
			return i, true
		}
		x -= w
	}
	// float rounding can leave x just above the last bucket
	s.tracef("W %d -> %d", len(weights), last)
	return last, true
}

func (s *Source) tracef(format string, args ...any) {
	if !s.trace {
		return
	}
	s.tracePos++
	f, err := os.OpenFile(s.traceFile, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return
	}
	line := fmt.Sprintf("%d "+format, append([]any{s.tracePos}, args...)...)
	if s.traceSite {
		line += " @" + traceCaller()
	}
	_, _ = fmt.Fprintln(f, line)
	_ = f.Close()
}

func traceCaller() string {
	var pcs [12]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])
	for {
		fr, more := frames.Next()
		if fr.Function != "" && !strings.HasPrefix(fr.Function, "swiftsmith/pkg/rng.") {
			return fr.Function
		}
		if !more {
			break
		}
	}
	return "unknown"
}
