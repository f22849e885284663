package swift

import (
	"fmt"
	"maps"
	"os"
	"strings"

	"swiftsmith/pkg/grammar"
)

// Options is the API-level configuration of one generation.
type Options struct {
	// Seed selects the random stream. Any text works; generated seeds are
	// base64 so they survive shells and file names.
	Seed string

	// LanguageVersion is the targeted Swift version, e.g. "5.9".
	LanguageVersion string

	// ProbabilityConfiguration is the path of a JSON file of production
	// weights, applied before Probabilities.
	ProbabilityConfiguration string
	Probabilities            map[string]float64

	// MetamorphicRelation names the relation that produces variant B. Empty
	// means no variant.
	MetamorphicRelation string

	NoMain   bool
	NoHeader bool
}

func Defaults() Options {
	return Options{
		LanguageVersion: DefaultVersion,
	}
}

func (o Options) Validate() error {
	if strings.TrimSpace(o.Seed) == "" {
		return fmt.Errorf("seed must not be empty")
	}
	if _, err := canonicalVersion(o.LanguageVersion); err != nil {
		return err
	}
	if o.MetamorphicRelation != "" {
		if _, err := LookupRelation(o.MetamorphicRelation); err != nil {
			return err
		}
		if o.NoMain {
			return fmt.Errorf("a metamorphic relation needs main to compare the variants: drop --no-main")
		}
	}
	for label, w := range o.Probabilities {
		if err := grammar.CheckWeight(label, w); err != nil {
			return err
		}
	}
	return nil
}

// Language builds the grammar with every configured weight applied. The
// Probabilities map overrides labels from the configuration file.
func (o Options) Language() (*Language, error) {
	l, err := NewLanguage(o.LanguageVersion)
	if err != nil {
		return nil, err
	}
	weights := map[string]float64{}
	if path := strings.TrimSpace(o.ProbabilityConfiguration); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		weights, err = ReadProbabilities(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	maps.Copy(weights, o.Probabilities)
	if err := l.ApplyProbabilities(weights); err != nil {
		return nil, err
	}
	return l, nil
}
