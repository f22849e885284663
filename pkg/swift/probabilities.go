package swift

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"swiftsmith/internal/invariant"
)

//go:embed probabilities.schema.json
var probabilitySchemaJSON string

const probabilitySchemaURL = "schema://probabilities.json"

var probabilitySchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(probabilitySchemaURL, strings.NewReader(probabilitySchemaJSON)); err != nil {
		return nil, err
	}
	return compiler.Compile(probabilitySchemaURL)
})

// ReadProbabilities parses a probability configuration: a JSON object
// mapping production labels to non-negative weights.
func ReadProbabilities(r io.Reader) (map[string]float64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read probability configuration: %w", err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse probability configuration: %w", err)
	}
	schema, err := probabilitySchema()
	if err != nil {
		return nil, fmt.Errorf("compile probability schema: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("invalid probability configuration: %w", err)
	}
	var weights map[string]float64
	if err := json.Unmarshal(data, &weights); err != nil {
		return nil, fmt.Errorf("parse probability configuration: %w", err)
	}
	return weights, nil
}

// WriteProbabilities writes weights in the format ReadProbabilities accepts.
func WriteProbabilities(w io.Writer, weights map[string]float64) error {
	data, err := json.MarshalIndent(weights, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// ApplyProbabilities sets the weight of every labeled production named in
// weights. Labels are applied in sorted order and the first unknown label
// stops the update. Weights that leave a nonterminal with nothing to sample
// are an error, and the language is left unchanged.
func (l *Language) ApplyProbabilities(weights map[string]float64) error {
	labels := make([]string, 0, len(weights))
	for label := range weights {
		labels = append(labels, label)
	}
	slices.Sort(labels)
	before := l.Weights()
	restore := func() {
		for label, w := range before {
			invariant.ExpectNoError(l.SetWeight(label, w), "restore weight")
		}
	}
	for _, label := range labels {
		if err := l.SetWeight(label, weights[label]); err != nil {
			restore()
			return err
		}
	}
	if err := l.grammar.CheckGroups(); err != nil {
		restore()
		return err
	}
	return nil
}
