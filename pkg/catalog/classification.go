package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// TokenSpec names a named kind that is a lexical token.
type TokenSpec struct {
	Kind string `yaml:"kind"`
	// ID is the kind id stored in tokeninfo. Zero means "assign one".
	ID int `yaml:"id"`
}

// Classification says which kinds are tokens. Unions and tables follow from
// the model; token-ness does not, so it has to be supplied.
type Classification struct {
	// UnnamedTokens treats every unnamed kind as a token. Defaults to true.
	UnnamedTokens bool        `yaml:"unnamed_tokens"`
	Tokens        []TokenSpec `yaml:"tokens"`
}

// DefaultClassification treats unnamed kinds as tokens and nothing else.
func DefaultClassification() *Classification {
	return &Classification{UnnamedTokens: true}
}

// ParseClassification decodes a YAML classification document.
func ParseClassification(r io.Reader) (*Classification, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read classification: %w", err)
	}

	cls := DefaultClassification()
	if len(bytes.TrimSpace(data)) == 0 {
		return cls, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cls); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse classification: %w", err)
	}

	seen := make(map[string]bool, len(cls.Tokens))
	for _, tok := range cls.Tokens {
		if tok.Kind == "" {
			return nil, errors.New("token entry without kind")
		}
		if tok.ID < 0 {
			return nil, fmt.Errorf("token %q: negative id %d", tok.Kind, tok.ID)
		}
		if seen[tok.Kind] {
			return nil, fmt.Errorf("token %q listed twice", tok.Kind)
		}
		seen[tok.Kind] = true
	}
	return cls, nil
}

// LoadClassification reads a classification file. An empty path yields the
// default classification.
func LoadClassification(path string) (*Classification, error) {
	if path == "" {
		return DefaultClassification(), nil
	}
	f, err := os.Open(path) //nolint:gosec // G304: path comes from the user's config
	if err != nil {
		return nil, fmt.Errorf("failed to open classification: %w", err)
	}
	defer func() { _ = f.Close() }()

	cls, err := ParseClassification(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cls, nil
}
