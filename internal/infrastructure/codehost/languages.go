package codehost

import (
	"encoding/json"
	"fmt"
	"io"

	"skill-radar/internal/domain/source"
)

// decodeLanguages reads a {"Language": bytes, ...} object keeping the key order of the
// response, which decoding into a map would lose.
func decodeLanguages(r io.Reader) (source.LanguageTotals, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("languages: expected object, got %v", tok)
	}

	out := source.LanguageTotals{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		lang, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("languages: expected key, got %v", tok)
		}

		var n json.Number
		if err := dec.Decode(&n); err != nil {
			return nil, fmt.Errorf("languages: %s: %w", lang, err)
		}
		bytes, err := n.Int64()
		if err != nil {
			return nil, fmt.Errorf("languages: %s: %w", lang, err)
		}
		out = out.Add(lang, bytes)
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return out, nil
}
