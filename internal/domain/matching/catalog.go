package matching

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

var ErrInvalidCatalog = errors.New("invalid catalog")

// TargetProfile is one employer role a subject can be matched against.
type TargetProfile struct {
	Company string   `yaml:"company" json:"company"`
	Role    string   `yaml:"role" json:"role"`
	Skills  []string `yaml:"skills" json:"skills"`
}

type catalogFile struct {
	Profiles []TargetProfile `yaml:"profiles"`
}

// DefaultCatalog returns the catalog shipped with the binary.
func DefaultCatalog() ([]TargetProfile, error) {
	return ParseCatalog(bytes.NewReader(defaultCatalogYAML))
}

// LoadCatalog reads a catalog file, falling back to the built-in one when path is empty.
func LoadCatalog(path string) ([]TargetProfile, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return DefaultCatalog()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseCatalog(f)
}

func ParseCatalog(r io.Reader) ([]TargetProfile, error) {
	var cf catalogFile
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&cf); err != nil {
		if errors.Is(err, io.EOF) {
			return []TargetProfile{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	out := make([]TargetProfile, 0, len(cf.Profiles))
	for i, p := range cf.Profiles {
		p.Company = strings.TrimSpace(p.Company)
		p.Role = strings.TrimSpace(p.Role)
		if p.Company == "" || p.Role == "" {
			return nil, fmt.Errorf("%w: profile %d needs company and role", ErrInvalidCatalog, i)
		}
		out = append(out, p)
	}
	return out, nil
}
