package catalog

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// file is the on-disk YAML layout:
//
//	cities:
//	  - name: Boston
//	    code: BOS
//	    aliases: [beantown]
type file struct {
	Cities []City `yaml:"cities"`
}

// LoadFile reads a YAML city table from path.
func LoadFile(path string) ([]City, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %q: %w", path, err)
	}
	defer f.Close()
	return LoadYAML(f)
}

// LoadYAML decodes a YAML city table from r. Unknown keys are rejected.
func LoadYAML(r io.Reader) ([]City, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f file
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("catalog: decode YAML: %w", err)
	}
	return f.Cities, nil
}

// Merge combines city tables. Later tables override earlier entries that
// share an airport code, and append aliases rather than replacing them when
// the override has none.
func Merge(tables ...[]City) []City {
	var (
		out   []City
		index = make(map[string]int)
	)
	for _, table := range tables {
		for _, c := range table {
			code := strings.ToUpper(strings.TrimSpace(c.Code))
			if i, ok := index[code]; ok {
				if len(c.Aliases) == 0 {
					c.Aliases = out[i].Aliases
				}
				out[i] = c
				continue
			}
			index[code] = len(out)
			out = append(out, c)
		}
	}
	return out
}

// Defaults returns a copy of the built-in city table, for merging.
func Defaults() []City {
	out := make([]City, len(defaultCities))
	copy(out, defaultCities)
	return out
}
