// Package catalog reads treatment catalogs kept as YAML files.
package catalog

import (
	"fmt"
	"io"
	"os"
	"spadesk/pkg/model"

	"gopkg.in/yaml.v3"
)

type File struct {
	Services []*model.Service `yaml:"services"`
}

func Load(r io.Reader) ([]*model.Service, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	if len(f.Services) == 0 {
		return nil, fmt.Errorf("catalog contains no services")
	}
	return f.Services, nil
}

func LoadFile(path string) ([]*model.Service, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog %s: %w", path, err)
	}
	defer file.Close()

	return Load(file)
}
