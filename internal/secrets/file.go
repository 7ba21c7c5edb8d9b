package secrets

import (
	"context"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// FileProvider serves secrets from a local YAML file keyed by secret
// name. Development only; the file mirrors the Secrets Manager layout:
//
//	nanumsa/DB/postgres/prod:
//	  username: nanumsa
//	  password: hunter2
//	  dbname: nanumsa
type FileProvider struct {
	values map[string]map[string]string
}

func NewFileProvider(path string) (*FileProvider, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading secrets file: %w", err)
	}

	var values map[string]map[string]string
	if err := yaml.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("parsing secrets file %q: %w", path, err)
	}
	return &FileProvider{values: values}, nil
}

func (p *FileProvider) Get(_ context.Context, name string) (map[string]string, error) {
	v, ok := p.values[name]
	if !ok {
		return nil, fmt.Errorf("secret %q not present in secrets file", name)
	}
	return v, nil
}
