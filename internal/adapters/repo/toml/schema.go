package toml

import "fmt"

const currentSchemaVersion = 1

type fileSchema struct {
	Version      int                 `toml:"version"`
	Active       string              `toml:"active,omitempty"`
	Environments []environmentSchema `toml:"environments"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported environments schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type environmentSchema struct {
	Name    string `toml:"name"`
	BaseURL string `toml:"base_url"`
}
