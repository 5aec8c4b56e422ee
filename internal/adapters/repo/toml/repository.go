// Package toml stores named API environments in a TOML file.
package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bnema/allergyscan-cli/internal/domain"
	"github.com/bnema/allergyscan-cli/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
)

const (
	environmentsFileMode = 0o600
	environmentsDirMode  = 0o700
	tempFilePattern      = ".environments-*.toml.tmp"
)

type Repository struct {
	path string
	mu   *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.EnvironmentRepository = (*Repository)(nil)

func NewRepository(path string) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("environments path is empty")
	}

	path, err := normalizePath(path)
	if err != nil {
		return nil, err
	}

	return &Repository{path: path, mu: lockForPath(path)}, nil
}

func (r *Repository) Path() string {
	return r.path
}

// Save adds env or replaces the environment with the same name. The active
// marker is left alone; use Activate to change it.
func (r *Repository) Save(ctx context.Context, env domain.Environment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	env.Name = domain.EnvironmentName(strings.TrimSpace(string(env.Name)))
	env.BaseURL = domain.NormalizeBaseURL(env.BaseURL)
	if err := env.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}

	encoded := environmentSchema{Name: string(env.Name), BaseURL: env.BaseURL}
	updated := false
	for i := range file.Environments {
		if file.Environments[i].Name == encoded.Name {
			file.Environments[i] = encoded
			updated = true
			break
		}
	}
	if !updated {
		file.Environments = append(file.Environments, encoded)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	return r.writeSchema(file)
}

func (r *Repository) GetByName(ctx context.Context, name domain.EnvironmentName) (domain.Environment, error) {
	if err := ctx.Err(); err != nil {
		return domain.Environment{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return domain.Environment{}, err
	}

	for _, entry := range file.Environments {
		if entry.Name == string(name) {
			return fromSchema(entry, file.Active), nil
		}
	}

	return domain.Environment{}, fmt.Errorf("%w: %s", domain.ErrEnvironmentNotFound, name)
}

func (r *Repository) List(ctx context.Context) ([]domain.Environment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return nil, err
	}

	environments := make([]domain.Environment, 0, len(file.Environments))
	for _, entry := range file.Environments {
		environments = append(environments, fromSchema(entry, file.Active))
	}

	return environments, nil
}

func (r *Repository) Activate(ctx context.Context, name domain.EnvironmentName) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}

	found := false
	for _, entry := range file.Environments {
		if entry.Name == string(name) {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: %s", domain.ErrEnvironmentNotFound, name)
	}

	file.Active = string(name)
	return r.writeSchema(file)
}

func (r *Repository) Active(ctx context.Context) (domain.Environment, error) {
	if err := ctx.Err(); err != nil {
		return domain.Environment{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return domain.Environment{}, err
	}

	if file.Active != "" {
		for _, entry := range file.Environments {
			if entry.Name == file.Active {
				return fromSchema(entry, file.Active), nil
			}
		}
	}

	return domain.Environment{}, domain.ErrEnvironmentNotFound
}

func (r *Repository) readSchema() (fileSchema, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			file := fileSchema{}
			file.applyDefaults()
			return file, nil
		}
		return fileSchema{}, fmt.Errorf("read environments file: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema{}, fmt.Errorf("decode environments file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func (r *Repository) writeSchema(file fileSchema) error {
	file.applyDefaults()

	if err := os.MkdirAll(filepath.Dir(r.path), environmentsDirMode); err != nil {
		return fmt.Errorf("create environments directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode environments file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(r.path), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp environments file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp environments file: %w", err)
	}

	if err := tempFile.Chmod(environmentsFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp environments file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp environments file: %w", err)
	}

	if err := os.Rename(tempName, r.path); err != nil {
		return fmt.Errorf("replace environments file: %w", err)
	}

	cleanup = false
	return nil
}

func fromSchema(entry environmentSchema, active string) domain.Environment {
	return domain.Environment{
		Name:    domain.EnvironmentName(entry.Name),
		BaseURL: entry.BaseURL,
		Active:  entry.Name == active,
	}
}

func normalizePath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve environments path: %w", err)
	}

	return filepath.Clean(absPath), nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}
