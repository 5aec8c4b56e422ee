package ports

import (
	"context"

	"github.com/bnema/allergyscan-cli/internal/domain"
)

type EnvironmentRepository interface {
	GetByName(ctx context.Context, name domain.EnvironmentName) (domain.Environment, error)
	List(ctx context.Context) ([]domain.Environment, error)
	Save(ctx context.Context, env domain.Environment) error
	Activate(ctx context.Context, name domain.EnvironmentName) error
	Active(ctx context.Context) (domain.Environment, error)
}
