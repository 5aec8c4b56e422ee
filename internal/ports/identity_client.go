package ports

import (
	"context"

	"github.com/bnema/allergyscan-cli/internal/domain"
)

type IdentityClient interface {
	Login(ctx context.Context, username, password string) (domain.TokenPair, error)
	Register(ctx context.Context, email, username, password string) error
	Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error)
	Me(ctx context.Context, accessToken string) (domain.User, error)
}

type ProfileClient interface {
	UpdateAllergies(ctx context.Context, accessToken string, allergies []domain.Allergy) error
	CommonAllergies(ctx context.Context) ([]domain.Allergy, error)
}
