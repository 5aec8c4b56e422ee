package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/bnema/allergyscan-cli/internal/domain"
	"github.com/bnema/allergyscan-cli/internal/ports"
)

// ProfileService edits the allergy list of the logged-in user.
type ProfileService struct {
	session  *SessionManager
	profiles ports.ProfileClient
}

func NewProfileService(session *SessionManager, profiles ports.ProfileClient) *ProfileService {
	return &ProfileService{session: session, profiles: profiles}
}

func (p *ProfileService) Allergies() ([]domain.Allergy, error) {
	user, err := p.currentUser()
	if err != nil {
		return nil, err
	}
	return user.Allergies, nil
}

func (p *ProfileService) CommonAllergies(ctx context.Context) ([]domain.Allergy, error) {
	allergies, err := p.profiles.CommonAllergies(ctx)
	if err != nil {
		return nil, fmt.Errorf("list common allergies: %w", err)
	}
	return allergies, nil
}

// AddAllergy adds the common allergy matching nameOrID to the profile, or
// updates its severity and notes when it is already listed.
func (p *ProfileService) AddAllergy(ctx context.Context, nameOrID string, severity domain.Severity, notes string) (domain.Allergy, error) {
	user, err := p.currentUser()
	if err != nil {
		return domain.Allergy{}, err
	}

	common, err := p.CommonAllergies(ctx)
	if err != nil {
		return domain.Allergy{}, err
	}
	allergy, ok := findAllergy(common, nameOrID)
	if !ok {
		return domain.Allergy{}, fmt.Errorf("%w: unknown allergy %q", domain.ErrInvalidInput, nameOrID)
	}
	if severity != "" {
		allergy.Severity = &severity
	}
	if notes = strings.TrimSpace(notes); notes != "" {
		allergy.Notes = &notes
	}

	if err := p.save(ctx, domain.WithAllergy(user.Allergies, allergy)); err != nil {
		return domain.Allergy{}, err
	}
	return allergy, nil
}

func (p *ProfileService) RemoveAllergy(ctx context.Context, nameOrID string) (domain.Allergy, error) {
	user, err := p.currentUser()
	if err != nil {
		return domain.Allergy{}, err
	}

	allergy, ok := findAllergy(user.Allergies, nameOrID)
	if !ok {
		return domain.Allergy{}, fmt.Errorf("%w: %q is not in your allergy profile", domain.ErrInvalidInput, nameOrID)
	}
	remaining, _ := domain.WithoutAllergy(user.Allergies, allergy.ID)

	if err := p.save(ctx, remaining); err != nil {
		return domain.Allergy{}, err
	}
	return allergy, nil
}

func (p *ProfileService) save(ctx context.Context, allergies []domain.Allergy) error {
	err := p.session.WithAccessToken(ctx, func(ctx context.Context, accessToken string) error {
		return p.profiles.UpdateAllergies(ctx, accessToken, allergies)
	})
	if err != nil {
		return fmt.Errorf("update allergies: %w", err)
	}

	return p.session.ReloadProfile(ctx)
}

func (p *ProfileService) currentUser() (domain.User, error) {
	snapshot := p.session.Snapshot()
	if !snapshot.IsAuthenticated() {
		return domain.User{}, domain.ErrNotAuthenticated
	}
	return *snapshot.User, nil
}

func findAllergy(allergies []domain.Allergy, nameOrID string) (domain.Allergy, bool) {
	needle := strings.TrimSpace(nameOrID)
	for _, allergy := range allergies {
		if allergy.ID == needle || strings.EqualFold(allergy.Name, needle) {
			return allergy, true
		}
	}
	return domain.Allergy{}, false
}
