package application

import (
	"context"
	"fmt"

	"github.com/bnema/allergyscan-cli/internal/domain"
	"github.com/bnema/allergyscan-cli/internal/ports"
)

type MedicineService struct {
	session *SessionManager
	client  ports.MedicineClient
}

func NewMedicineService(session *SessionManager, client ports.MedicineClient) *MedicineService {
	return &MedicineService{session: session, client: client}
}

func (m *MedicineService) List(ctx context.Context) ([]domain.Medicine, error) {
	var medicines []domain.Medicine
	err := m.session.WithAccessToken(ctx, func(ctx context.Context, accessToken string) error {
		var err error
		medicines, err = m.client.ListMedicines(ctx, accessToken)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list medicines: %w", err)
	}
	return medicines, nil
}

func (m *MedicineService) Add(ctx context.Context, medicine domain.Medicine) (domain.Medicine, error) {
	if err := medicine.Validate(); err != nil {
		return domain.Medicine{}, err
	}

	var created domain.Medicine
	err := m.session.WithAccessToken(ctx, func(ctx context.Context, accessToken string) error {
		var err error
		created, err = m.client.CreateMedicine(ctx, accessToken, medicine)
		return err
	})
	if err != nil {
		return domain.Medicine{}, fmt.Errorf("add medicine: %w", err)
	}
	return created, nil
}

func (m *MedicineService) Update(ctx context.Context, medicine domain.Medicine) (domain.Medicine, error) {
	if err := medicine.Validate(); err != nil {
		return domain.Medicine{}, err
	}

	var updated domain.Medicine
	err := m.session.WithAccessToken(ctx, func(ctx context.Context, accessToken string) error {
		var err error
		updated, err = m.client.UpdateMedicine(ctx, accessToken, medicine)
		return err
	})
	if err != nil {
		return domain.Medicine{}, fmt.Errorf("update medicine %d: %w", medicine.ID, err)
	}
	return updated, nil
}

func (m *MedicineService) Delete(ctx context.Context, id int64) error {
	err := m.session.WithAccessToken(ctx, func(ctx context.Context, accessToken string) error {
		return m.client.DeleteMedicine(ctx, accessToken, id)
	})
	if err != nil {
		return fmt.Errorf("delete medicine %d: %w", id, err)
	}
	return nil
}
