package ports

import (
	"context"
	"io"

	"github.com/bnema/allergyscan-cli/internal/domain"
)

type OCRClient interface {
	ExtractText(ctx context.Context, fileName string, image io.Reader) (string, error)
}

type AllergenDetector interface {
	DetectAllergens(ctx context.Context, text string) ([]domain.Allergen, error)
}

type ScanHistoryClient interface {
	ListScans(ctx context.Context) ([]domain.ScanRecord, error)
	SaveScan(ctx context.Context, scan domain.ScanRecord) error
	DeleteScan(ctx context.Context, id int64) error
}

type MedicineClient interface {
	ListMedicines(ctx context.Context, accessToken string) ([]domain.Medicine, error)
	CreateMedicine(ctx context.Context, accessToken string, medicine domain.Medicine) (domain.Medicine, error)
	UpdateMedicine(ctx context.Context, accessToken string, medicine domain.Medicine) (domain.Medicine, error)
	DeleteMedicine(ctx context.Context, accessToken string, id int64) error
}
