package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bnema/allergyscan-cli/internal/domain"
	"github.com/bnema/allergyscan-cli/internal/logger"
	"github.com/bnema/allergyscan-cli/internal/ports"
	"go.uber.org/zap"
)

var ErrNoTextRecognized = errors.New("no text recognized in image")

type ScanResult struct {
	Text      string
	Allergens []domain.Allergen
	Saved     bool
}

// ScanService turns label photos or typed ingredient lists into allergen
// reports and keeps the scan history.
type ScanService struct {
	ocr      ports.OCRClient
	detector ports.AllergenDetector
	history  ports.ScanHistoryClient
	log      *zap.Logger
}

func NewScanService(ocr ports.OCRClient, detector ports.AllergenDetector, history ports.ScanHistoryClient, log *zap.Logger) *ScanService {
	return &ScanService{ocr: ocr, detector: detector, history: history, log: logger.OrNop(log).Named("scan")}
}

func (s *ScanService) ExtractText(ctx context.Context, fileName string, image io.Reader) (string, error) {
	text, err := s.ocr.ExtractText(ctx, fileName, image)
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrNoTextRecognized
	}
	return text, nil
}

// Check detects allergens in text. Allergens listed in the user's profile
// are flagged even when the detector did not flag them. When save is set
// the result is appended to the history; a failed save is logged and does
// not fail the check.
func (s *ScanService) Check(ctx context.Context, text string, user *domain.User, save bool) (ScanResult, error) {
	text, err := domain.IngredientText(text)
	if err != nil {
		return ScanResult{}, err
	}

	allergens, err := s.detector.DetectAllergens(ctx, text)
	if err != nil {
		return ScanResult{}, fmt.Errorf("detect allergens: %w", err)
	}
	if user != nil {
		for i := range allergens {
			if user.HasAllergy(allergens[i].Allergen) {
				allergens[i].IsUserAllergen = true
			}
		}
	}

	result := ScanResult{Text: text, Allergens: domain.SortAllergens(allergens)}
	if !save {
		return result, nil
	}

	if err := s.Save(ctx, "", text, allergens); err != nil {
		s.log.Warn("saving scan to history failed", zap.Error(err))
		return result, nil
	}
	result.Saved = true
	return result, nil
}

// Save stores a scan in the history. An empty product name falls back to
// domain.DefaultProductName.
func (s *ScanService) Save(ctx context.Context, productName, text string, allergens []domain.Allergen) error {
	productName = strings.TrimSpace(productName)
	if productName == "" {
		productName = domain.DefaultProductName
	}

	return s.history.SaveScan(ctx, domain.ScanRecord{
		ProductName: &productName,
		InputText:   text,
		Allergens:   allergens,
	})
}

func (s *ScanService) History(ctx context.Context) ([]domain.ScanRecord, error) {
	scans, err := s.history.ListScans(ctx)
	if err != nil {
		return nil, fmt.Errorf("list scan history: %w", err)
	}
	return scans, nil
}

func (s *ScanService) DeleteScan(ctx context.Context, id int64) error {
	if err := s.history.DeleteScan(ctx, id); err != nil {
		return fmt.Errorf("delete scan %d: %w", id, err)
	}
	return nil
}
