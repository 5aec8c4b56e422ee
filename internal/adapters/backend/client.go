// Package backend calls the scanning, history and medicine endpoints of the
// AllergyScan API.
package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"time"

	"github.com/bnema/allergyscan-cli/internal/adapters/httpapi"
	"github.com/bnema/allergyscan-cli/internal/domain"
	"github.com/bnema/allergyscan-cli/internal/ports"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	OCRPath         = "/ocr"
	DetectPath      = "/allergens/detect"
	ScanHistoryPath = "/scan-history"
	MedicinesPath   = "/medicines"

	// MaxImageBytes caps OCR uploads.
	MaxImageBytes = 20 << 20

	defaultImageContentType = "image/jpeg"
)

var ErrImageTooLarge = errors.New("image exceeds upload limit")

type StatusError = httpapi.StatusError

type Client struct {
	api httpapi.Client
}

var (
	_ ports.OCRClient         = (*Client)(nil)
	_ ports.AllergenDetector  = (*Client)(nil)
	_ ports.ScanHistoryClient = (*Client)(nil)
	_ ports.MedicineClient    = (*Client)(nil)
)

func NewClient(baseURL string, httpClient *http.Client, requestTimeout time.Duration, log *zap.Logger) *Client {
	return &Client{api: httpapi.Client{
		BaseURL:        baseURL,
		HTTPClient:     httpClient,
		RequestTimeout: requestTimeout,
		Logger:         log,
	}}
}

// UploadFileName is the multipart file name used for OCR uploads.
func UploadFileName() string {
	return "image_" + uuid.NewString() + ".jpg"
}

func (c *Client) ExtractText(ctx context.Context, fileName string, image io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(image, MaxImageBytes+1))
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: image is empty", domain.ErrInvalidInput)
	}
	if len(data) > MaxImageBytes {
		return "", ErrImageTooLarge
	}
	if fileName == "" {
		fileName = UploadFileName()
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, fileName))
	header.Set("Content-Type", imageContentType(data))
	part, err := writer.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("create upload part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("write upload part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close upload body: %w", err)
	}

	var resp struct {
		Text string `json:"text"`
	}
	err = c.api.Do(ctx, httpapi.Request{
		Op:          "ocr",
		Method:      http.MethodPost,
		Path:        OCRPath,
		Body:        &body,
		ContentType: writer.FormDataContentType(),
	}, &resp)
	if err != nil {
		return "", err
	}

	return resp.Text, nil
}

func imageContentType(data []byte) string {
	detected := http.DetectContentType(data)
	switch detected {
	case "image/png", "image/gif", "image/webp", "image/bmp":
		return detected
	default:
		return defaultImageContentType
	}
}

func (c *Client) DetectAllergens(ctx context.Context, text string) ([]domain.Allergen, error) {
	body, contentType, err := httpapi.JSONBody(map[string]string{"text": text})
	if err != nil {
		return nil, err
	}

	var resp struct {
		Allergens []domain.Allergen `json:"allergens"`
	}
	err = c.api.Do(ctx, httpapi.Request{
		Op:          "detect allergens",
		Method:      http.MethodPost,
		Path:        DetectPath,
		Body:        body,
		ContentType: contentType,
	}, &resp)
	if err != nil {
		return nil, err
	}

	for i := range resp.Allergens {
		resp.Allergens[i].Confidence = domain.ClampConfidence(resp.Allergens[i].Confidence)
	}
	return resp.Allergens, nil
}

func (c *Client) ListScans(ctx context.Context) ([]domain.ScanRecord, error) {
	var scans []domain.ScanRecord
	err := c.api.Do(ctx, httpapi.Request{
		Op:     "list scans",
		Method: http.MethodGet,
		Path:   ScanHistoryPath,
	}, &scans)
	if err != nil {
		return nil, err
	}

	return scans, nil
}

func (c *Client) SaveScan(ctx context.Context, scan domain.ScanRecord) error {
	scan.ID = 0
	scan.CreatedAt = ""
	if scan.Allergens == nil {
		scan.Allergens = []domain.Allergen{}
	}
	body, contentType, err := httpapi.JSONBody(scan)
	if err != nil {
		return err
	}

	// The history service only accepts the collection path with a trailing slash.
	return c.api.Do(ctx, httpapi.Request{
		Op:          "save scan",
		Method:      http.MethodPost,
		Path:        ScanHistoryPath + "/",
		Body:        body,
		ContentType: contentType,
	}, nil)
}

func (c *Client) DeleteScan(ctx context.Context, id int64) error {
	return c.api.Do(ctx, httpapi.Request{
		Op:     "delete scan",
		Method: http.MethodDelete,
		Path:   ScanHistoryPath + "/" + strconv.FormatInt(id, 10),
	}, nil)
}

func (c *Client) ListMedicines(ctx context.Context, accessToken string) ([]domain.Medicine, error) {
	var medicines []domain.Medicine
	err := c.api.Do(ctx, httpapi.Request{
		Op:          "list medicines",
		Method:      http.MethodGet,
		Path:        MedicinesPath,
		BearerToken: accessToken,
	}, &medicines)
	if err != nil {
		return nil, err
	}

	return medicines, nil
}

func (c *Client) CreateMedicine(ctx context.Context, accessToken string, medicine domain.Medicine) (domain.Medicine, error) {
	medicine.ID = 0
	return c.writeMedicine(ctx, "create medicine", http.MethodPost, MedicinesPath, accessToken, medicine)
}

func (c *Client) UpdateMedicine(ctx context.Context, accessToken string, medicine domain.Medicine) (domain.Medicine, error) {
	if medicine.ID <= 0 {
		return domain.Medicine{}, fmt.Errorf("%w: medicine id is required", domain.ErrInvalidInput)
	}
	path := MedicinesPath + "/" + strconv.FormatInt(medicine.ID, 10)
	return c.writeMedicine(ctx, "update medicine", http.MethodPut, path, accessToken, medicine)
}

func (c *Client) writeMedicine(ctx context.Context, op, method, path, accessToken string, medicine domain.Medicine) (domain.Medicine, error) {
	body, contentType, err := httpapi.JSONBody(medicine)
	if err != nil {
		return domain.Medicine{}, err
	}

	var saved domain.Medicine
	err = c.api.Do(ctx, httpapi.Request{
		Op:          op,
		Method:      method,
		Path:        path,
		Body:        body,
		ContentType: contentType,
		BearerToken: accessToken,
	}, &saved)
	if err != nil {
		return domain.Medicine{}, err
	}

	return saved, nil
}

func (c *Client) DeleteMedicine(ctx context.Context, accessToken string, id int64) error {
	return c.api.Do(ctx, httpapi.Request{
		Op:          "delete medicine",
		Method:      http.MethodDelete,
		Path:        MedicinesPath + "/" + strconv.FormatInt(id, 10),
		BearerToken: accessToken,
	}, nil)
}
