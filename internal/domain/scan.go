package domain

import "sort"

const DefaultProductName = "Scanned Product"

type Allergen struct {
	Allergen       string   `json:"allergen"`
	Confidence     float64  `json:"confidence"`
	Evidence       []string `json:"evidence"`
	IsUserAllergen bool     `json:"is_user_allergen"`
}

type ScanRecord struct {
	ID          int64      `json:"id,omitempty"`
	ProductName *string    `json:"product_name"`
	InputText   string     `json:"input_text"`
	Allergens   []Allergen `json:"allergens"`
	ImageURL    *string    `json:"image_url"`
	CreatedAt   string     `json:"created_at,omitempty"`
}

// SortAllergens orders user allergens first, then by descending confidence.
func SortAllergens(allergens []Allergen) []Allergen {
	sorted := append([]Allergen(nil), allergens...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].IsUserAllergen != sorted[j].IsUserAllergen {
			return sorted[i].IsUserAllergen
		}
		return sorted[i].Confidence > sorted[j].Confidence
	})
	return sorted
}

func ClampConfidence(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
