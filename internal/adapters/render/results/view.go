// Package results renders allergen reports and profile data for the
// terminal.
package results

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/bnema/allergyscan-cli/internal/application"
	"github.com/bnema/allergyscan-cli/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

const (
	confidenceBarWidth = 20
	previewWidth       = 60
)

func RenderScan(result application.ScanResult) (string, error) {
	return render(func(s styles) string { return scanView(result, s) })
}

func RenderHistory(scans []domain.ScanRecord) (string, error) {
	return render(func(s styles) string { return historyView(scans, s) })
}

func RenderProfile(user domain.User) (string, error) {
	return render(func(s styles) string { return profileView(user, s) })
}

func RenderCommonAllergies(allergies []domain.Allergy) (string, error) {
	return render(func(s styles) string { return commonAllergiesView(allergies, s) })
}

func RenderMedicines(medicines []domain.Medicine, now time.Time) (string, error) {
	return render(func(s styles) string { return medicinesView(medicines, now, s) })
}

func RenderEmergency(steps []string) (string, error) {
	return render(func(s styles) string { return emergencyView(steps, s) })
}

func scanView(result application.ScanResult, s styles) string {
	lines := []string{
		s.title.Render("Allergen Check"),
		s.header.Render(fmt.Sprintf("allergens detected: %d", len(result.Allergens))),
	}

	if len(result.Allergens) == 0 {
		lines = append(lines, s.section.Render(s.safe.Render("No allergens detected.")))
	}

	userAllergens := 0
	for _, allergen := range result.Allergens {
		if allergen.IsUserAllergen {
			userAllergens++
		}
		lines = append(lines, s.section.Render(allergenBlock(allergen, s)))
	}

	if userAllergens > 0 {
		noun := "allergens"
		if userAllergens == 1 {
			noun = "allergen"
		}
		lines = append(lines, s.section.Render(s.warning.Render(fmt.Sprintf("Warning: contains %d %s from your profile.", userAllergens, noun))))
	}
	if result.Saved {
		lines = append(lines, s.header.Render("saved to history"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func allergenBlock(allergen domain.Allergen, s styles) string {
	name := s.item.Render(allergen.Allergen)
	if allergen.IsUserAllergen {
		name = s.warning.Render(allergen.Allergen + " [your allergy]")
	}

	percent := domain.ClampConfidence(allergen.Confidence) * 100
	percentStyle := lipgloss.NewStyle().Foreground(interpolateColor(percent, 0, 100))
	line := lipgloss.JoinHorizontal(
		lipgloss.Top,
		name,
		" ",
		renderConfidenceBar(percent, confidenceBarWidth, s),
		" ",
		percentStyle.Render(fmt.Sprintf("%3.0f%%", percent)),
	)

	parts := []string{line}
	if len(allergen.Evidence) > 0 {
		parts = append(parts, s.evidence.Render("evidence: "+strings.Join(allergen.Evidence, ", ")))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func historyView(scans []domain.ScanRecord, s styles) string {
	lines := []string{
		s.title.Render("Scan History"),
		s.header.Render(fmt.Sprintf("scans: %d", len(scans))),
	}

	if len(scans) == 0 {
		lines = append(lines, s.empty.Render("No saved scans."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, scan := range scans {
		name := domain.DefaultProductName
		if scan.ProductName != nil && strings.TrimSpace(*scan.ProductName) != "" {
			name = *scan.ProductName
		}
		title := fmt.Sprintf("#%d %s", scan.ID, name)
		if scan.CreatedAt != "" {
			title += " " + s.header.Render("("+scan.CreatedAt+")")
		}

		names := make([]string, 0, len(scan.Allergens))
		for _, allergen := range domain.SortAllergens(scan.Allergens) {
			names = append(names, allergen.Allergen)
		}
		allergens := "none"
		if len(names) > 0 {
			allergens = strings.Join(names, ", ")
		}

		lines = append(lines, s.section.Render(lipgloss.JoinVertical(
			lipgloss.Left,
			s.item.Render(title),
			s.detail.Render("allergens: "+allergens),
			s.evidence.Render(preview(scan.InputText, previewWidth)),
		)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func profileView(user domain.User, s styles) string {
	lines := []string{
		s.title.Render(user.Username),
		s.header.Render(user.Email),
		s.section.Render(s.detail.Render(fmt.Sprintf("allergies: %d", len(user.Allergies)))),
	}

	if len(user.Allergies) == 0 {
		lines = append(lines, s.empty.Render("No allergies in your profile."))
	}
	for _, allergy := range user.Allergies {
		lines = append(lines, allergyLine(allergy, s))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func allergyLine(allergy domain.Allergy, s styles) string {
	line := s.item.Render(allergy.Name)
	if allergy.Category != "" {
		line += " " + s.header.Render("("+allergy.Category+")")
	}
	if allergy.Severity != nil && *allergy.Severity != "" {
		severity := string(*allergy.Severity)
		if *allergy.Severity == domain.SeverityHigh {
			line += " " + s.warning.Render(severity)
		} else {
			line += " " + s.detail.Render(severity)
		}
	}
	if allergy.Notes != nil && *allergy.Notes != "" {
		line += " " + s.evidence.Render("- "+*allergy.Notes)
	}
	return line
}

func commonAllergiesView(allergies []domain.Allergy, s styles) string {
	lines := []string{
		s.title.Render("Common Allergies"),
		s.header.Render(fmt.Sprintf("allergies: %d", len(allergies))),
	}

	if len(allergies) == 0 {
		lines = append(lines, s.empty.Render("No common allergies available."))
	}
	for _, allergy := range allergies {
		lines = append(lines, s.header.Render(fmt.Sprintf("%4s ", allergy.ID))+allergyLine(allergy, s))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func medicinesView(medicines []domain.Medicine, now time.Time, s styles) string {
	lines := []string{
		s.title.Render("Medicines"),
		s.header.Render(fmt.Sprintf("medicines: %d", len(medicines))),
	}

	if len(medicines) == 0 {
		lines = append(lines, s.empty.Render("No medicines saved."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, medicine := range medicines {
		line := s.item.Render(fmt.Sprintf("#%d %s", medicine.ID, medicine.Name)) + " " + s.detail.Render(medicine.Dosage)
		if medicine.ExpirationDate != "" {
			line += " " + s.header.Render("expires "+medicine.ExpirationDate)
			if !now.IsZero() && medicine.Expired(now) {
				line += " " + s.warning.Render("[expired]")
			}
		}
		lines = append(lines, line)
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func emergencyView(steps []string, s styles) string {
	lines := []string{s.warning.Render("Allergic Reaction Emergency Steps")}
	for i, step := range steps {
		lines = append(lines, s.step.Render(fmt.Sprintf("%d. %s", i+1, step)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderConfidenceBar(percent float64, width int, s styles) string {
	if width <= 0 {
		return ""
	}

	filled := int(math.Round(float64(width) * percent / 100))
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		s.barFill.Render(strings.Repeat("=", filled)),
		s.barEmpty.Render(strings.Repeat("-", width-filled)),
		s.barBracket.Render("]"),
	)
}

func preview(text string, width int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= width {
		return text
	}
	return string(runes[:width-3]) + "..."
}

// interpolateColor maps value onto the 240..255 greyscale ramp.
func interpolateColor(value, min, max float64) lipgloss.Color {
	if max == min {
		return lipgloss.Color("255")
	}

	normalized := (value - min) / (max - min)
	if normalized < 0 {
		normalized = 0
	}
	if normalized > 1 {
		normalized = 1
	}

	return lipgloss.Color(fmt.Sprintf("%d", int(240+15*normalized)))
}
