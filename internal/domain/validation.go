package domain

import (
	"fmt"
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type Credentials struct {
	Username string
	Password string
}

func (c Credentials) Validate() error {
	if c.Username == "" || c.Password == "" {
		return fmt.Errorf("%w: both username/email and password are required", ErrInvalidInput)
	}
	return nil
}

type Registration struct {
	Email           string
	Username        string
	Password        string
	ConfirmPassword string
}

func (r Registration) Validate() error {
	if r.Email == "" || r.Username == "" || r.Password == "" || r.ConfirmPassword == "" {
		return fmt.Errorf("%w: all fields are required", ErrInvalidInput)
	}
	if r.Password != r.ConfirmPassword {
		return fmt.Errorf("%w: passwords do not match", ErrInvalidInput)
	}
	if !emailPattern.MatchString(r.Email) {
		return fmt.Errorf("%w: invalid email address", ErrInvalidInput)
	}
	return nil
}

// IngredientText trims the raw input and rejects empty ingredient lists.
func IngredientText(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", fmt.Errorf("%w: ingredients text is empty", ErrInvalidInput)
	}
	return text, nil
}

var ExampleIngredients = []string{
	"Water, Wheat Flour, Sugar, Milk, Eggs, Palm Oil, Yeast, Salt",
	"Sugar, Palm Oil, Hazelnuts (13%), Skim Milk Powder (8.7%), Fat-Reduced Cocoa (7.4%), Emulsifier: Lecithin (Soy), Vanillin",
	"Whole Grain Oats, Corn Starch, Sugar, Salt, Tripotassium Phosphate, Vitamin E",
}

var EmergencySteps = []string{
	"Use EpiPen if you experience severe symptoms (difficulty breathing, swelling, etc.).",
	"Call emergency services immediately (Dial 911 or local equivalent).",
	"Lie down and elevate legs if feeling faint.",
	"If symptoms worsen, seek urgent medical care.",
}
