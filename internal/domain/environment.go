package domain

import (
	"fmt"
	"net/url"
	"strings"
)

type EnvironmentName string

type Environment struct {
	Name    EnvironmentName
	BaseURL string
	Active  bool
}

func (e Environment) Validate() error {
	if strings.TrimSpace(string(e.Name)) == "" {
		return fmt.Errorf("%w: environment name is required", ErrInvalidInput)
	}
	parsed, err := url.Parse(e.BaseURL)
	if err != nil {
		return fmt.Errorf("%w: parse base url: %v", ErrInvalidInput, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%w: base url must use http or https", ErrInvalidInput)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%w: base url host is required", ErrInvalidInput)
	}
	return nil
}

// NormalizeBaseURL trims whitespace and trailing slashes.
func NormalizeBaseURL(raw string) string {
	return strings.TrimRight(strings.TrimSpace(raw), "/")
}
