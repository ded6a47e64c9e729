package entity

import (
	"fmt"
	"net/url"
)

// maxURLLength defines the maximum allowed length for URLs to prevent DoS attacks.
const maxURLLength = 2048

// ValidateURL validates the format of a URL.
// It checks that the URL is well-formed, uses HTTP/HTTPS scheme, and has a valid host.
// Returns a ValidationError if the URL is invalid or empty.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return &ValidationError{Field: "url", Message: "URL is required"}
	}

	if len(rawURL) > maxURLLength {
		return &ValidationError{
			Field:   "url",
			Message: fmt.Sprintf("url must not exceed %d characters", maxURLLength),
		}
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return &ValidationError{Field: "url", Message: fmt.Sprintf("parse URL: %v", err)}
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return &ValidationError{Field: "url", Message: "URL must use http or https scheme"}
	}

	if parsedURL.Host == "" {
		return &ValidationError{Field: "url", Message: "URL must have a valid host"}
	}

	return nil
}
