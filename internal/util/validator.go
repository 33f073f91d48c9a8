package util

import (
	"fmt"
	"regexp"
	"strings"
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// NormalizeEmail trims and lowercases an email address. Email is the natural
// key for identity, compared case-insensitively.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks syntax only; deliverability is proven by the magic link.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is empty")
	}
	if len(email) > 255 {
		return fmt.Errorf("email too long")
	}
	if !emailRe.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

// ValidateBilingualTitle requires both language variants.
func ValidateBilingualTitle(en, vi string) error {
	if strings.TrimSpace(en) == "" || strings.TrimSpace(vi) == "" {
		return fmt.Errorf("title requires both en and vi")
	}
	if len(en) > 255 || len(vi) > 255 {
		return fmt.Errorf("title too long, max 255 characters")
	}
	return nil
}

// ValidateCommentContent bounds comment length.
func ValidateCommentContent(content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return fmt.Errorf("content is empty")
	}
	if len(content) > 2000 {
		return fmt.Errorf("content too long, max 2000 characters")
	}
	return nil
}
