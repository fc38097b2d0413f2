package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxUIDLength is the longest external auth id accepted (Firebase allows 128)
	MaxUIDLength = 128
	// MaxCommentLength bounds reviewer comments stored on questions
	MaxCommentLength = 1000
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateUID checks a learner's external auth id
func ValidateUID(uid string) error {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return ValidationError{Field: "uid", Message: "uid is required"}
	}
	if utf8.RuneCountInString(uid) > MaxUIDLength {
		return ValidationError{Field: "uid", Message: fmt.Sprintf("uid must be at most %d characters", MaxUIDLength)}
	}
	for _, r := range uid {
		if unicode.IsSpace(r) || unicode.IsControl(r) || r == '/' {
			return ValidationError{Field: "uid", Message: "uid contains invalid characters"}
		}
	}
	return nil
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// SplitEmails separates valid addresses from invalid ones, keeping order
func SplitEmails(emails []string) (valid, invalid []string) {
	for _, e := range emails {
		e = strings.TrimSpace(e)
		if ValidateEmail(e) != nil {
			invalid = append(invalid, e)
			continue
		}
		valid = append(valid, e)
	}
	return valid, invalid
}

// ValidateComment checks a reviewer comment
func ValidateComment(comment string) error {
	if utf8.RuneCountInString(comment) > MaxCommentLength {
		return ValidationError{Field: "comment", Message: fmt.Sprintf("comment must be at most %d characters", MaxCommentLength)}
	}
	return nil
}
