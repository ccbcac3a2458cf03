// Package validator provides input validation for compose requests and
// email address fields.
package validator

import (
	"errors"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/canis-majoris/instantly-assignment-v3/internal/models"
)

// Validation errors
var (
	ErrBlankSubject     = errors.New("subject cannot be blank")
	ErrBlankRecipient   = errors.New("recipient cannot be blank")
	ErrInvalidAddress   = errors.New("invalid email address")
	ErrInvalidDirection = errors.New("direction must be incoming or outgoing")
	ErrInputTooLong     = errors.New("input exceeds maximum length")
)

// Field length limits
const (
	MaxSubjectLength = 500
	MaxAddressLength = 254 // RFC 5321
)

// ValidateAddressList validates a comma-separated list of email addresses
// according to RFC 5322. Returns nil if every address is valid.
func ValidateAddressList(list string) error {
	list = strings.TrimSpace(list)
	if list == "" {
		return nil
	}
	addrs, err := mail.ParseAddressList(list)
	if err != nil {
		return ErrInvalidAddress
	}
	for _, a := range addrs {
		if utf8.RuneCountInString(a.Address) > MaxAddressLength {
			return ErrInputTooLong
		}
	}
	return nil
}

// ValidateCompose checks a compose request. Subject and recipient must be
// non-blank; address fields must parse when present; direction, when
// supplied, must be one of the two known values.
func ValidateCompose(req *models.ComposeRequest) error {
	if strings.TrimSpace(req.Subject) == "" {
		return ErrBlankSubject
	}
	if utf8.RuneCountInString(req.Subject) > MaxSubjectLength {
		return ErrInputTooLong
	}
	if strings.TrimSpace(req.To) == "" {
		return ErrBlankRecipient
	}
	if err := ValidateAddressList(req.To); err != nil {
		return err
	}
	if err := ValidateAddressList(req.CC); err != nil {
		return err
	}
	if err := ValidateAddressList(req.BCC); err != nil {
		return err
	}
	if req.Direction != "" &&
		req.Direction != models.DirectionIncoming &&
		req.Direction != models.DirectionOutgoing {
		return ErrInvalidDirection
	}
	return nil
}
