// Package validate contains input validation helpers.
package validate

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/pavelanni/questionbd/internal/model"
)

// MinPasswordLen is the shortest accepted password.
const MinPasswordLen = 8

var (
	ErrRequired         = errors.New("required field missing")
	ErrInvalidEmail     = errors.New("invalid email address")
	ErrInvalidPhone     = errors.New("invalid phone number")
	ErrPasswordTooShort = errors.New("password too short")
	ErrInvalidDocument  = errors.New("invalid document")
	ErrInvalidPayment   = errors.New("invalid payment")
)

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRe = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)
)

// Email validates an email address.
func Email(s string) error {
	if !emailRe.MatchString(s) {
		return ErrInvalidEmail
	}
	return nil
}

// Phone validates an E.164-like phone number.
func Phone(s string) error {
	if !phoneRe.MatchString(s) {
		return ErrInvalidPhone
	}
	return nil
}

// Password checks the minimum length.
func Password(s string) error {
	if len(s) < MinPasswordLen {
		return ErrPasswordTooShort
	}
	return nil
}

// Registration holds the sign-up form.
type Registration struct {
	AccountName string `validate:"required"`
	FirstName   string `validate:"required"`
	LastName    string
	Email       string `validate:"required,email_addr"`
	Phone       string `validate:"required,phone"`
	Password    string `validate:"min=8"`
}

var structs = newStructValidator()

func newStructValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("email_addr", func(fl validator.FieldLevel) bool {
		return Email(fl.Field().String()) == nil
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return Phone(fl.Field().String()) == nil
	})
	return v
}

// Register validates a sign-up form. Surrounding whitespace is ignored and
// the first failing field wins.
func Register(r Registration) error {
	r.AccountName = strings.TrimSpace(r.AccountName)
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.Email = strings.TrimSpace(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)

	err := structs.Struct(r)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%w: %s", ErrRequired, fe.Field())
	case "email_addr":
		return ErrInvalidEmail
	case "phone":
		return ErrInvalidPhone
	case "min":
		return ErrPasswordTooShort
	}
	return fmt.Errorf("%s: %w", fe.Field(), err)
}

// Document checks a catalog entry before it is stored.
func Document(d model.Document) error {
	if strings.TrimSpace(d.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidDocument)
	}
	if !d.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidDocument, d.Category)
	}
	if !d.Type.Valid() {
		return fmt.Errorf("%w: type must be image or pdf", ErrInvalidDocument)
	}
	if err := documentURL(d.URL, d.Type); err != nil {
		return err
	}
	switch d.Category {
	case model.CategoryBCS:
		if d.BCSNumber < 1 || d.BCSNumber > 50 {
			return fmt.Errorf("%w: bcs number must be 1-50", ErrInvalidDocument)
		}
	default:
		if d.Year == 0 {
			return fmt.Errorf("%w: year is required", ErrInvalidDocument)
		}
	}
	return nil
}

// documentURL accepts an http(s) link with a host, or a data URL carrying
// a payload whose media type fits the document type.
func documentURL(raw string, typ model.DocumentType) error {
	if rest, ok := strings.CutPrefix(raw, "data:"); ok {
		meta, payload, ok := strings.Cut(rest, ",")
		if !ok || payload == "" {
			return fmt.Errorf("%w: data url has no payload", ErrInvalidDocument)
		}
		mediaType, _, _ := strings.Cut(meta, ";")
		mediaType = strings.ToLower(mediaType)
		fits := false
		switch typ {
		case model.DocumentPDF:
			fits = mediaType == "application/pdf"
		case model.DocumentImage:
			fits = strings.HasPrefix(mediaType, "image/")
		}
		if !fits {
			return fmt.Errorf("%w: data url media type %q does not match type %s", ErrInvalidDocument, mediaType, typ)
		}
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: url must be an http(s) link or a data url", ErrInvalidDocument)
	}
	return nil
}

// Payment checks an unlock request before it is queued.
func Payment(scope model.ScopeKey, method model.PaymentMethod, transactionID string) error {
	if !scope.ExamType.Valid() || strings.TrimSpace(scope.GroupOrProgram) == "" {
		return fmt.Errorf("%w: unknown scope", ErrInvalidPayment)
	}
	if scope.ExamType.HasBoards() && scope.BoardName == "" {
		return fmt.Errorf("%w: board is required", ErrInvalidPayment)
	}
	if !method.Valid() {
		return fmt.Errorf("%w: method must be bKash or Nagad", ErrInvalidPayment)
	}
	if strings.TrimSpace(transactionID) == "" {
		return fmt.Errorf("%w: transaction id", ErrRequired)
	}
	return nil
}
