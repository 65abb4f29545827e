package validate

import (
	"errors"
	"testing"

	"github.com/pavelanni/questionbd/internal/model"
)

func TestEmailAndPhone(t *testing.T) {
	tests := []struct {
		name string
		fn   func(string) error
		in   string
		want error
	}{
		{"email ok", Email, "a@b.co", nil},
		{"email no at", Email, "ab.co", ErrInvalidEmail},
		{"email space", Email, "a b@c.d", ErrInvalidEmail},
		{"email no dot", Email, "a@b", ErrInvalidEmail},
		{"phone plus", Phone, "+8801700000000", nil},
		{"phone bare", Phone, "8801700000000", nil},
		{"phone leading zero", Phone, "01757798062", ErrInvalidPhone},
		{"phone too long", Phone, "+1234567890123456", ErrInvalidPhone},
		{"phone letters", Phone, "+88017abc", ErrInvalidPhone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(tt.in); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestRegister(t *testing.T) {
	ok := Registration{AccountName: "rahim", FirstName: "Rahim", Email: "r@x.com", Phone: "+8801711111111", Password: "password1"}
	if err := Register(ok); err != nil {
		t.Fatalf("expected valid form, got %v", err)
	}

	short := ok
	short.Password = "1234567"
	if err := Register(short); !errors.Is(err, ErrPasswordTooShort) {
		t.Errorf("expected ErrPasswordTooShort, got %v", err)
	}

	missing := ok
	missing.AccountName = " "
	if err := Register(missing); !errors.Is(err, ErrRequired) {
		t.Errorf("expected ErrRequired, got %v", err)
	}

	tests := []struct {
		name string
		edit func(*Registration)
		want error
	}{
		{"missing first name", func(r *Registration) { r.FirstName = "" }, ErrRequired},
		{"missing email", func(r *Registration) { r.Email = "" }, ErrRequired},
		{"bad email", func(r *Registration) { r.Email = "a@b" }, ErrInvalidEmail},
		{"bad phone", func(r *Registration) { r.Phone = "017-abc" }, ErrInvalidPhone},
		{"padded values", func(r *Registration) { r.Email = "  r@x.com "; r.Phone = " +8801711111111" }, nil},
		{"last name optional", func(r *Registration) { r.LastName = "" }, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := ok
			tt.edit(&form)
			err := Register(form)
			if tt.want == nil && err != nil {
				t.Errorf("expected valid form, got %v", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestDocument(t *testing.T) {
	valid := model.NewDocument(
		model.SecondaryClass{Track: model.CategorySSC, Board: "Dhaka Board", Group: "Science"},
		model.DocumentContent{Title: "SSC Physics", Year: 2023, Type: model.DocumentImage, URL: "https://x.test/a.png"},
	)
	bcs := model.NewDocument(model.CivilServiceClass{Batch: 44},
		model.DocumentContent{Title: "44th BCS", Type: model.DocumentPDF, URL: "https://x.test/a.pdf"})

	noURL := valid
	noURL.URL = "a.png"
	ftp := valid
	ftp.URL = "ftp://x.test/a.png"
	inlinePDF := bcs
	inlinePDF.URL = "data:application/pdf;base64,JVBERi0xLjQK"
	inlineImage := valid
	inlineImage.URL = "data:image/png;base64,iVBORw0KGgo="
	mismatched := valid
	mismatched.URL = "data:application/pdf;base64,JVBERi0xLjQK"
	emptyPayload := bcs
	emptyPayload.URL = "data:application/pdf;base64,"
	badBatch := bcs
	badBatch.BCSNumber = 51
	noYear := valid
	noYear.Year = 0
	badType := valid
	badType.Type = "video"

	tests := []struct {
		name string
		doc  model.Document
		ok   bool
	}{
		{"valid", valid, true},
		{"bcs without year", bcs, true},
		{"relative url", noURL, false},
		{"ftp url", ftp, false},
		{"inline pdf", inlinePDF, true},
		{"inline image", inlineImage, true},
		{"inline media type mismatch", mismatched, false},
		{"inline without payload", emptyPayload, false},
		{"batch out of range", badBatch, false},
		{"missing year", noYear, false},
		{"bad type", badType, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Document(tt.doc)
			if tt.ok && err != nil {
				t.Errorf("expected valid, got %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidDocument) {
				t.Errorf("expected ErrInvalidDocument, got %v", err)
			}
		})
	}
}

func TestPayment(t *testing.T) {
	scope := model.ScopeKey{ExamType: model.CategorySSC, BoardName: "Dhaka Board", GroupOrProgram: "Science"}
	if err := Payment(scope, model.PaymentBKash, "TX1"); err != nil {
		t.Fatalf("expected valid payment, got %v", err)
	}
	if err := Payment(scope, model.PaymentNagad, "  "); !errors.Is(err, ErrRequired) {
		t.Errorf("expected ErrRequired for blank transaction id, got %v", err)
	}
	if err := Payment(scope, "Rocket", "TX1"); !errors.Is(err, ErrInvalidPayment) {
		t.Errorf("expected ErrInvalidPayment, got %v", err)
	}
	noBoard := model.ScopeKey{ExamType: model.CategoryHSC, GroupOrProgram: "Arts"}
	if err := Payment(noBoard, model.PaymentBKash, "TX1"); !errors.Is(err, ErrInvalidPayment) {
		t.Errorf("expected ErrInvalidPayment for missing board, got %v", err)
	}
}
