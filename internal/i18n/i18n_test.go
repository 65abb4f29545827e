package i18n

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return WithLocalizer(context.Background(), NewLocalizer(lang))
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	if got := T(ctx, "AppTitle"); got != "QuestionBD" {
		t.Errorf("T(AppTitle) = %q, want 'QuestionBD'", got)
	}
	if got := T(ctx, "OTPMismatch"); got != "Invalid OTP. Please try again." {
		t.Errorf("T(OTPMismatch) = %q", got)
	}
}

func TestTranslateBengali(t *testing.T) {
	ctx := initLang(t, "bn")

	if got := T(ctx, "AppTitle"); got != "কোয়েশ্চেনবিডি" {
		t.Errorf("T(AppTitle) = %q, want 'কোয়েশ্চেনবিডি'", got)
	}
}

func TestPluralTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	if got := Tp(ctx, "ResultsFound", 1); got != "1 result found." {
		t.Errorf("Tp(ResultsFound, 1) = %q, want '1 result found.'", got)
	}
	if got := Tp(ctx, "ResultsFound", 20); got != "20 results found." {
		t.Errorf("Tp(ResultsFound, 20) = %q, want '20 results found.'", got)
	}
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got := Td(ctx, "ContentLocked", map[string]any{"ExamType": "SSC", "GroupOrProgram": "Science"})
	if got != "This content is locked. Unlock SSC Science to view it." {
		t.Errorf("Td(ContentLocked) = %q", got)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "en")

	if got := T(ctx, "NonExistentKey"); got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want 'NonExistentKey'", got)
	}
}

func TestNegotiate(t *testing.T) {
	initLang(t, "en")
	tests := map[string]string{
		"":                    "en",
		"bn-BD,bn;q=0.9":      "bn",
		"fr-FR, en;q=0.5":     "en",
		"de":                  "en",
		"en-US,en;q=0.9,bn;q": "en",
	}
	for header, want := range tests {
		if got := Negotiate(header); got != want {
			t.Errorf("Negotiate(%q) = %q, want %q", header, got, want)
		}
	}
}

func TestMiddleware(t *testing.T) {
	initLang(t, "en")
	var got string
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = T(r.Context(), "LoggedOut")
	}))

	req := httptest.NewRequest(http.MethodGet, "/?lang=bn", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got != "আপনি লগআউট করেছেন।" {
		t.Errorf("expected Bengali message, got %q", got)
	}
	if rec.Header().Get("Content-Language") != "bn" {
		t.Errorf("expected Content-Language bn, got %q", rec.Header().Get("Content-Language"))
	}
}
