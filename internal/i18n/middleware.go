package i18n

import "net/http"

// Middleware picks the response language from the lang query parameter,
// then Accept-Language, then the configured default, and stores the
// localizer in the request context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := r.URL.Query().Get("lang")
		if lang == "" {
			lang = Negotiate(r.Header.Get("Accept-Language"))
		}
		w.Header().Set("Content-Language", lang)
		ctx := WithLocalizer(r.Context(), NewLocalizer(lang))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
