package i18n

import "net/http"

// Middleware injects a localizer into every request context. A "lang" query
// parameter wins over Accept-Language; lang is used when neither matches a
// loaded locale.
func Middleware(lang string) func(http.Handler) http.Handler {
	fallback := NewLocalizer(lang)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			loc := fallback
			q := r.URL.Query().Get("lang")
			accept := r.Header.Get("Accept-Language")
			if q != "" || accept != "" {
				loc = NewLocalizer(q, accept, lang)
			}
			next.ServeHTTP(w, r.WithContext(WithLocalizer(r.Context(), loc)))
		})
	}
}
