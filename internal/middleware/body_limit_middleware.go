package rack_middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// BodySizeLimitMiddleware rejects request bodies larger than MaxBytes. Bodies
// that announce their size are refused up front, the rest are cut off while
// being read and the handler sees an *http.MaxBytesError.
type BodySizeLimitMiddleware struct {
	MaxBytes int64
}

func (b *BodySizeLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if b.MaxBytes <= 0 || r.Body == nil || r.Body == http.NoBody {
			next.ServeHTTP(w, r)
			return
		}

		if r.ContentLength > b.MaxBytes {
			writeJSONError(w, fmt.Sprintf(
				"request body of %d bytes exceeds the limit of %d bytes",
				r.ContentLength,
				b.MaxBytes,
			), http.StatusRequestEntityTooLarge)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, b.MaxBytes)
		next.ServeHTTP(w, r)
	})
}

func writeJSONError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
