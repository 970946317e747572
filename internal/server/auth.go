package server

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const userIDKey contextKey = "userId"

// TokenVerifier resolves a bearer token to a user id.
type TokenVerifier interface {
	UserID(token string) (string, bool)
}

// StaticTokenVerifier maps fixed tokens to user ids. It backs deployments
// that have no external identity provider; the table comes from
// configuration in "token:userId" comma-separated form.
type StaticTokenVerifier struct {
	tokens map[string]string
}

// NewStaticTokenVerifier parses the configured token table.
func NewStaticTokenVerifier(csv string) *StaticTokenVerifier {
	tokens := make(map[string]string)
	for _, entry := range strings.Split(csv, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		token, userID, ok := strings.Cut(entry, ":")
		if !ok || token == "" || userID == "" {
			continue
		}
		tokens[token] = userID
	}
	return &StaticTokenVerifier{tokens: tokens}
}

// UserID implements TokenVerifier.
func (v *StaticTokenVerifier) UserID(token string) (string, bool) {
	userID, ok := v.tokens[token]
	return userID, ok
}

func authMiddleware(verifier TokenVerifier, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		userID, ok := verifier.UserID(token)
		if !ok {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userIDFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey).(string)
	return userID
}
