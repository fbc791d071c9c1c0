package devserver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type ctxKey struct{}

type passengerClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

func (s *Server) issueToken(passengerID, email string) (string, error) {
	now := time.Now()
	claims := passengerClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   passengerID,
			Audience:  jwt.ClaimStrings{"passenger"},
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.opts.TokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.opts.JWTSecret))
}

func (s *Server) parseToken(raw string) (string, error) {
	var claims passengerClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return []byte(s.opts.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

// tokenFromHeader accepts "Bearer <token>" as well as a bare token.
func tokenFromHeader(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		h = strings.TrimSpace(h[7:])
	}
	return h
}

// requireAuth rejects requests without a valid token and stores the
// passenger id in the request context.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := tokenFromHeader(r)
		if raw == "" || raw == "null" || raw == "undefined" {
			writeError(w, http.StatusUnauthorized, "Missing token")
			return
		}
		id, err := s.parseToken(raw)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	}
}

func passengerID(r *http.Request) string {
	id, _ := r.Context().Value(ctxKey{}).(string)
	return id
}
