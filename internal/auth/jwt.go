package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrTokenExpired indicates the token is past its expiry.
	ErrTokenExpired = errors.New("auth: token expired")
	// ErrTokenMalformed indicates the token could not be decoded.
	ErrTokenMalformed = errors.New("auth: token malformed")
	// ErrTokenInvalid covers signature, issuer and algorithm failures.
	ErrTokenInvalid = errors.New("auth: token invalid")
)

// JWTManager signs and verifies HS256 access tokens.
type JWTManager struct {
	secret      []byte
	issuer      string
	ttl         time.Duration
	userIDClaim string
}

// NewJWTManager constructs a JWTManager. userIDClaim names the claim carrying
// the numeric user id; tokens also carry it in the subject.
func NewJWTManager(secret, issuer string, ttl time.Duration, userIDClaim string) (*JWTManager, error) {
	if secret == "" {
		return nil, errors.New("auth: jwt secret must be provided")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &JWTManager{secret: []byte(secret), issuer: issuer, ttl: ttl, userIDClaim: userIDClaim}, nil
}

// UserIDClaim returns the configured primary user id claim name.
func (m *JWTManager) UserIDClaim() string {
	return m.userIDClaim
}

// GenerateToken issues a signed token for the given user.
func (m *JWTManager) GenerateToken(userID int64, username string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      strconv.FormatInt(userID, 10),
		"username": username,
		"iat":      jwt.NewNumericDate(now),
		"nbf":      jwt.NewNumericDate(now),
		"exp":      jwt.NewNumericDate(now.Add(m.ttl)),
		"jti":      uuid.NewString(),
	}
	if m.userIDClaim != "" && m.userIDClaim != SubjectClaim {
		claims[m.userIDClaim] = strconv.FormatInt(userID, 10)
	}
	if m.issuer != "" {
		claims["iss"] = m.issuer
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ParseToken verifies the token and returns the asserted identity.
func (m *JWTManager) ParseToken(tokenString string) (*Identity, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrTokenMalformed
		default:
			return nil, ErrTokenInvalid
		}
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}
	subject, _ := claims.GetSubject()
	return &Identity{Subject: subject, Claims: claims}, nil
}
