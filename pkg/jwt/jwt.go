package jwt

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingToken = errors.New("missing authorization token")
)

var (
	secret          []byte
	issuer          = "go-pharmacy-ledger"
	expirationHours = 24
)

// Configure sets the signing secret and token parameters. Called once from
// main; falls back to the JWT_SECRET environment variable when unset.
func Configure(signingSecret, tokenIssuer string, expiryHours int) {
	if signingSecret != "" {
		secret = []byte(signingSecret)
	}
	if tokenIssuer != "" {
		issuer = tokenIssuer
	}
	if expiryHours > 0 {
		expirationHours = expiryHours
	}
}

func signingKey() []byte {
	if len(secret) > 0 {
		return secret
	}
	s := os.Getenv("JWT_SECRET")
	if s == "" {
		s = "change-me-in-production"
	}
	return []byte(s)
}

// Claims represents the JWT claims structure
type Claims struct {
	EmployeeID   uuid.UUID `json:"employee_id"`
	EmployeeNo   int       `json:"employee_no"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	RoleCode     string    `json:"role_code"`
	Privileges   []string  `json:"privileges"`
	TokenVersion string    `json:"token_version"`
	jwt.RegisteredClaims
}

// GenerateToken creates a new JWT token for an employee
func GenerateToken(employeeID uuid.UUID, employeeNo int, email, name, roleCode string, privileges []string, tokenVersion string) (string, error) {
	claims := &Claims{
		EmployeeID:   employeeID,
		EmployeeNo:   employeeNo,
		Email:        email,
		Name:         name,
		RoleCode:     roleCode,
		Privileges:   privileges,
		TokenVersion: tokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(expirationHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(signingKey())
}

// ValidateToken parses and validates a JWT token
func ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return signingKey(), nil
	})

	if err != nil {
		return nil, ErrInvalidToken
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}
