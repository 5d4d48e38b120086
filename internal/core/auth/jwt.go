package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	UID  string `json:"uid"`
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// emailClaims back the one-shot email-verification link.
type emailClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type JWTer struct {
	Secret    []byte
	Issuer    string
	TTL       time.Duration // access tokens
	VerifyTTL time.Duration // email-verification tokens
}

func (j *JWTer) Issue(uid, name string) (string, error) {
	now := time.Now()
	claims := Claims{
		UID:  uid,
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.TTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.Secret)
}

func (j *JWTer) Parse(tokenStr string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected alg")
		}
		return j.Secret, nil
	}, jwt.WithIssuer(j.Issuer), jwt.WithLeeway(60*time.Second))
	if err != nil {
		return nil, err
	}
	if c, ok := t.Claims.(*Claims); ok && t.Valid {
		return c, nil
	}
	return nil, errors.New("invalid token")
}

// IssueEmailToken signs the address into the verification-link token.
func (j *JWTer) IssueEmailToken(email string) (string, error) {
	now := time.Now()
	ttl := j.VerifyTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	claims := emailClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.Secret)
}

// ParseEmailToken returns the verified address or an error for expired or
// tampered tokens.
func (j *JWTer) ParseEmailToken(tokenStr string) (string, error) {
	t, err := jwt.ParseWithClaims(tokenStr, &emailClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected alg")
		}
		return j.Secret, nil
	}, jwt.WithIssuer(j.Issuer))
	if err != nil {
		return "", err
	}
	if c, ok := t.Claims.(*emailClaims); ok && t.Valid {
		return c.Email, nil
	}
	return "", errors.New("invalid token")
}
