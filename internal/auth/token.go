package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	RoleUser  = "user"
	RoleGuest = "guest"

	audience = "domus-api"
)

var ErrInvalidToken = errors.New("auth: invalid token")

// Claims carries the session. Subject is the user's email, or a random id
// for guests.
type Claims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

func (c *Claims) IsGuest() bool { return c.Role == RoleGuest }

type Issuer struct {
	secret   []byte
	ttl      time.Duration
	guestTTL time.Duration
	now      func() time.Time
}

func NewIssuer(secret string, ttl, guestTTL time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if guestTTL <= 0 {
		guestTTL = 12 * time.Hour
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, guestTTL: guestTTL, now: time.Now}
}

func (i *Issuer) sign(subject, email, role string, ttl time.Duration) (string, *Claims, error) {
	now := i.now()
	claims := &Claims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Audience:  []string{audience},
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString(i.secret)
	if err != nil {
		return "", nil, err
	}
	return s, claims, nil
}

func (i *Issuer) NewUserToken(email string) (string, *Claims, error) {
	return i.sign(email, email, RoleUser, i.ttl)
}

func (i *Issuer) NewGuestToken() (string, *Claims, error) {
	return i.sign("guest:"+uuid.NewString(), "", RoleGuest, i.guestTTL)
}

func (i *Issuer) Parse(tokenString string) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	switch claims.Role {
	case RoleUser:
		if claims.Email == "" {
			return nil, ErrInvalidToken
		}
	case RoleGuest:
	default:
		return nil, ErrInvalidToken
	}
	return claims, nil
}
