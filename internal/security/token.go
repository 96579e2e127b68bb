package security

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"vehicle-rental-backend/internal/domain"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrExpiredToken   = errors.New("token has expired")
	ErrWrongTokenType = errors.New("wrong token type for this endpoint")
)

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

const (
	accessTokenTTL  = 1 * time.Hour
	refreshTokenTTL = 7 * 24 * time.Hour
	issuer          = "vehicle-rental"
)

// UserClaims carries the caller identity resolved by the auth interceptor.
type UserClaims struct {
	UserID int32           `json:"user_id"`
	Role   domain.UserRole `json:"role,omitempty"`
	Type   TokenType       `json:"type"`
	jwt.RegisteredClaims
}

// Caller converts the claims to the identity the services act on.
func (c *UserClaims) Caller() domain.Caller {
	return domain.Caller{UserID: c.UserID, Role: c.Role}
}

type TokenManager interface {
	GenerateAccessToken(userID int32, role domain.UserRole) (string, error)
	GenerateRefreshToken(userID int32) (string, error)
	ValidateToken(tokenString string) (*UserClaims, error)
}

type tokenManager struct {
	secret []byte
	now    func() time.Time
}

func NewTokenManager(secret string) TokenManager {
	return &tokenManager{
		secret: []byte(secret),
		now:    time.Now,
	}
}

func (m *tokenManager) GenerateAccessToken(userID int32, role domain.UserRole) (string, error) {
	return m.sign(UserClaims{
		UserID: userID,
		Role:   role,
		Type:   TokenTypeAccess,
	}, accessTokenTTL, "api-access")
}

func (m *tokenManager) GenerateRefreshToken(userID int32) (string, error) {
	return m.sign(UserClaims{
		UserID: userID,
		Type:   TokenTypeRefresh,
	}, refreshTokenTTL, "token-refresh")
}

func (m *tokenManager) sign(claims UserClaims, ttl time.Duration, audience string) (string, error) {
	now := m.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   strconv.Itoa(int(claims.UserID)),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		Issuer:    issuer,
		Audience:  jwt.ClaimStrings{audience},
		ID:        uuid.NewString(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *tokenManager) ValidateToken(tokenString string) (*UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithIssuer(issuer))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*UserClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == 0 && claims.Subject != "" {
		uid, err := strconv.Atoi(claims.Subject)
		if err != nil {
			return nil, ErrInvalidToken
		}
		claims.UserID = int32(uid)
	}
	if claims.Role == "" {
		claims.Role = domain.UserRoleCustomer
	}
	return claims, nil
}
