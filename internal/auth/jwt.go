package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "sudooom.mahjong/pkg/errors"
)

const issuer = "mahjong"

// Claims JWT 声明，Subject 与 PlayerID 相同
type Claims struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	jwt.RegisteredClaims
}

// Service JWT 服务
type Service struct {
	secretKey []byte
	expire    time.Duration
	now       func() time.Time
}

// NewService 创建 JWT 服务
func NewService(secretKey string, expire time.Duration) *Service {
	return &Service{
		secretKey: []byte(secretKey),
		expire:    expire,
		now:       time.Now,
	}
}

// GenerateToken 为玩家签发 token
func (s *Service) GenerateToken(playerID string, name string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.expire)

	claims := &Claims{
		PlayerID: playerID,
		Name:     name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   playerID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ValidateToken 验证 token，返回其中的稳定身份
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperrors.ErrTokenInvalid
		}
		return s.secretKey, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(s.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, apperrors.ErrTokenInvalid.Wrap(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.PlayerID == "" {
		return nil, apperrors.ErrTokenInvalid
	}

	return claims, nil
}
