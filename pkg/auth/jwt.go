package auth

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/yourusername/mastery-api/internal/domain/entity"
	apperrors "github.com/yourusername/mastery-api/internal/pkg/errors"
)

const (
	tokenIssuer      = "mastery-api"
	accessAudience   = "mastery-api"
	wsAudience       = "mastery-ws"
	usageAccess      = "access"
	usageWSTicket    = "websocket_auth"
	minSecretLength  = 16
	defaultExpiryHrs = 5
)

// JWTCustomClaims содержит пользовательские поля для токена
type JWTCustomClaims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	// Usage отличает токен доступа от тикета WebSocket
	Usage string `json:"usage"`
	jwt.RegisteredClaims
}

// JWTService выпускает и проверяет токены, подписанные HMAC-SHA256
type JWTService struct {
	secret         []byte
	expiration     time.Duration
	wsTicketExpiry time.Duration
	now            func() time.Time
}

// NewJWTService создает новый сервис JWT и возвращает ошибку при проблемах
func NewJWTService(secret string, expirationHrs int, wsTicketExpirySec int) (*JWTService, error) {
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d characters", minSecretLength)
	}
	if expirationHrs <= 0 {
		expirationHrs = defaultExpiryHrs
	}
	wsExpiry := time.Duration(wsTicketExpirySec) * time.Second
	if wsExpiry <= 0 {
		wsExpiry = 60 * time.Second
	}
	return &JWTService{
		secret:         []byte(secret),
		expiration:     time.Duration(expirationHrs) * time.Hour,
		wsTicketExpiry: wsExpiry,
		now:            time.Now,
	}, nil
}

// GenerateToken создает токен доступа для пользователя
func (s *JWTService) GenerateToken(user *entity.User) (string, error) {
	return s.sign(user.ID, user.Username, user.Role, usageAccess, accessAudience, s.expiration)
}

// GenerateWSTicket создает короткоживущий JWT для аутентификации WebSocket
func (s *JWTService) GenerateWSTicket(userID uint, username, role string) (string, error) {
	ticket, err := s.sign(userID, username, role, usageWSTicket, wsAudience, s.wsTicketExpiry)
	if err != nil {
		log.Printf("[JWT] Ошибка генерации WS-тикета для пользователя ID=%d: %v", userID, err)
		return "", err
	}
	return ticket, nil
}

func (s *JWTService) sign(userID uint, username, role, usage, audience string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := &JWTCustomClaims{
		UserID:   userID,
		Username: username,
		Role:     role,
		Usage:    usage,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    tokenIssuer,
			Subject:   strconv.FormatUint(uint64(userID), 10),
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ParseToken проверяет токен доступа и возвращает его claims
func (s *JWTService) ParseToken(tokenString string) (*JWTCustomClaims, error) {
	return s.parse(tokenString, usageAccess, accessAudience)
}

// ParseWSTicket проверяет JWT, используемый как WS тикет
func (s *JWTService) ParseWSTicket(ticketString string) (*JWTCustomClaims, error) {
	return s.parse(ticketString, usageWSTicket, wsAudience)
}

func (s *JWTService) parse(tokenString, usage, audience string) (*JWTCustomClaims, error) {
	claims := &JWTCustomClaims{}
	parser := jwt.Parser{
		ValidMethods: []string{jwt.SigningMethodHS256.Alg()},
	}

	_, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) && ve.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, apperrors.ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", apperrors.ErrUnauthorized, err)
	}

	if claims.Usage != usage || !claims.VerifyAudience(audience, true) {
		return nil, fmt.Errorf("%w: token is not valid for %s", apperrors.ErrUnauthorized, usage)
	}
	if claims.UserID == 0 {
		return nil, fmt.Errorf("%w: token has no user id", apperrors.ErrUnauthorized)
	}
	return claims, nil
}
