package service

import (
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrMediaNotConfigured = errors.New("media api key and secret are required")

// TokenService issues signed access tokens for the media server. A token is a
// pure function of room + identity + config; the service shares no state with
// the session core.
type TokenService struct {
	apiKey    string
	apiSecret string
	ttl       time.Duration
	log       *slog.Logger
}

func NewTokenService(apiKey, apiSecret string, ttl time.Duration, log *slog.Logger) *TokenService {
	if log == nil {
		log = slog.Default()
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenService{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		ttl:       ttl,
		log:       log,
	}
}

type videoGrant struct {
	Room     string `json:"room"`
	RoomJoin bool   `json:"roomJoin"`
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Name  string     `json:"name"`
	Video videoGrant `json:"video"`
}

// CreateToken returns an HS256 JWT granting identity the right to join
// roomName on the media server.
func (s *TokenService) CreateToken(roomName, identity string) (string, error) {
	if s.apiKey == "" || s.apiSecret == "" {
		return "", ErrMediaNotConfigured
	}
	if roomName == "" || identity == "" {
		return "", errors.New("room name and identity are required")
	}

	now := time.Now().UTC()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.apiKey,
			Subject:   identity,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Name:  identity,
		Video: videoGrant{Room: roomName, RoomJoin: true},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.apiSecret))
	if err != nil {
		return "", err
	}

	s.log.Debug("issued media token", "room", roomName, "identity", identity)
	return token, nil
}
