package app

import (
	"fmt"
	"time"

	"blokus/internal/domain"

	"github.com/form3tech-oss/jwt-go"
)

const seatTokenIssuer = "blokus"

// SeatTokens issues and verifies signed tokens that bind a caller to one color of one game.
type SeatTokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

type seatClaims struct {
	GameID string `json:"gid"`
	Color  string `json:"col"`
	jwt.StandardClaims
}

// NewSeatTokens returns a token service, or nil when secret is empty.
func NewSeatTokens(secret string, ttl time.Duration) *SeatTokens {
	if secret == "" {
		return nil
	}
	return &SeatTokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for color in gameID.
func (s *SeatTokens) Issue(gameID string, color domain.Color) (string, error) {
	if s == nil {
		return "", ErrSeatTokenDisabled
	}
	now := s.now()
	claims := seatClaims{
		GameID: gameID,
		Color:  color.String(),
		StandardClaims: jwt.StandardClaims{
			Issuer:    seatTokenIssuer,
			Subject:   gameID + "/" + color.String(),
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(s.ttl).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify checks a token's signature and expiry and returns the seat it grants.
func (s *SeatTokens) Verify(tokenString string) (string, domain.Color, error) {
	if s == nil {
		return "", 0, ErrSeatTokenDisabled
	}
	claims := &seatClaims{}
	parser := &jwt.Parser{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrInvalidSeatToken, err)
	}
	if !token.Valid || claims.Issuer != seatTokenIssuer || claims.GameID == "" {
		return "", 0, ErrInvalidSeatToken
	}
	color, err := domain.ParseColor(claims.Color)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrInvalidSeatToken, err)
	}
	return claims.GameID, color, nil
}
