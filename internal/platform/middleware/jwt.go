package middleware

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	id "servicebook/pkg/domain"
)

// tokenClaims is the wire shape of the service's JWTs.
type tokenClaims struct {
	jwt.RegisteredClaims

	OfficerID string `json:"officer_id"`
	SessionID string `json:"session_id"`
	Role      string `json:"role"`
	ActorName string `json:"actor_name"`
}

// HMACValidator validates HS256 tokens issued by the identity front end.
type HMACValidator struct {
	key []byte
}

func NewHMACValidator(key string) *HMACValidator {
	return &HMACValidator{key: []byte(key)}
}

func (v *HMACValidator) ValidateToken(tokenString string) (*Claims, error) {
	var claims tokenClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return v.key, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("token is not valid")
	}

	officerID, err := id.ParseOfficerID(claims.OfficerID)
	if err != nil {
		return nil, fmt.Errorf("token officer id: %w", err)
	}
	role, err := id.ParseActorRole(claims.Role)
	if err != nil {
		return nil, fmt.Errorf("token role: %w", err)
	}

	out := &Claims{OfficerID: officerID, Role: role, ActorName: claims.ActorName}
	if claims.SessionID != "" {
		sessionID, err := id.ParseSessionID(claims.SessionID)
		if err != nil {
			return nil, fmt.Errorf("token session id: %w", err)
		}
		out.SessionID = sessionID
	}
	return out, nil
}

// IssueToken mints a signed token for the given claims. Used by the session
// endpoints and by tests.
func (v *HMACValidator) IssueToken(claims Claims, ttl time.Duration, now time.Time) (string, error) {
	wire := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		OfficerID: claims.OfficerID.String(),
		Role:      claims.Role.String(),
		ActorName: claims.ActorName,
	}
	if !claims.SessionID.IsNil() {
		wire.SessionID = claims.SessionID.String()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, wire)
	signed, err := token.SignedString(v.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
