package utils

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserClaims is the payload carried by every session token.
// Authenticated mirrors the login outcome: a token minted without a
// successful login carries false and never resolves to a user.
type UserClaims struct {
	UserID        string `json:"user_id"`
	Authenticated bool   `json:"authenticated"`
	jwt.RegisteredClaims
}

// JWTCodec signs and verifies session tokens with a single HMAC secret.
// It is built once from config and injected wherever tokens are minted
// or validated.
type JWTCodec struct {
	secret []byte
	ttl    time.Duration
}

func NewJWTCodec(secret string) *JWTCodec {
	return &JWTCodec{
		secret: []byte(secret),
		ttl:    72 * time.Hour,
	}
}

func (c *JWTCodec) Sign(userID primitive.ObjectID, authenticated bool) (string, error) {
	claims := UserClaims{
		UserID:        userID.Hex(),
		Authenticated: authenticated,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(c.ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Decode verifies signature and expiry and returns the claims.
// Structural failures are returned as-is; callers normalize them into
// their own "not authenticated" outcome.
func (c *JWTCodec) Decode(tokenString string) (*UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return c.secret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*UserClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrTokenSignatureInvalid
}
