// Package identity verifies bearer access tokens issued by the auth
// collaborator and turns them into the request identity the core consumes.
// Token issuance lives outside this repository.
package identity

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	types "github.com/profpulse/profpulse-backend/internal/domain"
	"github.com/profpulse/profpulse-backend/internal/platform/ctxutil"
	"github.com/profpulse/profpulse-backend/internal/platform/logger"
)

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type Resolver interface {
	Resolve(tokenString string) (*ctxutil.RequestData, error)
}

type jwtResolver struct {
	log       *logger.Logger
	secretKey string
}

func NewJWTResolver(log *logger.Logger, secretKey string) Resolver {
	resolverLog := log.With("service", "IdentityResolver")
	return &jwtResolver{log: resolverLog, secretKey: secretKey}
}

func (jr *jwtResolver) Resolve(tokenString string) (*ctxutil.RequestData, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("missing access token")
	}
	parsedToken, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(jr.secretKey), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	claims, ok := parsedToken.Claims.(*Claims)
	if !ok || !parsedToken.Valid {
		return nil, fmt.Errorf("invalid or expired token")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("invalid user id in token: %w", err)
	}
	if !types.RoleValid(types.Role(claims.Role)) {
		return nil, fmt.Errorf("unknown role in token")
	}
	return &ctxutil.RequestData{UserID: userID, Role: claims.Role}, nil
}
