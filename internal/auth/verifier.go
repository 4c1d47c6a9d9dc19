package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/kwhite/taskpulse/internal/models"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Verifier verifies JWT access tokens and extracts the identity
type Verifier struct {
	jwksManager *JWKSManager
	jwksURL     string
	issuer      string
	audience    string
}

// NewVerifier creates a verifier bound to one issuer and key set.
// audience may be empty to skip the audience check.
func NewVerifier(jwksManager *JWKSManager, jwksURL, issuer, audience string) *Verifier {
	return &Verifier{
		jwksManager: jwksManager,
		jwksURL:     jwksURL,
		issuer:      issuer,
		audience:    audience,
	}
}

// Verify checks the token's signature and claims and returns the
// authenticated identity. The subject claim must be the user's UUID.
func (v *Verifier) Verify(ctx context.Context, tokenString string) (*models.Identity, error) {
	keys, err := v.jwksManager.GetJWKS(ctx, v.jwksURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get JWKS: %w", err)
	}

	options := []jwt.ParseOption{
		jwt.WithKeySet(keys),
		jwt.WithValidate(true),
		jwt.WithIssuer(v.issuer),
	}
	if v.audience != "" {
		options = append(options, jwt.WithAudience(v.audience))
	}

	token, err := jwt.Parse([]byte(tokenString), options...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse/verify token: %w", err)
	}

	userID, err := uuid.Parse(token.Subject())
	if err != nil {
		return nil, fmt.Errorf("subject is not a valid user id: %w", err)
	}

	identity := &models.Identity{UserID: userID}

	if email, ok := token.Get("email"); ok {
		if emailStr, ok := email.(string); ok {
			identity.Email = emailStr
		}
	}
	if name, ok := token.Get("name"); ok {
		if nameStr, ok := name.(string); ok {
			identity.Name = nameStr
		}
	}
	if picture, ok := token.Get("picture"); ok {
		if pictureStr, ok := picture.(string); ok {
			identity.AvatarURL = pictureStr
		}
	}

	return identity, nil
}
