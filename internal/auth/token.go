package auth

import (
	"crypto"
	"crypto/rsa"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/jwa"
	"github.com/lestrrat-go/jwx/jwk"
	"github.com/lestrrat-go/jwx/jws"
	"github.com/lestrrat-go/jwx/jwt"
)

const (
	SignatureAlgorithm     = jwa.RS512
	Issuer                 = "clinic_booking"
	AccessTokenType        = "access"
	RefreshTokenType       = "refresh"
	AccessTokenExpiration  = 15 * time.Minute
	RefreshTokenExpiration = 12 * time.Hour

	typeClaim    = "typ"
	roleClaim    = "role"
	companyClaim = "company"
)

// Claims are the fields read back from a verified token.
type Claims struct {
	Subject     string
	Type        string
	Role        Role
	CompanyCode string
	ExpiresAt   time.Time
}

// newToken builds an unsigned token of the given type for user.
func newToken(user User, tokenType string, lifetime time.Duration) (jwt.Token, error) {
	now := time.Now()
	claims := map[string]interface{}{
		jwt.IssuerKey:     Issuer,
		jwt.AudienceKey:   []string{Issuer},
		jwt.SubjectKey:    user.UUID.String(),
		jwt.JwtIDKey:      uuid.NewString(),
		jwt.IssuedAtKey:   now,
		jwt.ExpirationKey: now.Add(lifetime),
		typeClaim:         tokenType,
		roleClaim:         string(user.Role),
		companyClaim:      user.CompanyCode,
	}
	token := jwt.New()
	for key, value := range claims {
		if err := token.Set(key, value); err != nil {
			return nil, fmt.Errorf("set claim %s: %w", key, err)
		}
	}
	return token, nil
}

// keyID derives the kid header from the thumbprint of the signing key.
func keyID(privateKey rsa.PrivateKey) (string, error) {
	key, err := jwk.New(privateKey)
	if err != nil {
		return "", err
	}
	thumbprint, err := key.Thumbprint(crypto.SHA256)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(thumbprint), nil
}

// SignToken signs the given token using the given private key.
func SignToken(token jwt.Token, privateKey rsa.PrivateKey) (string, error) {
	kid, err := keyID(privateKey)
	if err != nil {
		return "", err
	}
	headers := jws.NewHeaders()
	if err = headers.Set(jws.KeyIDKey, kid); err != nil {
		return "", err
	}
	signed, err := jwt.Sign(token, SignatureAlgorithm, privateKey, jwt.WithHeaders(headers))
	if err != nil {
		return "", err
	}
	return string(signed), nil
}

// ParseToken verifies the signature, issuer and expiration of token and returns its claims.
func ParseToken(token string, publicKey rsa.PublicKey) (*Claims, error) {
	parsed, err := jwt.Parse([]byte(token), jwt.WithVerify(SignatureAlgorithm, publicKey))
	if err != nil {
		return nil, err
	}
	if err = jwt.Validate(parsed, jwt.WithIssuer(Issuer)); err != nil {
		return nil, err
	}
	claims := &Claims{Subject: parsed.Subject(), ExpiresAt: parsed.Expiration()}
	if v, ok := parsed.Get(typeClaim); ok {
		claims.Type, _ = v.(string)
	}
	if v, ok := parsed.Get(roleClaim); ok {
		role, _ := v.(string)
		claims.Role = Role(role)
	}
	if v, ok := parsed.Get(companyClaim); ok {
		claims.CompanyCode, _ = v.(string)
	}
	return claims, nil
}

// GenerateTokens generates an access and a refresh token for the given user.
func GenerateTokens(privateKey rsa.PrivateKey, user User) (*Tokens, error) {
	tokens := &Tokens{}
	for _, issue := range []struct {
		tokenType string
		lifetime  time.Duration
		target    *string
	}{
		{AccessTokenType, AccessTokenExpiration, &tokens.AccessToken},
		{RefreshTokenType, RefreshTokenExpiration, &tokens.RefreshToken},
	} {
		token, err := newToken(user, issue.tokenType, issue.lifetime)
		if err != nil {
			return nil, err
		}
		if *issue.target, err = SignToken(token, privateKey); err != nil {
			return nil, err
		}
	}
	return tokens, nil
}

// MustGenerateTokens generates Tokens for the given user and if any error occurs, will panic.
func MustGenerateTokens(privateKey rsa.PrivateKey, user User) *Tokens {
	tokens, err := GenerateTokens(privateKey, user)
	if err != nil {
		panic(err)
	}
	return tokens
}
