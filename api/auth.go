package api

import (
	"errors"
	"strings"
	"time"

	"github.com/Domenick1991/travelbooking/config"
	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const actorKey = "actor"

// Claims is the access token payload.
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type Authenticator struct {
	secret   []byte
	issuer   string
	audience string
}

func NewAuthenticator(cfg config.AuthConfig) *Authenticator {
	return &Authenticator{secret: []byte(cfg.JWTSecret), issuer: cfg.Issuer, audience: cfg.Audience}
}

// Issue signs an HS256 token for actor. Tokens normally come from the
// identity service; this is used by tests and local tooling.
func (a *Authenticator) Issue(actor domain.Actor, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: actor.UserID,
		Email:  actor.Email,
		Name:   actor.Name,
		Role:   string(actor.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    a.issuer,
			Audience:  jwt.ClaimStrings{a.audience},
			Subject:   actor.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func (a *Authenticator) Parse(raw string) (domain.Actor, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(a.issuer),
		jwt.WithAudience(a.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return domain.Actor{}, domain.ErrUnauthorized
	}

	userID := claims.UserID
	if userID == "" {
		userID = claims.Subject
	}
	if userID == "" {
		return domain.Actor{}, domain.ErrUnauthorized
	}
	role := domain.RoleUser
	if claims.Role == string(domain.RoleAdmin) {
		role = domain.RoleAdmin
	}
	return domain.Actor{UserID: userID, Email: claims.Email, Name: claims.Name, Role: role}, nil
}

// Required rejects requests without a valid bearer token.
func (a *Authenticator) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			writeError(c, domain.ErrUnauthorized)
			return
		}
		actor, err := a.Parse(strings.TrimSpace(raw))
		if err != nil {
			writeError(c, err)
			return
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := actorFrom(c)
		if err != nil {
			writeError(c, err)
			return
		}
		if !actor.IsAdmin() {
			writeError(c, domain.ErrAccessDenied)
			return
		}
		c.Next()
	}
}

func actorFrom(c *gin.Context) (domain.Actor, error) {
	v, ok := c.Get(actorKey)
	if !ok {
		return domain.Actor{}, domain.ErrUnauthorized
	}
	actor, ok := v.(domain.Actor)
	if !ok {
		return domain.Actor{}, errors.New("unexpected actor type in request context")
	}
	return actor, nil
}
