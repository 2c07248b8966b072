package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"ad-rewards-go/internal/api"
	"ad-rewards-go/internal/models"
	"ad-rewards-go/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const userKey = "user"

// Claims is the bearer token payload. The subject is the user's OpenID.
type Claims struct {
	Name        string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	LoginMethod string `json:"login_method,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator issues and verifies HS256 bearer tokens
type Authenticator struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewAuthenticator(cfg models.AuthConfig) (*Authenticator, error) {
	if len(cfg.JwtSecret) < 16 {
		return nil, fmt.Errorf("JWT_SECRET must be at least 16 characters")
	}
	if cfg.TokenTtl <= 0 {
		cfg.TokenTtl = 24 * time.Hour
	}
	return &Authenticator{
		secret: []byte(cfg.JwtSecret),
		issuer: cfg.Issuer,
		ttl:    cfg.TokenTtl,
		now:    time.Now,
	}, nil
}

// IssueToken signs a token for the given identity
func (a *Authenticator) IssueToken(openId, name, email, loginMethod string) (string, error) {
	now := a.now()
	claims := Claims{
		Name:        name,
		Email:       email,
		LoginMethod: loginMethod,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   openId,
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// ParseToken verifies signature, issuer and expiry and returns the claims
func (a *Authenticator) ParseToken(signedToken string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	token, err := jwt.ParseWithClaims(signedToken, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, errors.New("error parsing claims")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

// requireUser authenticates the bearer token and signs the user in. The
// resolved user is stored on both the gin and request contexts.
func (s *Server) requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(raw) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims, err := s.auth.ParseToken(strings.TrimSpace(raw))
		if err != nil {
			zap.L().Debug("Rejected bearer token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid bearer token"})
			return
		}

		user, err := s.points.SignIn(c.Request.Context(), store.UpsertUserParams{
			OpenId:      claims.Subject,
			Name:        claims.Name,
			Email:       claims.Email,
			LoginMethod: claims.LoginMethod,
		})
		if err != nil {
			writeError(c, err)
			c.Abort()
			return
		}

		c.Set(userKey, user)
		c.Request = c.Request.WithContext(models.WithUser(c.Request.Context(), user))
		c.Next()
	}
}

// requireAdmin rejects non-admin users before any admin handler runs
func (s *Server) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !currentUser(c).IsAdmin() {
			writeError(c, api.ErrUnauthorized)
			c.Abort()
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) *models.User {
	return models.UserFromContext(c.Request.Context())
}
