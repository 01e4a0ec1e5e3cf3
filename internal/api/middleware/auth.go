package middleware

import (
	"errors"
	"strings"
	"time"

	"collabrio-backend/internal/apperrors"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"
)

const userIDKey = "userId"

var (
	errMissingAuthorization = errors.New("missing authorization header")
	errBadAuthorization     = errors.New("bad auth header")
)

// Auth validates HS256 bearer tokens issued by the identity provider.
type Auth struct {
	secret []byte
	parser *jwt.Parser
}

func NewAuth(secret, issuer, audience string) *Auth {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(time.Minute),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}
	return &Auth{secret: []byte(secret), parser: jwt.NewParser(opts...)}
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", errMissingAuthorization
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", errBadAuthorization
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.Count(token, ".") != 2 {
		return "", errBadAuthorization
	}
	return token, nil
}

// UserID returns the token subject.
func (a *Auth) UserID(token string) (string, error) {
	claims := jwt.RegisteredClaims{}
	if _, err := a.parser.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}); err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", apperrors.NotAuthenticated("Token has no subject")
	}
	return claims.Subject, nil
}

// Handler rejects requests without a valid bearer token. Websocket clients
// cannot set headers, so the token may also come in the "token" query param.
func (a *Auth) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" && c.Query("token") != "" {
			header = "Bearer " + c.Query("token")
		}
		token, err := bearerToken(header)
		if err != nil {
			return apperrors.Wrap(apperrors.KindNotAuthenticated, "Authentication required", err)
		}
		userID, err := a.UserID(token)
		if err != nil {
			log.WithError(err).Debug("Rejected bearer token")
			return apperrors.Wrap(apperrors.KindNotAuthenticated, "Invalid token", err)
		}
		c.Locals(userIDKey, userID)
		return c.Next()
	}
}

// UserID reads the authenticated user set by Auth.Handler.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(userIDKey).(string)
	return id
}
