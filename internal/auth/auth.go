package auth

import (
	"net/http"

	"github.com/synthmesh/datagen-api/internal/config"
	"go.uber.org/zap"
)

type Authenticator interface {
	Authenticator(next http.Handler) http.Handler
}

const (
	JWTAuthentication  string = "jwt"
	NoneAuthentication string = "none"
)

func NewAuthenticator(authConfig config.Auth) (Authenticator, error) {
	zap.S().Named("auth").Infof("authentication: '%s'", authConfig.AuthenticationType)

	switch authConfig.AuthenticationType {
	case JWTAuthentication:
		return NewJWTAuthenticator(authConfig.JwkCertURL)
	default:
		return NewNoneAuthenticator()
	}
}
