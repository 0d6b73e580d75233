package service

import (
	"github.com/clerk/clerk-sdk-go/v2"

	"github.com/pharmintel/pharmintel/internal/server"
)

// AuthService configures the Clerk SDK. Token verification itself lives
// in the auth middleware; user lookups (digest recipients) go through the
// SDK's user API, which reads the key set here.
type AuthService struct {
	server *server.Server
}

func NewAuthService(s *server.Server) *AuthService {
	clerk.SetKey(s.Config.Auth.SecretKey)
	return &AuthService{
		server: s,
	}
}
