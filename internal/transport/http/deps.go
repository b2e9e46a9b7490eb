package http

import (
	"github.com/enthub-api/internal/application/auth"
	"github.com/enthub-api/internal/application/lists"
	"github.com/enthub-api/internal/application/user"
	jwtinfra "github.com/enthub-api/internal/infrastructure/jwt"
	"github.com/enthub-api/internal/live"
	"github.com/enthub-api/internal/transport/http/handler"
)

// Deps holds the services the router exposes. JWTProvider and Media are
// optional: without a provider the REST list routes answer 401 and the
// function surface trusts the userId argument; without Media the
// /v1/media routes are not mounted.
type Deps struct {
	Auth        auth.Service
	Lists       lists.Service
	Users       user.Service
	Media       handler.MediaSource
	Hub         *live.Hub
	JWTProvider *jwtinfra.Provider
}
