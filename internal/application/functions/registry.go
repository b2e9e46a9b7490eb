// Package functions exposes the application services as named backend
// functions on a live registry.
package functions

import (
	"context"
	"log/slog"

	"github.com/enthub-api/internal/application/auth"
	"github.com/enthub-api/internal/application/lists"
	"github.com/enthub-api/internal/application/user"
	"github.com/enthub-api/internal/domain"
	"github.com/enthub-api/internal/live"
)

// Function names.
const (
	IssueCode       = "auth.issueCode"
	VerifyCode      = "auth.verifyCode"
	GetStatus       = "lists.getStatus"
	ToggleWatchlist = "lists.toggleWatchlist"
	MarkWatched     = "lists.markWatched"
	RemoveWatched   = "lists.removeWatched"
	SetRating       = "lists.setRating"
	GetWatchlist    = "lists.getWatchlist"
	GetWatched      = "lists.getWatched"
	GetUser         = "users.get"
	ListUsers       = "users.list"
)

// Registry is where functions are registered.
type Registry interface {
	RegisterQuery(name string, fn live.QueryFunc)
	RegisterMutation(name string, fn live.MutationFunc)
}

// TokenSigner issues a session token for a verified user.
type TokenSigner interface {
	Sign(userID, email string) (string, error)
}

// Deps holds the services behind the functions. Users and Tokens are optional.
type Deps struct {
	Auth   auth.Service
	Lists  lists.Service
	Users  user.Service
	Tokens TokenSigner
}

// IssueResult acknowledges a code request.
type IssueResult struct {
	Success bool `json:"success"`
}

// VerifyResult identifies the signed-in user. Token is set when the server
// signs session tokens.
type VerifyResult struct {
	UserID  string `json:"userId"`
	Email   string `json:"email"`
	Created bool   `json:"created"`
	Token   string `json:"token,omitempty"`
}

// ToggleResult reports whether a toggle added the item.
type ToggleResult struct {
	Added bool `json:"added"`
}

// Register adds every function to r.
func Register(r Registry, d Deps) {
	h := &handlers{deps: d}

	r.RegisterMutation(IssueCode, h.issueCode)
	r.RegisterMutation(VerifyCode, h.verifyCode)

	r.RegisterQuery(GetStatus, h.getStatus)
	r.RegisterQuery(GetWatchlist, h.getWatchlist)
	r.RegisterQuery(GetWatched, h.getWatched)
	r.RegisterMutation(ToggleWatchlist, h.toggleWatchlist)
	r.RegisterMutation(MarkWatched, h.markWatched)
	r.RegisterMutation(RemoveWatched, h.removeWatched)
	r.RegisterMutation(SetRating, h.setRating)

	if d.Users != nil {
		r.RegisterQuery(GetUser, h.getUser)
		r.RegisterQuery(ListUsers, h.listUsers)
	}
}

type handlers struct {
	deps Deps
}

func (h *handlers) issueCode(ctx context.Context, args live.Args) (any, error) {
	email, err := args.String("email")
	if err != nil {
		return nil, err
	}
	if err := h.deps.Auth.IssueCode(ctx, email); err != nil {
		return nil, err
	}
	return IssueResult{Success: true}, nil
}

func (h *handlers) verifyCode(ctx context.Context, args live.Args) (any, error) {
	email, err := args.String("email")
	if err != nil {
		return nil, err
	}
	code, err := args.String("code")
	if err != nil {
		return nil, err
	}
	res, err := h.deps.Auth.VerifyCode(ctx, email, code)
	if err != nil {
		return nil, err
	}
	out := VerifyResult{UserID: res.UserID, Email: res.Email, Created: res.Created}
	if h.deps.Tokens != nil {
		tok, err := h.deps.Tokens.Sign(res.UserID, res.Email)
		if err != nil {
			slog.Error("sign session token", "user_id", res.UserID, "error", err)
			return nil, err
		}
		out.Token = tok
	}
	return out, nil
}

func (h *handlers) getStatus(ctx context.Context, args live.Args) (any, error) {
	userID, tmdbID, err := userAndItem(args)
	if err != nil {
		return nil, err
	}
	return h.deps.Lists.GetStatus(ctx, userID, tmdbID)
}

func (h *handlers) getWatchlist(ctx context.Context, args live.Args) (any, error) {
	userID, err := args.String("userId")
	if err != nil {
		return nil, err
	}
	return h.deps.Lists.GetWatchlist(ctx, userID)
}

func (h *handlers) getWatched(ctx context.Context, args live.Args) (any, error) {
	userID, err := args.String("userId")
	if err != nil {
		return nil, err
	}
	return h.deps.Lists.GetWatched(ctx, userID)
}

func (h *handlers) toggleWatchlist(ctx context.Context, args live.Args) (any, error) {
	userID, in, err := userAndMedia(args)
	if err != nil {
		return nil, err
	}
	added, err := h.deps.Lists.ToggleWatchlist(ctx, userID, in)
	if err != nil {
		return nil, err
	}
	return ToggleResult{Added: added}, nil
}

func (h *handlers) markWatched(ctx context.Context, args live.Args) (any, error) {
	userID, in, err := userAndMedia(args)
	if err != nil {
		return nil, err
	}
	return nil, h.deps.Lists.MarkWatched(ctx, userID, in)
}

func (h *handlers) removeWatched(ctx context.Context, args live.Args) (any, error) {
	userID, tmdbID, err := userAndItem(args)
	if err != nil {
		return nil, err
	}
	return nil, h.deps.Lists.RemoveWatched(ctx, userID, tmdbID)
}

func (h *handlers) setRating(ctx context.Context, args live.Args) (any, error) {
	userID, tmdbID, err := userAndItem(args)
	if err != nil {
		return nil, err
	}
	rating, err := args.Float("rating")
	if err != nil {
		return nil, err
	}
	return nil, h.deps.Lists.SetRating(ctx, userID, tmdbID, rating)
}

func (h *handlers) getUser(ctx context.Context, args live.Args) (any, error) {
	userID, err := args.String("userId")
	if err != nil {
		return nil, err
	}
	return h.deps.Users.Get(ctx, userID)
}

func (h *handlers) listUsers(ctx context.Context, args live.Args) (any, error) {
	limit := 0
	if _, ok := args["limit"]; ok {
		n, err := args.Int("limit")
		if err != nil {
			return nil, err
		}
		limit = int(n)
	}
	users, err := h.deps.Users.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

func userAndItem(args live.Args) (string, int64, error) {
	userID, err := args.String("userId")
	if err != nil {
		return "", 0, err
	}
	tmdbID, err := args.Int("tmdbId")
	if err != nil {
		return "", 0, err
	}
	return userID, tmdbID, nil
}

func userAndMedia(args live.Args) (string, domain.MediaInput, error) {
	userID, err := args.String("userId")
	if err != nil {
		return "", domain.MediaInput{}, err
	}
	var in domain.MediaInput
	if err := args.Bind(&in); err != nil {
		return "", domain.MediaInput{}, err
	}
	return userID, in, nil
}
