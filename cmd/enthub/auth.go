package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/enthub-api/internal/application/functions"
	"github.com/enthub-api/internal/domain"
	"github.com/enthub-api/internal/live"
	"github.com/urfave/cli/v3"
)

// Login requests a code for --email and verifies it. Without --code the code
// is read from standard input.
func (r *Runner) Login(ctx context.Context, cmd *cli.Command) error {
	email := strings.TrimSpace(cmd.String("email"))
	code := strings.TrimSpace(cmd.String("code"))

	if code == "" {
		if err := r.mutate(ctx, functions.IssueCode, live.Args{"email": email}, nil); err != nil {
			return fmt.Errorf("request code: %w", err)
		}
		r.logger.Info("login code sent", "email", email)
		if err := r.writePlain("Enter the 6-digit code sent to %s: ", email); err != nil {
			return err
		}
		line, err := bufio.NewReader(r.input).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read code: %w", err)
		}
		code = strings.TrimSpace(line)
	}

	var res functions.VerifyResult
	if err := r.mutate(ctx, functions.VerifyCode, live.Args{"email": email, "code": code}, &res); err != nil {
		switch {
		case errors.Is(err, domain.ErrCodeExpired):
			return fmt.Errorf("%w; request a new one", err)
		case errors.Is(err, domain.ErrTooManyAttempts):
			return fmt.Errorf("%w; request a new code", err)
		}
		return fmt.Errorf("verify code: %w", err)
	}
	if err := r.store.Login(res.UserID, res.Token); err != nil {
		return err
	}
	if res.Created {
		return r.writePlain("Welcome to EntHub! Signed in as %s\n", res.Email)
	}
	return r.writePlain("Signed in as %s\n", res.Email)
}

func (r *Runner) Logout(ctx context.Context, cmd *cli.Command) error {
	if !r.store.IsAuthenticated() {
		return r.writePlain("Not signed in\n")
	}
	if err := r.store.Logout(); err != nil {
		return err
	}
	return r.writePlain("Signed out\n")
}

// Whoami prints the signed-in user. The profile is fetched when the server
// publishes users.get.
func (r *Runner) Whoami(ctx context.Context, cmd *cli.Command) error {
	userID, err := r.requireUser()
	if err != nil {
		return err
	}
	var u domain.User
	err = r.call(ctx, functions.GetUser, live.Args{"userId": userID}, &u)
	switch {
	case err == nil:
		if cmd.Bool("json") {
			return r.writeJSON(u, true)
		}
		return r.writePlain("%s (%s)\n", u.Email, u.UserID)
	case errors.Is(err, live.ErrUnknownFunction):
		return r.writePlain("%s\n", userID)
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUnauthorized):
		r.logger.Warn("stored session is no longer valid", "user_id", userID, "err", err)
		return r.writePlain("%s (session expired; run `enthub login`)\n", userID)
	}
	return err
}
