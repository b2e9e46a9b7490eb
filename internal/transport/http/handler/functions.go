package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/enthub-api/internal/application/functions"
	"github.com/enthub-api/internal/domain"
	"github.com/enthub-api/internal/live"
	"github.com/enthub-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
)

// FunctionHub runs and subscribes to named backend functions.
type FunctionHub interface {
	live.Caller
	live.Subscriber
	IsQuery(name string) bool
}

// FunctionHandler exposes the function registry over HTTP. Calls answer with
// a live.Result; subscriptions stream one server-sent event per result.
type FunctionHandler struct {
	hub       FunctionHub
	enforce   bool
	heartbeat time.Duration
}

// NewFunctionHandler builds the handler. When enforce is set, a userId
// argument must name the caller's authenticated user.
func NewFunctionHandler(hub FunctionHub, enforce bool) *FunctionHandler {
	return &FunctionHandler{hub: hub, enforce: enforce, heartbeat: 15 * time.Second}
}

// authenticatedOnly names functions that need a signed-in caller even without
// a userId argument.
var authenticatedOnly = map[string]bool{
	functions.ListUsers: true,
}

type callRequest struct {
	Args live.Args `json:"args"`
}

func (h *FunctionHandler) Call(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var req callRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeResult(w, r, live.Fail(domain.NewValidationError("", "invalid request body")), http.StatusBadRequest)
		return
	}
	if err := h.authorize(r, name, req.Args); err != nil {
		writeResult(w, r, live.Fail(err), statusFor(err))
		return
	}
	v, err := h.hub.Call(r.Context(), name, req.Args)
	if err != nil {
		if live.KindOf(err) == live.KindInternal {
			slog.Error("function failed", "function", name, "error", err)
		}
		writeResult(w, r, live.Fail(err), statusFor(err))
		return
	}
	res, err := live.Ok(v)
	if err != nil {
		slog.Error("encode function result", "function", name, "error", err)
		writeResult(w, r, live.Fail(err), http.StatusInternalServerError)
		return
	}
	writeResult(w, r, res, http.StatusOK)
}

// Subscribe streams a live query. Arguments arrive JSON-encoded in the args
// query parameter.
func (h *FunctionHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var args live.Args
	if raw := r.URL.Query().Get("args"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			writeResult(w, r, live.Fail(domain.NewValidationError("args", "must be a JSON object")), http.StatusBadRequest)
			return
		}
	}
	if !h.hub.IsQuery(name) {
		err := fmt.Errorf("%w: %s", live.ErrUnknownFunction, name)
		writeResult(w, r, live.Fail(err), http.StatusNotFound)
		return
	}
	if err := h.authorize(r, name, args); err != nil {
		writeResult(w, r, live.Fail(err), statusFor(err))
		return
	}

	ctx := r.Context()
	results := make(chan live.Result, 16)
	push := func(res live.Result) {
		select {
		case results <- res:
		case <-ctx.Done():
		}
	}
	unsub, err := h.hub.Subscribe(ctx, name, args,
		func(v any) {
			res, err := live.Ok(v)
			if err != nil {
				res = live.Fail(err)
			}
			push(res)
		},
		func(err error) {
			if live.KindOf(err) == live.KindInternal {
				slog.Error("live query failed", "function", name, "error", err)
			}
			push(live.Fail(err))
		})
	if err != nil {
		writeResult(w, r, live.Fail(err), statusFor(err))
		return
	}
	defer unsub()

	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		slog.Debug("stream write deadline not cleared", "error", err)
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(": connected\n\n")); err != nil {
		return
	}
	if err := rc.Flush(); err != nil {
		slog.Error("stream flush unsupported", "function", name, "error", err)
		return
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.Write([]byte(": ping\n\n")); err != nil {
				return
			}
		case res := <-results:
			if err := live.WriteEvent(w, res); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

// authorize checks the caller may act for the userId the args name.
func (h *FunctionHandler) authorize(r *http.Request, name string, args live.Args) error {
	if !h.enforce {
		return nil
	}
	caller := middleware.UserIDFromContext(r.Context())
	target, named := args[live.ScopeKey]
	if !named && !authenticatedOnly[name] {
		return nil
	}
	if caller == "" {
		return domain.ErrUnauthorized
	}
	if named {
		if s, ok := target.(string); !ok || s != caller {
			return domain.ErrForbidden
		}
	}
	return nil
}

func writeResult(w http.ResponseWriter, r *http.Request, res live.Result, status int) {
	if status >= http.StatusInternalServerError {
		slog.Warn("function request failed", "path", r.URL.Path, "status", status, "kind", res.ErrorKind)
	}
	writeJSON(w, status, res)
}
