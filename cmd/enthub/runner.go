package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/enthub-api/internal/live"
	"github.com/enthub-api/internal/session"
	"github.com/urfave/cli/v3"
)

var (
	errNotSignedIn = errors.New("not signed in; run `enthub login` first")
	errServer      = errors.New("server request failed")
)

// Runner holds the dependencies shared by every command. The session store
// and live client are built in Setup once the global flags are parsed.
type Runner struct {
	logger     *log.Logger
	output     io.Writer
	input      io.Reader
	httpClient *http.Client

	server   string
	debounce time.Duration
	storage  *session.FileStorage
	store    *session.Store
	client   *live.Client
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
	HTTPClient *http.Client
}

func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = newLogger(os.Stderr)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	return &Runner{
		logger:     opts.Logger,
		output:     opts.Output,
		input:      opts.Input,
		httpClient: opts.HTTPClient,
	}
}

func newLogger(w io.Writer) *log.Logger {
	return log.NewWithOptions(w, log.Options{ReportTimestamp: true, Prefix: "enthub"})
}

// Setup opens the session file named by --state and points the live client
// at --server.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("debug") {
		r.logger.SetLevel(log.DebugLevel)
	}
	r.server = cmd.String("server")
	r.debounce = cmd.Duration("debounce")

	path := cmd.String("state")
	if path == "" {
		p, err := defaultStatePath()
		if err != nil {
			return ctx, err
		}
		path = p
	}
	r.storage = session.NewFileStorage(path)
	store, err := session.New(r.storage)
	if err != nil {
		return ctx, fmt.Errorf("open session %s: %w", path, err)
	}
	r.store = store
	r.client = live.NewClient(r.server, live.WithToken(store.Token), live.WithHTTPClient(r.httpClient))
	r.logger.Debug("session loaded", "path", path, "server", r.server, "signed_in", store.IsAuthenticated())
	return ctx, nil
}

func defaultStatePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "enthub", "session.json"), nil
}

func (r *Runner) requireUser() (string, error) {
	id := r.store.UserID()
	if id == "" {
		return "", errNotSignedIn
	}
	return id, nil
}

// call runs a backend function and decodes its value into out, which may be nil.
func (r *Runner) call(ctx context.Context, name string, args live.Args, out any) error {
	r.logger.Debug("call", "function", name)
	v, err := r.client.Call(ctx, name, args)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return live.Decode(v, out)
}

// mutate runs a state-changing backend function through a mutation handle.
func (r *Runner) mutate(ctx context.Context, name string, args live.Args, out any) error {
	m, err := live.UseMutation(r.client, name)
	if err != nil {
		return err
	}
	r.logger.Debug("mutate", "function", name)
	v, err := m.Mutate(ctx, args)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return live.Decode(v, out)
}

// getJSON fetches a REST resource from the server into out.
func (r *Runner) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.server+path, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", errServer, err)
	}
	if tok := r.store.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", errServer, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var body struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		if body.Error == "" {
			body.Error = resp.Status
		}
		return fmt.Errorf("%w: %s", errServer, body.Error)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", errServer, err)
	}
	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error
	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	if _, err := r.output.Write(append(output, '\n')); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	if _, err := fmt.Fprintf(r.output, format, args...); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
