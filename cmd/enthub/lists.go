package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/enthub-api/internal/application/functions"
	"github.com/enthub-api/internal/domain"
	"github.com/enthub-api/internal/listfilter"
	"github.com/enthub-api/internal/live"
	"github.com/urfave/cli/v3"
)

// listView is the --json shape of a list command.
type listView struct {
	Data      []domain.ListEntry `json:"data"`
	Total     int                `json:"total"`
	Filtered  bool               `json:"filtered"`
	Genres    []string           `json:"genres"`
	Languages []string           `json:"languages"`
	Statuses  []string           `json:"statuses"`
}

func listFunction(kind domain.ListKind) string {
	if kind == domain.ListWatched {
		return functions.GetWatched
	}
	return functions.GetWatchlist
}

// engineFromFlags builds the filter engine for kind from the list flags.
func engineFromFlags(kind domain.ListKind, cmd *cli.Command) (*listfilter.Engine, error) {
	e := listfilter.ForKind(kind)
	if v := cmd.String("sort"); v != "" {
		if !slices.Contains(listfilter.SortModes, v) {
			return nil, fmt.Errorf("unknown sort %q (want one of %s)", v, strings.Join(listfilter.SortModes, ", "))
		}
		e.SortBy = v
	}
	if v := cmd.String("type"); v != "" {
		e.TypeFilter = v
	}
	e.GenreFilter = cmd.String("genre")
	e.LanguageFilter = cmd.String("language")
	e.StatusFilter = cmd.String("status")
	return e, nil
}

// ListAction prints the signed-in user's list of kind. With --follow the list
// is reprinted every time it changes until interrupted.
func (r *Runner) ListAction(kind domain.ListKind) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		userID, err := r.requireUser()
		if err != nil {
			return err
		}
		engine, err := engineFromFlags(kind, cmd)
		if err != nil {
			return err
		}
		asJSON := cmd.Bool("json")

		if cmd.Bool("follow") {
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()
			return r.follow(ctx, kind, engine, asJSON)
		}

		var entries []domain.ListEntry
		if err := r.call(ctx, listFunction(kind), live.Args{"userId": userID}, &entries); err != nil {
			return fmt.Errorf("load %s: %w", kind, err)
		}
		return r.printList(kind, engine, entries, asJSON)
	}
}

// scopeArgs is the argument bag for the user's list queries. A signed-out
// user yields a null id, which keeps the query closed.
func scopeArgs(userID string) live.Args {
	if userID == "" {
		return live.Args{"userId": nil}
	}
	return live.Args{"userId": userID}
}

// follow keeps a live query open for the current identity. Signing in or out
// in another terminal re-targets it through the session file watcher.
func (r *Runner) follow(ctx context.Context, kind domain.ListKind, engine *listfilter.Engine, asJSON bool) error {
	q, err := live.UseQuery(r.client, listFunction(kind), scopeArgs(r.store.UserID()),
		live.WithDebounce(r.debounce), live.WithContext(ctx))
	if err != nil {
		return err
	}
	defer q.Close()

	stopWatch := r.store.Watch(func(userID string) {
		r.logger.Info("identity changed", "user_id", userID)
		q.SetArgs(scopeArgs(userID))
	})
	defer stopWatch()
	if err := r.storage.Watch(ctx, r.store.Sync); err != nil {
		r.logger.Warn("session changes from other terminals will be missed", "err", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case st, ok := <-q.Updates():
			if !ok {
				return nil
			}
			if err := r.render(kind, engine, st, asJSON); err != nil {
				return err
			}
		}
	}
}

func (r *Runner) render(kind domain.ListKind, engine *listfilter.Engine, st live.State, asJSON bool) error {
	if st.Err != nil {
		r.logger.Error("live query failed", "list", kind, "err", st.Err)
	}
	if !r.store.IsAuthenticated() {
		r.logger.Warn("signed out; waiting for login")
		return nil
	}
	if st.Loading || st.Data == nil {
		r.logger.Debug("loading", "list", kind)
		return nil
	}
	var entries []domain.ListEntry
	if err := live.Decode(st.Data, &entries); err != nil {
		return fmt.Errorf("decode %s: %w", kind, err)
	}
	return r.printList(kind, engine, entries, asJSON)
}

func (r *Runner) printList(kind domain.ListKind, engine *listfilter.Engine, entries []domain.ListEntry, asJSON bool) error {
	shown := engine.FilteredAndSorted(entries)
	if asJSON {
		return r.writeJSON(listView{
			Data:      shown,
			Total:     len(entries),
			Filtered:  engine.HasActiveFilters(),
			Genres:    engine.AvailableGenres(entries),
			Languages: engine.AvailableLanguages(entries),
			Statuses:  engine.AvailableStatuses(entries),
		}, false)
	}

	if len(entries) == 0 {
		return r.writePlain("Your %s is empty\n", kind)
	}
	tw := tabwriter.NewWriter(r.output, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TMDB ID\tTYPE\tTITLE\tYEAR\tRATING")
	for _, e := range shown {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", e.TmdbID, e.MediaType, e.Title, releaseYear(e.ReleaseDate), ratingLabel(e))
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if engine.HasActiveFilters() {
		return r.writePlain("Showing %d of %d\n", len(shown), len(entries))
	}
	return r.writePlain("%d items\n", len(entries))
}

func releaseYear(date string) string {
	if len(date) < 4 {
		return "-"
	}
	return date[:4]
}

func ratingLabel(e domain.ListEntry) string {
	if e.Rating != nil {
		return strconv.FormatFloat(*e.Rating, 'f', -1, 64) + "/10"
	}
	if e.VoteAverage > 0 {
		return strconv.FormatFloat(e.VoteAverage, 'f', 1, 64)
	}
	return "-"
}

// mediaArgs builds the argument bag of toggle and mark-watched.
func mediaArgs(userID string, cmd *cli.Command) (live.Args, error) {
	id, err := tmdbIDArg(cmd)
	if err != nil {
		return nil, err
	}
	args := live.Args{
		"userId":    userID,
		"tmdbId":    id,
		"mediaType": cmd.String("type"),
		"title":     cmd.String("title"),
	}
	if v := cmd.String("poster"); v != "" {
		args["posterPath"] = v
	}
	if v := cmd.String("release-date"); v != "" {
		args["releaseDate"] = v
	}
	if v := cmd.StringSlice("genre"); len(v) > 0 {
		args["genres"] = v
	}
	if v := cmd.String("language"); v != "" {
		args["originalLanguage"] = v
	}
	return args, nil
}

func tmdbIDArg(cmd *cli.Command) (int64, error) {
	raw := cmd.Args().First()
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid TMDB id %q", raw)
	}
	return id, nil
}

func (r *Runner) Toggle(ctx context.Context, cmd *cli.Command) error {
	userID, err := r.requireUser()
	if err != nil {
		return err
	}
	args, err := mediaArgs(userID, cmd)
	if err != nil {
		return err
	}
	var res functions.ToggleResult
	if err := r.mutate(ctx, functions.ToggleWatchlist, args, &res); err != nil {
		return fmt.Errorf("toggle watchlist: %w", err)
	}
	if res.Added {
		return r.writePlain("Added %q to your watchlist\n", args["title"])
	}
	return r.writePlain("Removed %q from your watchlist\n", args["title"])
}

func (r *Runner) MarkWatched(ctx context.Context, cmd *cli.Command) error {
	userID, err := r.requireUser()
	if err != nil {
		return err
	}
	args, err := mediaArgs(userID, cmd)
	if err != nil {
		return err
	}
	if err := r.mutate(ctx, functions.MarkWatched, args, nil); err != nil {
		return fmt.Errorf("mark watched: %w", err)
	}
	if cmd.IsSet("rating") {
		rating := cmd.Float("rating")
		if err := r.mutate(ctx, functions.SetRating, live.Args{"userId": userID, "tmdbId": args["tmdbId"], "rating": rating}, nil); err != nil {
			return fmt.Errorf("set rating: %w", err)
		}
	}
	return r.writePlain("Marked %q as watched\n", args["title"])
}

func (r *Runner) RemoveWatched(ctx context.Context, cmd *cli.Command) error {
	userID, err := r.requireUser()
	if err != nil {
		return err
	}
	id, err := tmdbIDArg(cmd)
	if err != nil {
		return err
	}
	if err := r.mutate(ctx, functions.RemoveWatched, live.Args{"userId": userID, "tmdbId": id}, nil); err != nil {
		return fmt.Errorf("remove watched: %w", err)
	}
	return r.writePlain("Removed %d from watched\n", id)
}

func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	userID, err := r.requireUser()
	if err != nil {
		return err
	}
	id, err := tmdbIDArg(cmd)
	if err != nil {
		return err
	}
	var st domain.ListStatus
	if err := r.call(ctx, functions.GetStatus, live.Args{"userId": userID, "tmdbId": id}, &st); err != nil {
		return fmt.Errorf("status: %w", err)
	}
	if cmd.Bool("json") {
		return r.writeJSON(st, false)
	}
	return r.writePlain("watchlist: %s\nwatched:   %s\n", yesNo(st.InWatchlist), yesNo(st.InWatched))
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
