package main

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/enthub-api/internal/infrastructure/tmdb"
	"github.com/urfave/cli/v3"
)

func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := strings.Join(cmd.Args().Slice(), " ")
	q := url.Values{"q": {query}}
	if p := cmd.Int("page"); p > 0 {
		q.Set("page", strconv.Itoa(p))
	}
	if cmd.Bool("adult") {
		q.Set("include_adult", "true")
	}
	var page tmdb.Page[tmdb.MediaItem]
	if err := r.getJSON(ctx, "/v1/media/search?"+q.Encode(), &page); err != nil {
		return fmt.Errorf("search: %w", err)
	}
	return r.printMedia(&page, cmd.Bool("json"))
}

func (r *Runner) Trending(ctx context.Context, cmd *cli.Command) error {
	q := url.Values{"window": {cmd.String("window")}}
	var page tmdb.Page[tmdb.MediaItem]
	if err := r.getJSON(ctx, "/v1/media/trending?"+q.Encode(), &page); err != nil {
		return fmt.Errorf("trending: %w", err)
	}
	return r.printMedia(&page, cmd.Bool("json"))
}

func (r *Runner) printMedia(page *tmdb.Page[tmdb.MediaItem], asJSON bool) error {
	if asJSON {
		return r.writeJSON(page, false)
	}
	if len(page.Results) == 0 {
		return r.writePlain("No results\n")
	}
	tw := tabwriter.NewWriter(r.output, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TMDB ID\tTYPE\tTITLE\tYEAR\tSCORE")
	for _, m := range page.Results {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%.1f\n", m.ID, m.MediaType, m.DisplayTitle(), releaseYear(m.Date()), m.VoteAverage)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return r.writePlain("Page %d of %d (%d results)\n", page.Page, page.TotalPages, page.TotalResults)
}
