package main

import (
	"strings"

	"github.com/enthub-api/internal/domain"
	"github.com/enthub-api/internal/listfilter"
	"github.com/urfave/cli/v3"
)

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		loginCommand, logoutCommand, whoamiCommand,
		watchlistCommand, watchedCommand,
		toggleCommand, markWatchedCommand, removeWatchedCommand, statusCommand,
		searchCommand, trendingCommand,
	} {
		commands = append(commands, fn(r))
	}
	return commands
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{Name: "json", Usage: "Output raw JSON"}
}

func loginCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Sign in with a one-time code sent by email",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Account email", Required: true},
			&cli.StringFlag{Name: "code", Usage: "Verify a code you already received instead of requesting one"},
		},
		Action: r.Login,
	}
}

func logoutCommand(r *Runner) *cli.Command {
	return &cli.Command{Name: "logout", Usage: "Forget the stored identity", Action: r.Logout}
}

func whoamiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "whoami",
		Usage:  "Show the signed-in user",
		Flags:  []cli.Flag{jsonFlag()},
		Action: r.Whoami,
	}
}

func listFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "sort", Aliases: []string{"s"}, Usage: "Sort mode: " + strings.Join(listfilter.SortModes, ", ")},
		&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Usage: "Media type: all, movie or tv"},
		&cli.StringFlag{Name: "genre", Usage: "Only items with this genre"},
		&cli.StringFlag{Name: "language", Usage: "Only items in this original language"},
		&cli.StringFlag{Name: "status", Usage: "Only items with this release status"},
		&cli.BoolFlag{Name: "follow", Aliases: []string{"f"}, Usage: "Keep the list open and reprint it on every change"},
		jsonFlag(),
	}
}

func watchlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "watchlist",
		Usage:  "Show your watchlist",
		Flags:  listFlags(),
		Action: r.ListAction(domain.ListWatchlist),
	}
}

func watchedCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "watched",
		Usage:  "Show what you have watched",
		Flags:  listFlags(),
		Action: r.ListAction(domain.ListWatched),
	}
}

func mediaFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Usage: "movie or tv", Value: "movie"},
		&cli.StringFlag{Name: "title", Usage: "Display title", Required: true},
		&cli.StringFlag{Name: "poster", Usage: "Poster path"},
		&cli.StringFlag{Name: "release-date", Usage: "Release date (YYYY-MM-DD)"},
		&cli.StringSliceFlag{Name: "genre", Usage: "Genre name, repeatable"},
		&cli.StringFlag{Name: "language", Usage: "Original language code"},
	}
}

func toggleCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "toggle",
		Usage:     "Add a title to your watchlist, or remove it if present",
		ArgsUsage: "<tmdb-id>",
		Flags:     mediaFlags(),
		Action:    r.Toggle,
	}
}

func markWatchedCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "mark-watched",
		Usage:     "Record a title as watched",
		ArgsUsage: "<tmdb-id>",
		Flags: append(mediaFlags(),
			&cli.FloatFlag{Name: "rating", Aliases: []string{"r"}, Usage: "Your rating, 0 to 10"},
		),
		Action: r.MarkWatched,
	}
}

func removeWatchedCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "remove-watched",
		Usage:     "Remove a title from your watched list",
		ArgsUsage: "<tmdb-id>",
		Action:    r.RemoveWatched,
	}
}

func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "status",
		Usage:     "Show whether a title is on your lists",
		ArgsUsage: "<tmdb-id>",
		Flags:     []cli.Flag{jsonFlag()},
		Action:    r.Status,
	}
}

func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search movies, shows and people",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "page", Aliases: []string{"p"}, Usage: "Result page", Value: 1},
			&cli.BoolFlag{Name: "adult", Usage: "Include adult titles"},
			jsonFlag(),
		},
		Action: r.Search,
	}
}

func trendingCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "trending",
		Usage: "Show trending titles",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "window", Aliases: []string{"w"}, Usage: "day or week", Value: "week"},
			jsonFlag(),
		},
		Action: r.Trending,
	}
}
