// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: text, markdown, csv or json",
		Value:   "text",
	}
}

// browseCommand lists curated playlists for a category
func browseCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "browse",
		Usage: "List curated playlists for a category",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "category",
				Aliases: []string{"c"},
				Usage:   "Category or sub-option id (see 'tunesub categories')",
			},
			&cli.IntFlag{
				Name:    "pages",
				Aliases: []string{"p"},
				Usage:   "Number of pages to load",
				Value:   1,
			},
			formatFlag(),
		},
		Action: r.Browse,
	}
}

// searchCommand searches playlists by text
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search playlists by name",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "query",
			},
		},
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "pages",
				Aliases: []string{"p"},
				Usage:   "Number of pages to load",
				Value:   1,
			},
			&cli.BoolFlag{
				Name:  "live",
				Usage: "Read search text line by line from stdin, searching as typing settles",
			},
			formatFlag(),
		},
		Action: r.Search,
	}
}

// categoriesCommand prints the browse taxonomy
func categoriesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "categories",
		Usage: "List browse categories and their options",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Categories,
	}
}

// tracksCommand shows a playlist's tracks
func tracksCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tracks",
		Usage: "Show the tracks of a playlist",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "playlist-id",
			},
		},
		Flags: []cli.Flag{
			formatFlag(),
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write a Markdown export with cover image to this directory",
			},
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the playlist page in the browser",
			},
		},
		Action: r.Tracks,
	}
}

// previewCommand resolves (and optionally plays) track previews
func previewCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "preview",
		Usage: "Find 30 second previews for a playlist's tracks",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "playlist-id",
			},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "track",
				Aliases: []string{"t"},
				Usage:   "Only this track id",
			},
			&cli.BoolFlag{
				Name:  "play",
				Usage: "Play each preview found, one after another",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Preview,
	}
}

// scanCommand reports preview coverage for a playlist
func scanCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "scan",
		Usage: "Report how many tracks of a playlist have previews",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "playlist-id",
			},
		},
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"w"},
				Usage:   "Concurrent preview lookups (max 10)",
				Value:   4,
			},
			formatFlag(),
		},
		Action: r.Scan,
	}
}

// subscriptionsCommand manages backend subscriptions
func subscriptionsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "subscriptions",
		Aliases: []string{"subs"},
		Usage:   "Manage playlist subscriptions",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List managed playlists and their source playlists",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "source",
						Usage: "Only report whether this source playlist is subscribed",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.SubscriptionsList,
			},
			{
				Name:  "targets",
				Usage: "List your own playlists that can receive subscriptions",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of playlists to return",
						Value: 50,
					},
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Include followed playlists, not only owned ones",
					},
					formatFlag(),
				},
				Action: r.SubscriptionsTargets,
			},
			{
				Name:  "add",
				Usage: "Subscribe a managed playlist to a source playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "source-id",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "managed-id",
						Usage: "Existing managed playlist to sync into",
					},
					&cli.StringFlag{
						Name:  "name",
						Usage: "Create a new managed playlist with this name",
					},
					&cli.StringFlag{
						Name:  "frequency",
						Usage: "Sync frequency: daily, weekly or monthly",
						Value: "weekly",
					},
					&cli.IntFlag{
						Name:  "quantity",
						Usage: "Tracks taken from the source per sync",
						Value: 5,
					},
					&cli.StringFlag{
						Name:  "mode",
						Usage: "Sync mode: append or replace",
						Value: "append",
					},
					&cli.BoolFlag{
						Name:  "no-sync",
						Usage: "Do not run a sync immediately",
					},
					&cli.BoolFlag{
						Name:  "clean",
						Usage: "Skip explicit tracks",
					},
					&cli.IntFlag{
						Name:  "max-age",
						Usage: "Only sync tracks added within this many days (0 for no limit)",
					},
				},
				Action: r.SubscriptionsAdd,
			},
			{
				Name:  "remove",
				Usage: "Remove a source playlist from a managed playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "managed-id"},
					&cli.StringArg{Name: "source-id"},
				},
				Action: r.SubscriptionsRemove,
			},
		},
	}
}

// setupCommand handles first-run setup.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write a config.toml with default settings",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
		},
	}
}
