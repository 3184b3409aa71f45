package main

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/suhba/internal/config"
	"github.com/hpungsan/suhba/internal/db"
	"github.com/hpungsan/suhba/internal/errors"
	"github.com/hpungsan/suhba/internal/ops"
	"github.com/hpungsan/suhba/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(store *db.Store, cfg *config.Config) *cli.App {
	app := &cli.App{
		Name:    "suhba",
		Usage:   "Companion matching and feed ranking",
		Version: Version,
		Commands: []*cli.Command{
			matchesCmd(store, cfg),
			studyPartnersCmd(store, cfg),
			mentorsCmd(store, cfg),
			feedCmd(store, cfg),
			trendingCmd(store, cfg),
			connectCmd(store),
			respondCmd(store, ops.ActionAccept, "Accept a pending connection request"),
			respondCmd(store, ops.ActionDecline, "Decline a pending connection request"),
			respondCmd(store, ops.ActionBlock, "Block a pending or accepted connection"),
			interactCmd(store),
			interactionsCmd(store),
			strengthCmd(store),
			importCmd(store, cfg),
			serveCmd(store, cfg),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

var limitFlag = &cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Usage: "Maximum results (0 uses the configured default)"}

// requireArg returns the first positional argument or an INVALID_REQUEST.
func requireArg(c *cli.Context, name string) (string, error) {
	if c.NArg() < 1 {
		return "", errors.NewInvalidRequest(fmt.Sprintf("%s argument is required", name))
	}
	return c.Args().First(), nil
}

func matchesCmd(store *db.Store, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "matches",
		Usage:     "Suggest companions for a user",
		ArgsUsage: "<user-id>",
		Flags: []cli.Flag{
			limitFlag,
			&cli.IntFlag{Name: "min-score", Usage: "Minimum compatibility score (0-100)"},
			&cli.BoolFlag{Name: "include-existing", Usage: "Keep users with a pending or accepted connection"},
		},
		Action: func(c *cli.Context) error {
			userID, err := requireArg(c, "user-id")
			if err != nil {
				return outputError(err)
			}

			input := ops.MatchesInput{UserID: userID, Limit: c.Int("limit")}
			if c.IsSet("min-score") {
				minScore := c.Int("min-score")
				input.MinScore = &minScore
			}
			if c.Bool("include-existing") {
				exclude := false
				input.ExcludeExisting = &exclude
			}

			output, err := ops.FindCompanionMatches(c.Context, store, cfg, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func studyPartnersCmd(store *db.Store, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "study-partners",
		Usage:     "Suggest companions who share a study topic",
		ArgsUsage: "<user-id>",
		Flags: []cli.Flag{
			limitFlag,
			&cli.StringFlag{Name: "topic", Aliases: []string{"t"}, Usage: "Topic substring to match against interests", Required: true},
		},
		Action: func(c *cli.Context) error {
			userID, err := requireArg(c, "user-id")
			if err != nil {
				return outputError(err)
			}

			output, err := ops.FindStudyPartners(c.Context, store, cfg, ops.StudyPartnersInput{
				UserID: userID,
				Topic:  c.String("topic"),
				Limit:  c.Int("limit"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func mentorsCmd(store *db.Store, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "mentors",
		Usage:     "Suggest mentors for a user",
		ArgsUsage: "<user-id>",
		Flags: []cli.Flag{
			limitFlag,
			&cli.StringFlag{Name: "subject", Aliases: []string{"s"}, Usage: "Subject area substring (optional)"},
		},
		Action: func(c *cli.Context) error {
			userID, err := requireArg(c, "user-id")
			if err != nil {
				return outputError(err)
			}

			output, err := ops.FindMentors(c.Context, store, cfg, ops.MentorsInput{
				UserID:      userID,
				SubjectArea: c.String("subject"),
				Limit:       c.Int("limit"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func feedCmd(store *db.Store, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "feed",
		Usage:     "Build the for-you feed for a user",
		ArgsUsage: "<user-id>",
		Flags: []cli.Flag{
			limitFlag,
			&cli.BoolFlag{Name: "no-second-degree", Usage: "Skip posts surfaced through companions' companions"},
			&cli.IntFlag{Name: "decay-window-hours", Usage: "Recency window in hours (0 uses the configured default)"},
			&cli.BoolFlag{Name: "html", Usage: "Include rendered post HTML"},
		},
		Action: func(c *cli.Context) error {
			userID, err := requireArg(c, "user-id")
			if err != nil {
				return outputError(err)
			}

			input := ops.ForYouInput{
				UserID:           userID,
				Limit:            c.Int("limit"),
				DecayWindowHours: c.Int("decay-window-hours"),
				RenderHTML:       c.Bool("html"),
			}
			if c.Bool("no-second-degree") {
				include := false
				input.IncludeSecondDegree = &include
			}

			output, err := ops.ForYouFeed(c.Context, store, cfg, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func trendingCmd(store *db.Store, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "trending",
		Usage:     "List trending posts",
		ArgsUsage: "<user-id>",
		Flags: []cli.Flag{
			limitFlag,
			&cli.BoolFlag{Name: "html", Usage: "Include rendered post HTML"},
		},
		Action: func(c *cli.Context) error {
			userID, err := requireArg(c, "user-id")
			if err != nil {
				return outputError(err)
			}

			output, err := ops.TrendingFeed(c.Context, store, cfg, ops.TrendingInput{
				UserID:     userID,
				Limit:      c.Int("limit"),
				RenderHTML: c.Bool("html"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func connectCmd(store *db.Store) *cli.Command {
	return &cli.Command{
		Name:      "connect",
		Usage:     "Send a connection request",
		ArgsUsage: "<requester-id> <recipient-id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "message", Aliases: []string{"m"}, Usage: "Optional note to the recipient"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 2 {
				return outputError(errors.NewInvalidRequest("requester-id and recipient-id arguments are required"))
			}

			output, err := ops.RequestConnection(c.Context, store, ops.RequestConnectionInput{
				RequesterID: c.Args().Get(0),
				RecipientID: c.Args().Get(1),
				Message:     c.String("message"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// respondCmd creates accept, decline, or block.
func respondCmd(store *db.Store, action, usage string) *cli.Command {
	return &cli.Command{
		Name:      action,
		Usage:     usage,
		ArgsUsage: "<connection-id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "actor", Aliases: []string{"a"}, Usage: "User performing the action", Required: true},
		},
		Action: func(c *cli.Context) error {
			id, err := requireArg(c, "connection-id")
			if err != nil {
				return outputError(err)
			}

			output, err := ops.RespondConnection(c.Context, store, ops.RespondInput{
				ConnectionID: id,
				ActorID:      c.String("actor"),
				Action:       action,
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func interactCmd(store *db.Store) *cli.Command {
	return &cli.Command{
		Name:      "interact",
		Usage:     "Record an interaction on an accepted connection",
		ArgsUsage: "<connection-id>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "type",
				Aliases:  []string{"t"},
				Usage:    "beneficial_given|comment_reply|halaqa_shared|knowledge_shared|message_sent",
				Required: true,
			},
		},
		Action: func(c *cli.Context) error {
			id, err := requireArg(c, "connection-id")
			if err != nil {
				return outputError(err)
			}

			output, err := ops.RecordInteraction(c.Context, store, ops.InteractInput{
				ConnectionID: id,
				Type:         c.String("type"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func interactionsCmd(store *db.Store) *cli.Command {
	return &cli.Command{
		Name:      "interactions",
		Usage:     "List a connection's interaction log",
		ArgsUsage: "<connection-id>",
		Flags:     []cli.Flag{limitFlag},
		Action: func(c *cli.Context) error {
			id, err := requireArg(c, "connection-id")
			if err != nil {
				return outputError(err)
			}

			output, err := ops.ListInteractions(c.Context, store, ops.InteractionsInput{
				ConnectionID: id,
				Limit:        c.Int("limit"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func strengthCmd(store *db.Store) *cli.Command {
	return &cli.Command{
		Name:      "strength",
		Usage:     "Adjust connection strength by a delta (clamped to 0-100)",
		ArgsUsage: "<connection-id>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "delta", Aliases: []string{"d"}, Usage: "Signed strength change", Required: true},
		},
		Action: func(c *cli.Context) error {
			id, err := requireArg(c, "connection-id")
			if err != nil {
				return outputError(err)
			}

			output, err := ops.AdjustStrength(c.Context, store, ops.AdjustStrengthInput{
				ConnectionID: id,
				Delta:        c.Int("delta"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func importCmd(store *db.Store, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import profiles, circles, connections, and posts from a YAML or JSON fixture",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Fixture file path", Required: true},
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "error", Usage: "Collision mode: error|replace"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Import(c.Context, store, cfg, ops.ImportInput{
				Path: c.String("path"),
				Mode: ops.ImportMode(c.String("mode")),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func serveCmd(store *db.Store, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the JSON HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Address to bind"},
			&cli.IntFlag{Name: "port", Value: 8080, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			port := c.Int("port")
			if port < 1 || port > 65535 {
				return outputError(errors.NewInvalidRequest("port must be between 1 and 65535"))
			}
			srv := web.NewServer(store, cfg, Version, c.String("bind"), port)
			return web.Run(srv)
		},
	}
}

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	var sErr *errors.SuhbaError
	if stderrors.As(err, &sErr) {
		return cli.Exit(fmt.Sprintf("[%s] %s", sErr.Code, sErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}
