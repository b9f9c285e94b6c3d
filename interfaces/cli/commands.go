package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"omnipost/domain/dto"
	"omnipost/domain/model"
	"omnipost/infrastructure/configuration"
	"omnipost/infrastructure/filecsv"

	"github.com/spf13/cobra"
)

// AppFactory builds the app for a command. Tests swap it for an in-memory graph.
type AppFactory func(ctx context.Context) (*App, error)

func DefaultFactory(ctx context.Context) (*App, error) {
	return NewApp(ctx, configuration.C)
}

type runner struct {
	factory AppFactory
	in      io.Reader
	out     io.Writer
	format  string
}

func (r *runner) withApp(cmd *cobra.Command, fn func(ctx context.Context, app *App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	app, err := r.factory(ctx)
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(ctx, app)
}

func (r *runner) print(v interface{}, text func(w io.Writer)) {
	if r.format == "json" || text == nil {
		b, _ := json.MarshalIndent(v, "", "  ")
		fmt.Fprintln(r.out, string(b))
		return
	}
	text(r.out)
}

// NewRootCommand assembles the omnipost command tree.
func NewRootCommand(factory AppFactory, in io.Reader, out io.Writer) *cobra.Command {
	r := &runner{factory: factory, in: in, out: out, format: "text"}

	root := &cobra.Command{
		Use:           "omnipost",
		Short:         "Connect social accounts and publish one post to many platforms",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&r.format, "out", r.format, "Output format: json|text")

	root.AddCommand(
		r.serveCmd(),
		r.platformsCmd(),
		r.accountsCmd(),
		r.connectCmd(),
		r.disconnectCmd(),
		r.resetCmd(),
		r.publishCmd(),
		r.postsCmd(),
		r.retryCmd(),
	)
	return root
}

func (r *runner) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the local HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withApp(cmd, func(ctx context.Context, app *App) error {
				return app.Serve(ctx)
			})
		},
	}
}

func (r *runner) platformsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "platforms",
		Short: "List supported platforms and their connection state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withApp(cmd, func(ctx context.Context, app *App) error {
				connected := app.Workspace.ConnectedPlatforms()
				var rows []dto.PlatformRes
				for _, p := range model.Catalog() {
					route := model.Route(p.ID)
					_, pending := app.Connections.Pending(p.ID)
					rows = append(rows, dto.PlatformRes{PlatformProfile: p, Provider: route.Provider, BlockReason: route.BlockReason, Connected: connected[p.ID], Pending: pending})
				}
				r.print(rows, func(w io.Writer) {
					for _, row := range rows {
						state := "not connected"
						switch {
						case row.Connected:
							state = "connected"
						case row.BlockReason != "":
							state = "unavailable: " + row.BlockReason
						}
						fmt.Fprintf(w, "%-10s %-10s %6d chars  %s\n", row.ID, row.Name, row.CharacterLimit, state)
					}
				})
				return nil
			})
		},
	}
}

func (r *runner) accountsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "accounts",
		Short: "List connected accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withApp(cmd, func(ctx context.Context, app *App) error {
				accounts := app.Workspace.Accounts()
				r.print(accounts, func(w io.Writer) {
					if len(accounts) == 0 {
						fmt.Fprintln(w, "no connected accounts")
					}
					for _, a := range accounts {
						fmt.Fprintf(w, "%s  %-10s %s\n", a.ID, a.Platform, a.AccountName)
					}
				})
				return nil
			})
		},
	}
}

func (r *runner) connectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "connect <platform>",
		Short: "Authorize a platform account, then paste the redirected URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			platform, err := model.ParsePlatform(args[0])
			if err != nil {
				return err
			}
			return r.withApp(cmd, func(ctx context.Context, app *App) error {
				start, err := app.Workspace.Connect(ctx, platform)
				if err != nil {
					return err
				}
				fmt.Fprintln(r.out, start.Message)
				fmt.Fprintln(r.out, start.AuthorizationURL)
				fmt.Fprint(r.out, "Redirected URL: ")

				line, err := bufio.NewReader(r.in).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("reading callback URL: %w", err)
				}
				account, err := app.Workspace.CompleteConnection(ctx, platform, strings.TrimSpace(line))
				if err != nil {
					return err
				}
				r.print(account, func(w io.Writer) {
					fmt.Fprintf(w, "\nConnected %s as %s\n", account.Platform.Title(), account.AccountName)
				})
				return nil
			})
		},
	}
}

func (r *runner) disconnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect <account-id>",
		Short: "Remove one connected account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withApp(cmd, func(ctx context.Context, app *App) error {
				if err := app.Workspace.Disconnect(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintln(r.out, "disconnected")
				return nil
			})
		},
	}
}

func (r *runner) resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Remove every connected account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withApp(cmd, func(ctx context.Context, app *App) error {
				fmt.Fprintf(r.out, "removed %d account(s)\n", app.Workspace.ResetConnections(ctx))
				return nil
			})
		},
	}
}

func (r *runner) publishCmd() *cobra.Command {
	var (
		content   string
		targets   []string
		overrides []string
		media     []string
		queue     bool
	)
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish a post now, or queue it with --queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := dto.CreatePostReq{Content: content, MediaPaths: media, Targets: targets, Overrides: map[string]string{}}
			for _, o := range overrides {
				platform, text, ok := strings.Cut(o, "=")
				if !ok {
					return fmt.Errorf("override %q must look like platform=text", o)
				}
				req.Overrides[platform] = text
			}
			if len(targets) == 0 {
				return fmt.Errorf("at least one --target is required")
			}
			input, err := req.ToInput()
			if err != nil {
				return err
			}
			return r.withApp(cmd, func(ctx context.Context, app *App) error {
				if queue {
					post := app.Workspace.Queue(ctx, input)
					r.print(dto.PostRes{Post: post}, func(w io.Writer) { fmt.Fprintf(w, "queued %s\n", post.ID) })
					return nil
				}
				post, result := app.Workspace.PublishNow(ctx, input)
				r.print(dto.PostRes{Post: post, Result: &result}, func(w io.Writer) { writePost(w, post) })
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&content, "content", "", "Shared post text")
	cmd.Flags().StringSliceVar(&targets, "target", nil, "Target platform (repeatable)")
	cmd.Flags().StringArrayVar(&overrides, "override", nil, "Per-platform text as platform=text (repeatable)")
	cmd.Flags().StringArrayVar(&media, "media", nil, "Media file path (repeatable)")
	cmd.Flags().BoolVar(&queue, "queue", false, "Store the post as queued instead of publishing")
	return cmd
}

func (r *runner) postsCmd() *cobra.Command {
	var csvPath string
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "List posts, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withApp(cmd, func(ctx context.Context, app *App) error {
				posts := app.Workspace.Posts()
				if csvPath != "" {
					if err := filecsv.ExportPosts(csvPath, posts); err != nil {
						return err
					}
					fmt.Fprintf(r.out, "exported %d post(s) to %s\n", len(posts), csvPath)
					return nil
				}
				r.print(posts, func(w io.Writer) {
					for i := range posts {
						writePost(w, &posts[i])
					}
				})
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&csvPath, "csv", "", "Write the post history to a CSV file instead")
	return cmd
}

func (r *runner) retryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "retry <post-id>",
		Short: "Retry the failed targets of a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withApp(cmd, func(ctx context.Context, app *App) error {
				post, result, err := app.Workspace.Retry(ctx, args[0])
				if err != nil {
					return err
				}
				r.print(dto.PostRes{Post: post, Result: &result}, func(w io.Writer) { writePost(w, post) })
				return nil
			})
		},
	}
}

func writePost(w io.Writer, p *model.PostDraft) {
	fmt.Fprintf(w, "%s  %-9s %s\n", p.ID, p.Status, p.CreatedAt.Format("2006-01-02 15:04"))
	for _, a := range p.Attempts {
		line := fmt.Sprintf("    %-10s %s", a.Platform, a.Status)
		if a.ErrorMessage != nil {
			line += ": " + *a.ErrorMessage
		}
		fmt.Fprintln(w, line)
	}
}
