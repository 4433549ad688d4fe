package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"claimwork/internal/app"
	"claimwork/internal/config"
	"claimwork/internal/db"
	"claimwork/internal/domain"
	"claimwork/internal/engine"
	"claimwork/internal/logging"
	"claimwork/internal/migrate"
	"claimwork/internal/repo"
	"claimwork/internal/server"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "cw",
	Short: "Claimwork CLI",
	Long: `Claimwork lets contributors claim tickets, work on a dedicated branch and get
credited when their pull request merges.
- Ticket: a unit of work that moves available -> claimed -> in_review -> done.
- Claim: one contributor at a time; claiming creates feature/<slug>-<id8> on GitHub.
- Release: hand a claimed ticket back before a pull request exists.
- Webhook: GitHub pull_request events move tickets to in_review and done.
- Contribution: recorded once per merged ticket, with the diff size.`,
	SilenceUsage: true,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	config.BindEnv(viper.GetViper())
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor-id", "", "acting user id")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor-id", rootCmd.PersistentFlags().Lookup("actor-id"))
}

func registerCommands() {
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(userCmd())
	rootCmd.AddCommand(projectCmd())
	rootCmd.AddCommand(ticketCmd())
	rootCmd.AddCommand(contributionCmd())
	rootCmd.AddCommand(apiKeyCmd())
	rootCmd.AddCommand(webhookCmd())
	rootCmd.AddCommand(logCmd())
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server and GitHub webhook receiver",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			cfg, err := config.Resolve(workspace, viper.GetViper())
			if err != nil {
				return err
			}
			if err := logging.Init(logging.Config{
				Level:     cfg.Log.Level,
				SentryDSN: cfg.Log.SentryDSN,
				Env:       cfg.Server.Env,
				Version:   version,
				File:      cfg.Log.File,
			}); err != nil {
				return err
			}
			defer logging.Flush(2 * time.Second)

			if cfg.Auth.JWTSecret == "" && !cfg.Auth.SkipAuth {
				return fmt.Errorf("auth.jwt_secret (CLAIMWORK_AUTH_JWT_SECRET) is required for bearer auth")
			}
			a, err := app.Open(cmd.Context(), workspace, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			handler, err := server.New(server.Config{
				Engine:   a.Engine,
				BasePath: cfg.Server.BasePath,
				Auth: server.AuthConfig{
					JWTSecret:  cfg.Auth.JWTSecret,
					SkipAuth:   cfg.Auth.SkipAuth,
					TestUserID: cfg.Auth.TestUserID,
					DevLogin:   cfg.Server.Env == config.EnvDevelopment,
					Logger:     logging.With("component", "auth"),
				},
				Logger: logging.With("component", "http"),
			})
			if err != nil {
				return err
			}
			srv := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
			}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			logging.Info("serving claimwork api",
				"addr", cfg.Server.Addr,
				"base_path", cfg.Server.BasePath,
				"webhook", server.WebhookPath,
				"env", cfg.Server.Env)
			fmt.Printf("Serving Claimwork API on http://%s%s (OpenAPI at /openapi.json, Swagger UI at /docs, webhooks at %s)\n",
				cfg.Server.Addr, cfg.Server.BasePath, server.WebhookPath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().String("addr", "", "listen address (overrides server.addr)")
	cmd.Flags().String("base-path", "", "API base path (overrides server.base_path)")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("server.base_path", cmd.Flags().Lookup("base-path"))
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the workspace database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				v, err := migrate.Version(ctx, r.DB)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{"version": v, "path": db.Path(viper.GetString("workspace"))})
				}
				fmt.Printf("database at schema version %d (%s)\n", v, db.Path(viper.GetString("workspace")))
				return nil
			})
		},
	}
}

func configCmd() *cobra.Command {
	cfgCmd := &cobra.Command{Use: "config", Short: "Manage claimwork.yml"}
	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default claimwork.yml into the workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			if _, err := db.EnsureWorkspace(workspace); err != nil {
				return err
			}
			path := config.Path(workspace)
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o600); err != nil {
				return err
			}
			fmt.Println("wrote", path)
			fmt.Println("set github.webhook_secret (or CLAIMWORK_GITHUB_WEBHOOK_SECRET) before use in production")
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective config with secrets redacted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Resolve(viper.GetString("workspace"), viper.GetViper())
			if err != nil {
				return err
			}
			redacted := *cfg
			redacted.Auth.JWTSecret = redact(cfg.Auth.JWTSecret)
			redacted.GitHub.Token = redact(cfg.GitHub.Token)
			redacted.GitHub.WebhookSecret = redact(cfg.GitHub.WebhookSecret)
			redacted.Review.Secret = redact(cfg.Review.Secret)
			return printJSON(redacted)
		},
	}

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate claimwork.yml and environment overrides",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Resolve(viper.GetString("workspace"), viper.GetViper())
			if err != nil {
				return err
			}
			if cfg.InsecureWebhooks() {
				fmt.Println("warning: github.webhook_secret is empty; webhook signatures will not be verified")
			}
			fmt.Println("config ok")
			return nil
		},
	}
	cfgCmd.AddCommand(initCmd, showCmd, validateCmd)
	return cfgCmd
}

func userCmd() *cobra.Command {
	usr := &cobra.Command{Use: "user", Short: "Manage contributor profiles"}
	var u domain.User
	var githubUser string
	add := &cobra.Command{
		Use:   "add",
		Short: "Create a user profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if githubUser != "" {
					u.GitHubUsername = &githubUser
				}
				created, err := e.CreateUser(ctx, u)
				if err != nil {
					return err
				}
				return printJSON(created)
			})
		},
	}
	add.Flags().StringVar(&u.ID, "id", "", "user id (generated when empty)")
	add.Flags().StringVar(&u.Email, "email", "", "email address")
	add.Flags().StringVar(&u.Name, "name", "", "display name")
	add.Flags().StringVar(&u.Role, "role", domain.RoleContributor, "admin or contributor")
	add.Flags().StringVar(&githubUser, "github", "", "GitHub username")
	usr.AddCommand(add)
	return usr
}

func projectCmd() *cobra.Command {
	prj := &cobra.Command{Use: "project", Short: "Manage projects"}
	prj.AddCommand(projectAddCmd(), projectListCmd(), projectShowCmd(), projectStatusCmd(), projectLinkCmd())
	return prj
}

func projectAddCmd() *cobra.Command {
	var p domain.Project
	var repoName string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				created, err := e.CreateProject(ctx, p, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				if repoName != "" {
					created, err = e.LinkRepository(ctx, created.ID, repoName, "")
					if err != nil {
						return err
					}
				}
				return printJSON(created)
			})
		},
	}
	cmd.Flags().StringVar(&p.ID, "id", "", "project id (generated when empty)")
	cmd.Flags().StringVar(&p.Name, "name", "", "project name")
	cmd.Flags().StringVar(&p.Description, "description", "", "description")
	cmd.Flags().StringVar(&p.Difficulty, "difficulty", "", "beginner, intermediate or advanced")
	cmd.Flags().StringVar(&repoName, "repo", "", "GitHub repository as owner/repo, or repo under github.owner")
	return cmd
}

func projectListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListProjects(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Status", "Repository"})
				for _, p := range items {
					tw.AppendRow(table.Row{p.ID, p.Name, p.Status, p.RepoFullName()})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func projectShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show a project with ticket counts by status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				p, err := r.GetProject(ctx, args[0])
				if err != nil {
					return err
				}
				counts, err := r.CountTicketsByStatus(ctx, p.ID)
				if err != nil {
					return err
				}
				return printJSON(map[string]any{"project": p, "tickets": counts})
			})
		},
	}
}

func projectStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <project-id> <draft|active|completed|paused>",
		Short: "Set a project's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				switch args[1] {
				case "draft", "active", "completed", "paused":
				default:
					return fmt.Errorf("unknown project status %q", args[1])
				}
				if err := r.SetProjectStatus(ctx, args[0], args[1], time.Now().UTC().Format(time.RFC3339)); err != nil {
					return err
				}
				fmt.Printf("project %s is %s\n", args[0], args[1])
				return nil
			})
		},
	}
}

func projectLinkCmd() *cobra.Command {
	var repoURL string
	cmd := &cobra.Command{
		Use:   "link <project-id> <owner/repo or repo>",
		Short: "Link a project to a GitHub repository",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				p, err := e.LinkRepository(ctx, args[0], args[1], repoURL)
				if err != nil {
					return err
				}
				return printJSON(p)
			})
		},
	}
	cmd.Flags().StringVar(&repoURL, "url", "", "clone URL (defaults to https://github.com/<owner/repo>.git)")
	return cmd
}

func ticketCmd() *cobra.Command {
	tk := &cobra.Command{Use: "ticket", Short: "Manage tickets"}
	tk.AddCommand(ticketAddCmd(), ticketListCmd(), ticketShowCmd(), ticketClaimCmd(), ticketReleaseCmd(), ticketHistoryCmd())
	return tk
}

func ticketAddCmd() *cobra.Command {
	var t domain.Ticket
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create an available ticket",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				created, err := e.CreateTicket(ctx, t, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSON(created)
			})
		},
	}
	cmd.Flags().StringVar(&t.ProjectID, "project", "", "project id")
	cmd.Flags().StringVar(&t.Title, "title", "", "ticket title")
	cmd.Flags().StringVar(&t.Description, "description", "", "description")
	cmd.Flags().StringVar(&t.AcceptanceCriteria, "acceptance", "", "acceptance criteria")
	cmd.Flags().StringVar(&t.Difficulty, "difficulty", "", "beginner, intermediate or advanced")
	return cmd
}

func ticketListCmd() *cobra.Command {
	var f repo.TicketFilters
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tickets",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				tickets, err := r.ListTickets(ctx, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(tickets)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Title", "Status", "Claimed By", "Branch", "PR"})
				for _, t := range tickets {
					pr := ""
					if t.PRNumber != nil {
						pr = fmt.Sprintf("#%d", *t.PRNumber)
					}
					tw.AppendRow(table.Row{t.ID, t.Title, t.Status, deref(t.ClaimedBy), deref(t.BranchName), pr})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&f.ProjectID, "project", "", "project filter")
	cmd.Flags().StringVar(&f.Status, "status", "", "status filter")
	cmd.Flags().StringVar(&f.ClaimedBy, "claimed-by", "", "claimant filter")
	return cmd
}

func ticketShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <ticket-id>",
		Short: "Show a ticket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				t, err := e.GetTicket(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(t)
			})
		},
	}
}

func ticketClaimCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "claim <ticket-id>",
		Short: "Claim a ticket as --actor-id and create its branch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				res, err := e.Claim(ctx, args[0], viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(res)
				}
				fmt.Printf("claimed %s on %s\n\n%s\n", res.Ticket.ID, res.BranchName, res.Instructions)
				return nil
			})
		},
	}
}

func ticketReleaseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "release <ticket-id>",
		Short: "Release a ticket claimed by --actor-id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if err := e.Release(ctx, args[0], viper.GetString("actor-id")); err != nil {
					return err
				}
				fmt.Println("released", args[0])
				return nil
			})
		},
	}
}

func ticketHistoryCmd() *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "history <ticket-id>",
		Short: "Show lifecycle events for a ticket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				evts, err := r.LatestEvents(ctx, n, "", "ticket", args[0])
				if err != nil {
					return err
				}
				return printEvents(evts)
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 50, "number of events")
	return cmd
}

func contributionCmd() *cobra.Command {
	c := &cobra.Command{Use: "contribution", Short: "Inspect recorded contributions"}
	var userID string
	list := &cobra.Command{
		Use:   "list",
		Short: "List contributions for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == "" {
				userID = viper.GetString("actor-id")
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.Contributions(ctx, userID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Ticket", "PR", "Merged At", "+", "-"})
				for _, it := range items {
					tw.AppendRow(table.Row{it.TicketID, it.PRURL, it.MergedAt, it.LinesAdded, it.LinesRemoved})
				}
				tw.Render()
				return nil
			})
		},
	}
	list.Flags().StringVar(&userID, "user", "", "user id (defaults to --actor-id)")
	c.AddCommand(list)
	return c
}

func apiKeyCmd() *cobra.Command {
	k := &cobra.Command{Use: "apikey", Short: "Manage API keys"}
	var userID, name string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an API key; the raw key is printed once",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == "" {
				userID = viper.GetString("actor-id")
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				raw, key, err := e.CreateAPIKey(ctx, userID, name)
				if err != nil {
					return err
				}
				return printJSON(map[string]any{"id": key.ID, "user_id": key.UserID, "name": key.Name, "key": raw})
			})
		},
	}
	create.Flags().StringVar(&userID, "user", "", "owner user id (defaults to --actor-id)")
	create.Flags().StringVar(&name, "name", "", "key label")

	var listUser string
	list := &cobra.Command{
		Use:   "list",
		Short: "List API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				keys, err := r.ListAPIKeys(ctx, listUser)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(keys)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "User", "Name", "Created"})
				for _, key := range keys {
					tw.AppendRow(table.Row{key.ID, key.UserID, key.Name, key.CreatedAt})
				}
				tw.Render()
				return nil
			})
		},
	}
	list.Flags().StringVar(&listUser, "user", "", "owner filter")

	revoke := &cobra.Command{
		Use:   "revoke <key-id>",
		Short: "Delete an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				if err := r.DeleteAPIKey(ctx, args[0]); err != nil {
					return err
				}
				fmt.Println("revoked", args[0])
				return nil
			})
		},
	}
	k.AddCommand(create, list, revoke)
	return k
}

func webhookCmd() *cobra.Command {
	w := &cobra.Command{Use: "webhook", Short: "Manage GitHub webhook subscriptions"}
	register := &cobra.Command{
		Use:   "register <project-id>",
		Short: "Subscribe the project's repository to pull_request events",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				id, err := e.RegisterWebhook(ctx, args[0], viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSON(map[string]any{"project_id": args[0], "hook_id": id})
			})
		},
	}
	w.AddCommand(register)
	return w
}

func logCmd() *cobra.Command {
	lg := &cobra.Command{Use: "log", Short: "Event log"}
	var n int
	var evtType, entityKind, entityID string
	tail := &cobra.Command{
		Use:   "tail",
		Short: "Tail events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				evts, err := r.LatestEvents(ctx, n, evtType, entityKind, entityID)
				if err != nil {
					return err
				}
				return printEvents(evts)
			})
		},
	}
	tail.Flags().IntVar(&n, "n", 20, "number of events")
	tail.Flags().StringVar(&evtType, "type", "", "event type filter")
	tail.Flags().StringVar(&entityKind, "entity-kind", "", "entity kind")
	tail.Flags().StringVar(&entityID, "entity-id", "", "entity id")
	lg.AddCommand(tail)
	return lg
}

// --- helpers ---

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	workspace := viper.GetString("workspace")
	cfg, err := config.Resolve(workspace, viper.GetViper())
	if err != nil {
		return err
	}
	a, err := app.Open(ctx, workspace, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a.Engine)
}

func withRepo(ctx context.Context, fn func(context.Context, repo.Repo) error) error {
	workspace := viper.GetString("workspace")
	if _, err := db.EnsureWorkspace(workspace); err != nil {
		return err
	}
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.MigrateContext(ctx, conn); err != nil {
		return err
	}
	return fn(ctx, repo.Repo{DB: conn})
}

func printEvents(evts []domain.Event) error {
	if viper.GetBool("json") {
		return printJSON(evts)
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"ID", "TS", "Type", "Entity", "Actor", "Payload"})
	for _, ev := range evts {
		tw.AppendRow(table.Row{ev.ID, ev.TS, ev.Type, ev.EntityKind + ":" + ev.EntityID, ev.ActorID, ev.Payload})
	}
	tw.Render()
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	return "********"
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
