package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"homesync/internal/api"
	"homesync/internal/config"
	"homesync/internal/db"
	"homesync/internal/domain"
	"homesync/internal/migrate"
	"homesync/internal/registry"
	"homesync/internal/report"
	"homesync/internal/session"
	"homesync/internal/store"
	"homesync/internal/stub"
)

var rootCmd = &cobra.Command{
	Use:   "hs",
	Short: "HomeSync CLI",
	Long: `HomeSync keeps a smart-home dashboard in step with its backing service.
Presses take effect immediately on the local state; recurring polls fetch the
authoritative activity log and notification list, and the polled view always
wins over whatever was applied locally in between.`,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("HOMESYNC")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default <workspace>/homesync.yml)")
	rootCmd.PersistentFlags().String("server", "", "service base URL (overrides config)")
	rootCmd.PersistentFlags().Int("user", 0, "user id (overrides config)")
	rootCmd.PersistentFlags().String("token", "", "bearer token (overrides config)")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug logging")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server"))
	_ = viper.BindPFlag("user", rootCmd.PersistentFlags().Lookup("user"))
	_ = viper.BindPFlag("token", rootCmd.PersistentFlags().Lookup("token"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func registerCommands() {
	rootCmd.AddCommand(actionsCmd())
	rootCmd.AddCommand(activityCmd())
	rootCmd.AddCommand(notificationsCmd())
	rootCmd.AddCommand(userCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(serveStubCmd())
	rootCmd.AddCommand(tokenCmd())
}

func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if path := viper.GetString("config"); path != "" {
		cfg, err = config.FromFile(path)
	} else {
		cfg, err = config.Load(viper.GetString("workspace"))
	}
	if err != nil {
		return nil, err
	}
	if s := viper.GetString("server"); s != "" {
		cfg.Server.BaseURL = s
	}
	if u := viper.GetInt("user"); u > 0 {
		cfg.User.ID = u
	}
	if t := viper.GetString("token"); t != "" {
		cfg.Server.Token = t
	}
	return cfg, nil
}

func newLogger() *zap.Logger {
	if !viper.GetBool("verbose") {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func newClient(cfg *config.Config) *api.Client {
	c := api.New(cfg.Server.BaseURL)
	c.BearerToken = cfg.Server.Token
	c.Timeout = cfg.RequestTimeout()
	return c
}

func actionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "actions",
		Short: "Dashboard controls",
	}
	cmd.AddCommand(actionsListCmd())
	cmd.AddCommand(actionsToggleCmd())
	cmd.AddCommand(actionsTriggerCmd())
	return cmd
}

func actionsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List controls in their initial state",
		RunE: func(cmd *cobra.Command, args []string) error {
			actions := registry.Default()
			if viper.GetBool("json") {
				return printJSON(actions)
			}
			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"ID", "Name", "Type", "Active", "Subtitle"})
			for _, a := range actions {
				tw.AppendRow(table.Row{a.ID, a.Name, a.Type, a.Active, a.Subtitle})
			}
			tw.Render()
			return nil
		},
	}
}

func actionsToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Toggle a stateful control and report it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return pressOnce(cmd.Context(), args[0], false)
		},
	}
}

func actionsTriggerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trigger <id>",
		Short: "Fire a momentary control and report it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return pressOnce(cmd.Context(), args[0], true)
		},
	}
}

// pressOnce applies one press against a fresh local store and sends the
// behavior report synchronously, so the command exits after the write.
func pressOnce(ctx context.Context, id string, momentary bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger()
	defer logger.Sync()
	actions := store.NewActionStore(registry.Default(), logger)
	action, ok := actions.Get(id)
	if !ok {
		return fmt.Errorf("unknown action id %q", id)
	}
	if momentary != action.Type.Momentary() {
		if momentary {
			return fmt.Errorf("%s is a stateful control; use toggle", id)
		}
		return fmt.Errorf("%s is a momentary control; use trigger", id)
	}
	active := true
	if !momentary {
		active, _ = actions.Toggle(id)
	}
	r := report.New(newClient(cfg), cfg.User.ID, nil, 0, logger)
	r.Report(ctx, action, active)
	updated, _ := actions.Get(id)
	if momentary {
		updated.Active = true
	}
	return printJSONOrTable(updated)
}

func activityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Behavior log",
	}
	cmd.AddCommand(activityTailCmd())
	return cmd
}

func activityTailCmd() *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Show the most recent behavior entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			entries, err := newClient(cfg).ActivityLog(cmd.Context(), cfg.User.ID, n)
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(entries)
			}
			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"ID", "Device", "Action", "Content", "Time"})
			for _, e := range entries {
				tw.AppendRow(table.Row{e.ID, e.DeviceID, e.ActionType, e.DisplayText(), e.Timestamp})
			}
			tw.Render()
			return nil
		},
	}
	cmd.Flags().IntVarP(&n, "limit", "n", 5, "number of entries")
	return cmd
}

func notificationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"notif"},
		Short:   "Message center",
	}
	cmd.AddCommand(notificationsListCmd())
	cmd.AddCommand(notificationsReadCmd())
	cmd.AddCommand(notificationsReadAllCmd())
	cmd.AddCommand(notificationsUnreadCountCmd())
	return cmd
}

func notificationsListCmd() *cobra.Command {
	var category string
	var skip, limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			items, err := newClient(cfg).Notifications(cmd.Context(), cfg.User.ID, category, skip, limit)
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(items)
			}
			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"ID", "Category", "Title", "Read", "Created"})
			for _, n := range items {
				tw.AppendRow(table.Row{n.ID, n.Category, n.Title, n.IsRead, n.CreatedAt})
			}
			tw.Render()
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "server category (system|reminder|alert)")
	cmd.Flags().IntVar(&skip, "skip", 0, "entries to skip")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum entries")
	return cmd
}

func notificationsReadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read <id>",
		Short: "Mark one notification read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			var id int
			if _, err := fmt.Sscanf(args[0], "%d", &id); err != nil {
				return fmt.Errorf("invalid notification id %q", args[0])
			}
			return newClient(cfg).MarkRead(cmd.Context(), id, cfg.User.ID)
		},
	}
}

func notificationsReadAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read-all",
		Short: "Mark every notification read",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return newClient(cfg).MarkAllRead(cmd.Context(), cfg.User.ID)
		},
	}
}

func notificationsUnreadCountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unread-count",
		Short: "Count unread notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			n, err := newClient(cfg).UnreadCount(cmd.Context(), cfg.User.ID)
			if err != nil {
				return err
			}
			fmt.Println(n)
			return nil
		},
	}
}

func userCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "user",
		Short: "Show the configured user's profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			u, err := newClient(cfg).User(cmd.Context(), cfg.User.ID)
			if err != nil {
				return err
			}
			return printJSONOrTable(u)
		},
	}
}

func watchCmd() *cobra.Command {
	var forDur time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run a live session, printing state changes until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger()
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if forDur > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, forDur)
				defer cancel()
			}

			s := session.New(cfg, logger)
			s.Actions.OnChange(func(actions []domain.Action) {
				for _, a := range actions {
					state := "off"
					if a.Active {
						state = "on"
					}
					fmt.Printf("  %-8s %-10s %s\n", a.ID, a.Name, state)
				}
				fmt.Println()
			})
			s.Start(ctx)
			defer s.Close()

			fmt.Printf("watching as user %d against %s (ctrl-c to stop)\n", cfg.User.ID, cfg.Server.BaseURL)
			ticker := time.NewTicker(cfg.NotificationsInterval())
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					fmt.Printf("activity entries: %d, unread notifications: %d\n",
						len(s.Activity()), s.Notifications.UnreadCount())
				}
			}
		},
	}
	cmd.Flags().DurationVar(&forDur, "for", 0, "stop after this long (0 = until interrupted)")
	return cmd
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Client configuration",
	}
	cmd.AddCommand(configInitCmd())
	cmd.AddCommand(configShowCmd())
	return cmd
}

func configInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default homesync.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("workspace"))
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
				return err
			}
			fmt.Println("wrote", path)
			return nil
		},
	}
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return printJSONOrTable(cfg)
		},
	}
}

func serveStubCmd() *cobra.Command {
	var addr, basePath string
	var seed, ephemeral bool
	cmd := &cobra.Command{
		Use:   "serve-stub",
		Short: "Run the development backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			dbConn, err := openStubDB(ephemeral)
			if err != nil {
				return err
			}
			defer dbConn.Close()
			if err := migrate.Migrate(dbConn); err != nil {
				return err
			}
			if seed {
				if err := stub.Seed(cmd.Context(), dbConn, cfg.User.ID, nil); err != nil {
					return err
				}
			}
			handler, err := stub.New(stub.Config{
				DB:       dbConn,
				BasePath: basePath,
				Auth:     stub.AuthConfig{JWTSecret: os.Getenv("HOMESYNC_JWT_SECRET")},
			})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			fmt.Printf("Serving stub API on http://%s%s (OpenAPI at %s/openapi.json)\n", addr, basePath, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/api/v1", "API base path")
	cmd.Flags().BoolVar(&seed, "seed", true, "seed the demo user and notifications")
	cmd.Flags().BoolVar(&ephemeral, "ephemeral", false, "use an in-memory database")
	return cmd
}

func openStubDB(ephemeral bool) (*sql.DB, error) {
	if ephemeral {
		return db.OpenMemory()
	}
	workspace := viper.GetString("workspace")
	if _, err := db.EnsureWorkspace(workspace); err != nil {
		return nil, err
	}
	return db.Open(db.Config{Workspace: workspace})
}

func tokenCmd() *cobra.Command {
	var subject string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token the stub accepts",
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := os.Getenv("HOMESYNC_JWT_SECRET")
			token, err := stub.IssueToken(secret, subject, ttl)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "hs-cli", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
