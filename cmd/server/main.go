package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/urfave/cli/v2"

	"hookline/internal/auth"
	"hookline/internal/config"
	"hookline/internal/db"
	"hookline/internal/db/models"
	"hookline/internal/geoip"
	"hookline/internal/gql"
	"hookline/internal/plugin"
	"hookline/internal/version"
)

func main() {
	// best effort, the file is optional
	_ = godotenv.Load()

	app := &cli.App{
		Name:    "hookline",
		Usage:   "Campaign server GraphQL query layer",
		Version: version.Version,
		Commands: []*cli.Command{
			{
				Name:  "server",
				Usage: "Serve the GraphQL API over HTTP",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Usage:   "Path to the YAML server configuration",
						Value:   "hookline.yml",
						EnvVars: []string{"HOOKLINE_CONFIG"},
					},
				},
				Action: runServer,
			},
			{
				Name:      "query",
				Usage:     "Execute a GraphQL document from a file and print the result",
				ArgsUsage: "<document.graphql>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Usage:   "Path to the YAML server configuration",
						Value:   "hookline.yml",
						EnvVars: []string{"HOOKLINE_CONFIG"},
					},
				},
				Action: runQuery,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Logging.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// setup loads the configuration and builds the process wide resources shared
// by the server and query commands.
func setup(c *cli.Context) (*config.Config, *slog.Logger, *db.Session, *plugin.Manager, *gql.Schema, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}
	logger := newLogger(cfg)

	session, err := db.Open(cfg.Database.URL, logger)
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}

	plugins := plugin.NewManager(logger)
	if cfg.Plugins.Directory != "" {
		if err := plugins.LoadDir(cfg.Plugins.Directory); err != nil {
			logger.Warn("plugin loading failed", "error", err)
		}
	}

	opts := []gql.Option{}
	if cfg.GeoIP.Database != "" {
		geodb, err := geoip.Open(cfg.GeoIP.Database)
		if err != nil {
			session.Close()
			return nil, nil, nil, nil, nil, err
		}
		opts = append(opts, gql.WithGeoIP(geodb))
	}
	schema, err := gql.New(opts...)
	if err != nil {
		session.Close()
		return nil, nil, nil, nil, nil, err
	}
	return cfg, logger, session, plugins, schema, nil
}

func runServer(c *cli.Context) error {
	cfg, logger, session, plugins, schema, err := setup(c)
	if err != nil {
		return err
	}
	defer session.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := session.Ping(ctx); err != nil {
		return fmt.Errorf("database is unreachable: %w", err)
	}

	// sessions are produced by the authentication layer in front of this
	// process; a missing header runs the query unrestricted for local use
	sessionFn := func(r *http.Request) models.ReadAccessSession {
		userID := r.Header.Get("X-Authenticated-User")
		if userID == "" {
			return nil
		}
		return auth.NewSession(userID, r.Header.Get("X-Authenticated-Admin") == "1")
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	if cfg.Server.RateLimit > 0 {
		router.Use(httprate.LimitByIP(cfg.Server.RateLimit, time.Minute))
	}
	router.Handle("/graphql", gql.NewHandler(schema, session, plugins, sessionFn, logger))
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", "error", err)
		}
	}()

	logger.Info("serving GraphQL API", "addr", addr, "version", version.Version)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	logger.Info("server stopped")
	return nil
}

func runQuery(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one document path argument")
	}
	_, _, session, plugins, schema, err := setup(c)
	if err != nil {
		return err
	}
	defer session.Close()

	// the CLI is a trusted local caller and runs unrestricted
	result, err := schema.ExecuteFile(context.Background(), c.Args().First(), gql.ExecuteParams{
		Context: &gql.RequestContext{
			Session: auth.Unrestricted{},
			DB:      session,
			Plugins: plugins,
		},
	})
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}
