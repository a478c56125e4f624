package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"blog-api/config"
	"blog-api/controllers"
	"blog-api/db"
	"blog-api/logging"
	"blog-api/routes"
	"blog-api/utils"

	"github.com/spf13/cobra"
)

type serveFlags struct {
	configPath string
	addr       string
	logLevel   string
	logFormat  string
	debug      bool
}

func newRootCmd() *cobra.Command {
	flags := &serveFlags{}

	root := &cobra.Command{
		Use:           "blog-api",
		Short:         "Blog posts API backed by Postgres",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, flags)
		},
	}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server (default command)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, flags)
		},
	}

	addServeFlags(root, flags)

	root.AddCommand(serve, &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Println(version)
		},
	})

	return root
}

func addServeFlags(cmd *cobra.Command, flags *serveFlags) {
	pf := cmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "path to a YAML config file")
	pf.StringVar(&flags.addr, "addr", "", "listen address (overrides HTTP_ADDR)")
	pf.StringVar(&flags.logLevel, "log-level", "", "debug, info, warn or error")
	pf.StringVar(&flags.logFormat, "log-format", "", "text or json")
	pf.BoolVar(&flags.debug, "debug", false, "mount pprof under /debug/pprof/")
}

// loadConfig layers the command line flags over config.Load.
func loadConfig(cmd *cobra.Command, flags *serveFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}

	f := cmd.Flags()
	if f.Changed("addr") {
		cfg.HTTPAddr = flags.addr
	}
	if f.Changed("log-level") {
		cfg.LogLevel = flags.logLevel
	}
	if f.Changed("log-format") {
		cfg.LogFormat = flags.logFormat
	}
	if f.Changed("debug") {
		cfg.Debug = flags.debug
	}

	return cfg, cfg.Validate()
}

func runServe(cmd *cobra.Command, flags *serveFlags) error {
	cfg, err := loadConfig(cmd, flags)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	format, err := logging.ParseFormat(cfg.LogFormat)
	if err != nil {
		return err
	}
	log := logging.New(logging.Config{Level: level, Format: format})

	tokens, err := utils.NewTokenMaker(cfg.PasetoKey)
	if err != nil {
		return fmt.Errorf("error loading PASETO secret: %w", err)
	}

	initCtx, cancelInit := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelInit()

	conn, err := db.InitDB(initCtx, cfg.DBURL, log)
	if err != nil {
		return fmt.Errorf("error initializing database: %w", err)
	}
	defer conn.Close()

	if err := db.Migrate(initCtx, conn, log); err != nil {
		return fmt.Errorf("error migrating database: %w", err)
	}

	redisClient, err := db.NewRedisClient(initCtx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("error initializing Redis: %w", err)
	}
	defer redisClient.Close()
	log.Info("redis connection initialized")

	sessions := db.NewSessionStore(redisClient)
	handler := routes.SetupRoutes(routes.Deps{
		Posts:    db.NewPostStore(conn),
		Users:    db.NewUserStore(conn),
		Sessions: sessions,
		Tokens:   tokens,
		Checks: map[string]controllers.Pinger{
			"database": conn,
			"redis":    sessions,
		},
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Debug:          cfg.Debug,
		Log:            log,
	})

	srv := &http.Server{
		Addr:           cfg.HTTPAddr,
		Handler:        handler,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: 7500,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()
	log.Info("server started", "addr", cfg.HTTPAddr)

	// Wait for interrupt signal to gracefully shut down the server
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serveErr:
		return fmt.Errorf("ListenAndServe error: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("server exited gracefully")
	return nil
}
