package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/procurauth/internal/config"
	v2server "github.com/dropDatabas3/procurauth/internal/http/v2/server"
	"github.com/dropDatabas3/procurauth/internal/observability/logger"

	// Registran los adapters de store via init()
	_ "github.com/dropDatabas3/procurauth/internal/store/fs"
	_ "github.com/dropDatabas3/procurauth/internal/store/memory"
	_ "github.com/dropDatabas3/procurauth/internal/store/pg"
)

func main() {
	var (
		flagConfig  = flag.String("config", os.Getenv("CONFIG_PATH"), "ruta a config.yaml (opcional)")
		flagEnvOnly = flag.Bool("env", false, "solo variables de entorno (ignora -config)")
	)
	flag.Parse()

	// .env es opcional
	envErr := godotenv.Load()

	path := *flagConfig
	if *flagEnvOnly {
		path = ""
	}
	cfg, err := config.Load(path)
	if err != nil {
		logger.L().Fatal("config load failed", logger.Err(err))
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: cfg.App.ServiceName,
		Version:     cfg.App.Version,
	})
	defer func() { _ = logger.Sync() }()
	log := logger.L()

	if envErr != nil {
		log.Debug("no .env file loaded", logger.Err(envErr))
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid config", logger.Err(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Error("server stopped with error", logger.Err(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	log := logger.L()

	app, err := v2server.Build(ctx, cfg, v2server.Options{})
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Cleanup(); err != nil {
			log.Warn("cleanup error", logger.Err(err))
		}
	}()

	servers := []*http.Server{{
		Addr:         cfg.Server.Addr,
		Handler:      app.Handler,
		ReadTimeout:  cfg.ReadTimeout(),
		WriteTimeout: cfg.WriteTimeout(),
	}}
	if cfg.Server.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", app.MetricsHandler)
		servers = append(servers, &http.Server{Addr: cfg.Server.MetricsAddr, Handler: mux})
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		srv := srv
		g.Go(func() error {
			log.Info("listening", logger.String("addr", srv.Addr), logger.String("store", app.Store.Name()))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
		defer cancel()
		log.Info("shutting down")
		var first error
		for _, srv := range servers {
			if err := srv.Shutdown(shCtx); err != nil && first == nil {
				first = err
			}
		}
		return first
	})

	return g.Wait()
}
