package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/gorilla/handlers"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bob-jr-kab/eventcal/auth"
	"github.com/bob-jr-kab/eventcal/config"
	"github.com/bob-jr-kab/eventcal/fstore"
	"github.com/bob-jr-kab/eventcal/log"
	"github.com/bob-jr-kab/eventcal/memstore"
	"github.com/bob-jr-kab/eventcal/pg"
	"github.com/bob-jr-kab/eventcal/rest"
	"github.com/bob-jr-kab/eventcal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the REST API",
	Long: `Run the REST API.

Sign-in always goes through Firebase Authentication, so firebase_project_id
must be set whichever store is configured, including the default memory store.
For local development without Google credentials, start the Firebase emulators
and set FIREBASE_AUTH_EMULATOR_HOST (and FIRESTORE_EMULATOR_HOST for the
firestore store); firebase_api_key is then optional.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		logger, err := log.New(cfg.Environment)
		if err != nil {
			return err
		}
		defer logger.Sync()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := serve(ctx, cfg, logger); err != nil {
			logger.Error("server failed", zap.Error(err))
			return err
		}
		return nil
	},
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	if err := cfg.CheckFirebase(os.Getenv); err != nil {
		return err
	}
	app, err := newFirebaseApp(ctx, cfg)
	if err != nil {
		logger.Error("init firebase failed", zap.Error(err))
		return err
	}
	authClient, err := app.Auth(ctx)
	if err != nil {
		logger.Error("init firebase auth failed", zap.Error(err))
		return err
	}

	st, err := openStores(ctx, cfg, app)
	if err != nil {
		logger.Error("open store failed", zap.String("store", cfg.Store), zap.Error(err))
		return err
	}
	defer st.close()

	srv := &service.Service{
		EventStore:   st.events,
		ProfileStore: st.profiles,
		Backend:      cfg.Store,

		Gateway: &auth.Gateway{
			Accounts: &auth.FirebaseAccounts{Client: authClient, Toolkit: newToolkit(cfg)},
			Profiles: st.profiles,
			Logger:   logger,
		},
		Auth: &auth.FirebaseProvider{
			AuthClient: authClient,
			AdminUIDs:  cfg.AdminUIDs,
		},

		IdleTimeout: cfg.IdleTimeout,
		Location:    loc,
		Logger:      logger,
	}
	defer srv.Close()

	restHandler := rest.New(srv)
	restHandler.CookieSecure = cfg.CookieSecure
	restHandler.AdminUIDs = cfg.AdminUIDs

	var handler http.Handler = restHandler
	handler = log.WrapHandler(handler, logger)
	handler = handlers.CORS(
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PATCH", "DELETE", "OPTIONS", "HEAD"}),
		handlers.AllowedOrigins(cfg.CORSOrigins),
		handlers.AllowCredentials(),
	)(handler)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sweeper := cron.New()
	if cfg.SweepSchedule != "" {
		_, err := sweeper.AddFunc(cfg.SweepSchedule, func() {
			srv.Sweep(cfg.SweepAfter)
		})
		if err != nil {
			return err
		}
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.Addr), zap.String("store", cfg.Store))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		sweeper.Start()
		<-ctx.Done()
		<-sweeper.Stop().Done()
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

type stores struct {
	events   service.EventStore
	profiles service.ProfileStore
	close    func()
}

func openStores(ctx context.Context, cfg *config.Config, app *firebase.App) (*stores, error) {
	switch cfg.Store {
	case "postgres":
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		db.SetMaxOpenConns(5)

		events := &pg.EventStore{DB: db}
		if err := events.Init(ctx); err != nil {
			db.Close()
			return nil, err
		}
		profiles := &pg.ProfileStore{DB: db}
		if err := profiles.Init(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return &stores{events: events, profiles: profiles, close: func() { db.Close() }}, nil

	case "firestore":
		client, err := app.Firestore(ctx)
		if err != nil {
			return nil, err
		}
		return &stores{
			events:   &fstore.EventStore{Client: client},
			profiles: &fstore.ProfileStore{Client: client},
			close:    func() { client.Close() },
		}, nil

	default:
		return &stores{
			events:   memstore.NewEventStore(),
			profiles: memstore.NewProfileStore(),
			close:    func() {},
		}, nil
	}
}
