package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/go-playground/validator"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/factfeed/factfeed/internal/graphstate"
	"github.com/factfeed/factfeed/internal/queue"
	mid "github.com/factfeed/factfeed/internal/server/middleware"
	"github.com/factfeed/factfeed/internal/util"
	"github.com/factfeed/factfeed/pkg/logger"
	pgxstore "github.com/factfeed/factfeed/pkg/store/pgx"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	return cv.validator.Struct(i)
}

func Init() {
	e := echo.New()
	e.Validator = &CustomValidator{validator: validator.New()}

	// JWKS auth is optional; the master API key alone is enough for
	// single-tenant deployments.
	var key *keyfunc.Keyfunc
	if authURL := util.GetEnv("AUTH_URL"); authURL != "" {
		k, err := keyfunc.NewDefault([]string{authURL + "/jwks"})
		if err != nil {
			logger.Fatal("Failed to load jwks keys", "err", err)
		}
		key = &k
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	databaseURL := util.GetEnv("DATABASE_URL")
	if err := pgxstore.Migrate(databaseURL); err != nil {
		logger.Fatal("Failed to run migrations", "err", err)
	}

	conn, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", "err", err)
	}
	defer conn.Close()

	factStore := pgxstore.NewFactDBStorage(conn)

	que := queue.Init()
	defer que.Close()
	ch, err := que.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	if err := queue.SetupQueues(ch, queue.RefreshQueues); err != nil {
		logger.Fatal("Failed to set up queues", "err", err)
	}

	daysBack := int(util.GetEnvNumeric("GRAPH_DAYS_BACK", 30))
	graphState := graphstate.New(factStore, daysBack)
	if err := graphState.Rebuild(ctx); err != nil {
		logger.Error("Initial graph build failed", "err", err)
	}

	// Reload the graph view periodically so the server picks up facts
	// written by the worker without a restart.
	reloadEvery := time.Duration(util.GetEnvNumeric("GRAPH_RELOAD_SECONDS", 300)) * time.Second
	go func() {
		t := time.NewTicker(reloadEvery)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if err := graphState.Rebuild(ctx); err != nil {
					logger.Error("Graph reload failed", "err", err)
				}
			}
		}
	}()

	app := &mid.App{
		DBConn:       conn,
		Queue:        ch,
		Key:          key,
		Store:        factStore,
		Graph:        graphState,
		MasterAPIKey: util.GetEnv("MASTER_API_KEY"),
	}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(middleware.CORS())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("1M"))

	RegisterRoutes(e)

	go func() {
		port := util.GetEnvString("PORT", "8080")
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}
