package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/lancehub-labs/lancehub-go/internal/platform/auth"
	"github.com/lancehub-labs/lancehub-go/internal/platform/database"
	"github.com/lancehub-labs/lancehub-go/internal/platform/env"
	"github.com/lancehub-labs/lancehub-go/internal/platform/httpserver"
	"github.com/lancehub-labs/lancehub-go/internal/platform/idgen"
	"github.com/lancehub-labs/lancehub-go/internal/platform/policy"
	"github.com/lancehub-labs/lancehub-go/internal/repo/sqlstore"
	"github.com/lancehub-labs/lancehub-go/internal/service/assignments"
	"github.com/lancehub-labs/lancehub-go/internal/service/users"
)

func main() {
	seedOnly := flag.Bool("seed", false, "load the demo dataset and exit")
	flag.Parse()

	_ = godotenv.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx := context.Background()
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := env.String("MARKETPLACE_HTTP_ADDR", ":5000")
	shutdownTimeout, err := env.Duration("MARKETPLACE_SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		logger.Error("invalid env", "error", err)
		os.Exit(2)
	}

	dbCfg, err := database.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid database config", "error", err)
		os.Exit(2)
	}
	db, err := database.Open(ctx, dbCfg)
	if err != nil {
		logger.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := database.Migrate(db, dbCfg.Driver); err != nil {
		logger.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	dialect := sqlstore.DialectPostgres
	if dbCfg.Driver == database.DriverSQLite {
		dialect = sqlstore.DialectSQLite
	}

	if *seedOnly {
		if err := seed(ctx, logger, db, dialect); err != nil {
			logger.Error("seeding failed", "error", err)
			os.Exit(1)
		}
		return
	}

	userStore := sqlstore.NewUserStore(db, dialect)
	writerStore := sqlstore.NewWriterStore(db, dialect)
	assignmentStore := sqlstore.NewAssignmentStore(db, dialect)

	idCfg, err := idgen.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid id config", "error", err)
		os.Exit(2)
	}
	ids, err := idgen.New(idCfg, assignmentStore)
	if err != nil {
		logger.Error("id generator init failed", "error", err)
		os.Exit(2)
	}

	access, err := policy.Load(env.String("POLICY_FILE", ""))
	if err != nil {
		logger.Error("invalid access policy", "error", err)
		os.Exit(2)
	}

	authCfg, err := auth.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid auth config", "error", err)
		os.Exit(2)
	}

	var issuer *auth.TokenIssuer
	if authCfg.Mode == auth.ModeJWT {
		issuer, err = auth.NewTokenIssuer(authCfg)
		if err != nil {
			logger.Error("token issuer init failed", "error", err)
			os.Exit(2)
		}
	}

	userService := users.New(userStore, writerStore, issuer, access)
	engine := assignments.New(assignmentStore, ids, access)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", httpserver.Healthz("marketplace"))

	newAuthAPI(logger, userService).register(mux)
	newAssignmentAPI(logger, engine).register(mux)
	newWriterAPI(logger, userService).register(mux)

	skipPrefixes := []string{"/api/health", "/api/auth/register", "/api/auth/login"}

	var authenticator auth.Authenticator
	switch authCfg.Mode {
	case auth.ModeJWT:
		authenticator, err = auth.NewJWTAuthenticator(authCfg, userService.IdentityByID)
		if err != nil {
			logger.Error("jwt authenticator init failed", "error", err)
			os.Exit(2)
		}
	case auth.ModeOIDC:
		oidcService, err := auth.NewOIDCService(ctx, authCfg, userService.IdentityByEmail)
		if err != nil {
			logger.Error("oidc init failed", "error", err)
			os.Exit(2)
		}
		login, err := oidcService.LoginHandler()
		if err != nil {
			logger.Error("oidc login handler init failed", "error", err)
			os.Exit(2)
		}
		callback, err := oidcService.CallbackHandler()
		if err != nil {
			logger.Error("oidc callback handler init failed", "error", err)
			os.Exit(2)
		}
		mux.HandleFunc("GET /api/auth/oidc/login", login)
		mux.HandleFunc("GET /api/auth/oidc/callback", callback)
		skipPrefixes = append(skipPrefixes, "/api/auth/oidc/")
		authenticator = oidcService
	case auth.ModeDev:
		logger.Warn("dev auth mode active, all requests share one identity")
		authenticator = auth.NewDevAuthenticator(authCfg)
	}

	handler := auth.Middleware{
		Logger:        logger,
		Authenticator: authenticator,
		SkipPrefixes:  skipPrefixes,
	}.Wrap(mux)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   env.CSV("CORS_ALLOWED_ORIGINS", []string{"*"}),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
	}).Handler(handler)

	rateCfg, err := httpserver.RateLimitConfigFromEnv()
	if err != nil {
		logger.Error("invalid rate limit config", "error", err)
		os.Exit(2)
	}

	cfg := httpserver.Config{
		Service:         "marketplace",
		Addr:            addr,
		ShutdownTimeout: shutdownTimeout,
	}

	wrapped := httpserver.Wrap(logger, "marketplace", httpserver.NewRateLimiter(rateCfg), corsHandler)
	if err := httpserver.Run(ctx, logger, cfg, wrapped); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}
