package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	appanalytics "github.com/jhoicas/Tagihan-api/internal/application/analytics"
	"github.com/jhoicas/Tagihan-api/internal/application/auth"
	"github.com/jhoicas/Tagihan-api/internal/application/billing"
	"github.com/jhoicas/Tagihan-api/internal/application/ports"
	"github.com/jhoicas/Tagihan-api/internal/application/reminder"
	"github.com/jhoicas/Tagihan-api/internal/application/usecase"
	"github.com/jhoicas/Tagihan-api/internal/domain/repository"
	infraai "github.com/jhoicas/Tagihan-api/internal/infrastructure/ai"
	"github.com/jhoicas/Tagihan-api/internal/infrastructure/filestore"
	"github.com/jhoicas/Tagihan-api/internal/infrastructure/memory"
	"github.com/jhoicas/Tagihan-api/internal/infrastructure/metrics"
	infrapdf "github.com/jhoicas/Tagihan-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Tagihan-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Tagihan-api/internal/infrastructure/redisstore"
	httpRouter "github.com/jhoicas/Tagihan-api/internal/interfaces/http"
	"github.com/jhoicas/Tagihan-api/pkg/config"
	"github.com/jhoicas/Tagihan-api/pkg/logger"
)

const swaggerFile = "./docs/swagger.json"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
		App:   cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Storage.Driver).
		Msg("iniciando aplicación")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, closeMedium, err := openMedium(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("abrir medio de almacenamiento")
	}
	defer closeMedium()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	store := billing.NewCustomerStore(repo, billing.StoreConfig{
		Key:     cfg.Storage.Key,
		Logger:  log.Zerolog(),
		Metrics: m,
	})
	if err := store.Open(ctx); err != nil {
		log.Fatal().Err(err).Msg("cargar clientes")
	}
	defer store.Close()

	receiptUC := billing.NewReceiptUseCase(store, infrapdf.NewMarotoReceiptGenerator(cfg.App.Name).WithCodeKey(cfg.App.ReceiptKey))
	dashboardUC := appanalytics.NewDashboardUseCase(store, nil)

	var insightsSvc ports.InsightsService
	switch cfg.AI.Provider {
	case "anthropic":
		insightsSvc = infraai.NewAnthropicService(cfg.AI.AnthropicAPIKey, cfg.AI.AnthropicModel)
	default:
		insightsSvc = infraai.NewGeminiService(cfg.AI.GeminiAPIKey, cfg.AI.GeminiModel)
	}
	insightsUC := usecase.NewInsightsUseCase(
		insightsSvc, store,
		time.Duration(cfg.AI.TimeoutSeconds)*time.Second,
		m, log.Component("insights"),
	)

	// Sin hash de operador la API queda abierta (instalación local de un solo puesto).
	var authUC *auth.AuthUseCase
	jwtSecret := ""
	if cfg.Auth.Enabled() {
		jwtSecret = cfg.JWT.Secret
		authUC = auth.NewAuthUseCase(cfg.Auth.OperatorUser, cfg.Auth.OperatorPasswordHash, auth.JWTConfig{
			Secret:     cfg.JWT.Secret,
			ExpMinutes: cfg.JWT.Expiration,
			Issuer:     cfg.JWT.Issuer,
		})
	} else {
		log.Warn().Msg("AUTH_OPERATOR_PASSWORD_HASH vacío: API sin autenticación")
	}

	var job *reminder.Job
	if cfg.Reminder.Cron != "" {
		job, err = reminder.NewJob(store, cfg.Reminder.Cron, cfg.Reminder.DaysAhead, nil, log.Zerolog())
		if err != nil {
			log.Fatal().Err(err).Msg("programar revisión de vencimientos")
		}
		job.Start()
	}

	app := fiber.New(fiber.Config{
		AppName:     cfg.App.Name,
		ReadTimeout: time.Second * 10,
		// Sin WriteTimeout: el stream SSE de clientes es de larga duración.
		IdleTimeout: time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(m.Middleware())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Tagihan API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "ok",
			"service":   cfg.App.Name,
			"storage":   cfg.Storage.Driver,
			"customers": len(store.List()),
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	httpRouter.Router(app, httpRouter.RouterDeps{
		Store:      store,
		Receipts:   receiptUC,
		Dashboard:  dashboardUC,
		InsightsUC: insightsUC,
		AuthUC:     authUC,
		JWTSecret:  jwtSecret,
		Logger:     log.Component("http"),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			return fmt.Errorf("servidor HTTP: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("señal de apagado recibida, cerrando servidor...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if job != nil {
			job.Stop(shutdownCtx)
		}
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			return fmt.Errorf("apagado del servidor: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("aplicación finalizada con error")
	}
	log.Info().Msg("aplicación detenida")
}

// openMedium abre el medio durable configurado. La función devuelta libera sus recursos.
func openMedium(ctx context.Context, cfg *config.Config, log *logger.Logger) (repository.SnapshotRepository, func(), error) {
	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		pool, err := postgres.NewPool(ctx, cfg.DB, cfg.App.Name)
		if err != nil {
			return nil, nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
		}
		repo := postgres.NewSnapshotRepository(pool, log.Zerolog())
		if err := repo.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		if s, err := repo.Summary(ctx, cfg.Storage.Key); err == nil && s != nil {
			log.Info().
				Int("customers", s.CustomerCount).
				Str("total_fees", s.TotalFees.String()).
				Time("updated_at", s.UpdatedAt).
				Msg("snapshot existente en PostgreSQL")
		}
		return repo, pool.Close, nil
	case config.StorageRedis:
		medium, err := redisstore.NewMedium(cfg.Redis.URL, log.Zerolog())
		if err != nil {
			return nil, nil, err
		}
		return medium, func() { _ = medium.Close() }, nil
	case config.StorageMemory:
		log.Warn().Msg("STORAGE_DRIVER=memory: los datos se pierden al reiniciar")
		return memory.NewMedium(), func() {}, nil
	default:
		medium, err := filestore.NewMedium(cfg.Storage.Dir, log.Zerolog())
		if err != nil {
			return nil, nil, err
		}
		return medium, func() {}, nil
	}
}
