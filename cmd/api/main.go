package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	"github.com/swaggo/swag"

	"github.com/jhoicas/Biblioteca-api/docs"
	"github.com/jhoicas/Biblioteca-api/internal/application/analytics"
	"github.com/jhoicas/Biblioteca-api/internal/application/auth"
	"github.com/jhoicas/Biblioteca-api/internal/application/lending"
	"github.com/jhoicas/Biblioteca-api/internal/application/ports"
	"github.com/jhoicas/Biblioteca-api/internal/application/usecase"
	"github.com/jhoicas/Biblioteca-api/internal/infrastructure/bundle"
	"github.com/jhoicas/Biblioteca-api/internal/infrastructure/cache"
	"github.com/jhoicas/Biblioteca-api/internal/infrastructure/csvexport"
	"github.com/jhoicas/Biblioteca-api/internal/infrastructure/events"
	infrapdf "github.com/jhoicas/Biblioteca-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Biblioteca-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Biblioteca-api/internal/infrastructure/ratelimit"
	"github.com/jhoicas/Biblioteca-api/internal/infrastructure/xmlexport"
	httpRouter "github.com/jhoicas/Biblioteca-api/internal/interfaces/http"
	"github.com/jhoicas/Biblioteca-api/migrations"
	"github.com/jhoicas/Biblioteca-api/pkg/config"
	"github.com/jhoicas/Biblioteca-api/pkg/logger"
)

const swaggerFile = "./docs/swagger.json"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   os.Getenv("LOG_LEVEL"),
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET es obligatorio")
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if cfg.DB.AutoMigrate {
		res, err := postgres.NewMigrator(migrations.FS, migrations.Dir).Run(ctx, pool)
		if err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}
		log.Info().Ints("aplicadas", res.Applied).Int("omitidas", len(res.Skipped)).Dur("duracion", res.Duration).Msg("migraciones")
	}

	// Cache: redis o memoria según CACHE_DRIVER. El rate limit comparte el cliente redis.
	var redisClient *redis.Client
	if cfg.Cache.Driver == "redis" {
		redisClient = cache.NewRedisClient(cfg.Cache)
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Msg("redis no responde; se reintentará en cada operación")
		}
	}
	appCache := cache.New(cfg.Cache, redisClient)
	denylist := cache.NewDenylist(appCache)
	limiter := ratelimit.New(redisClient, cfg.Cache.Prefix+":login", cfg.Auth.LoginMaxAttempts, cfg.Auth.LoginWindow)

	publisher := events.New(cfg.Kafka)
	if closer, ok := publisher.(interface{ Close() error }); ok {
		defer closer.Close()
	}
	if cfg.Kafka.Enabled() {
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.LoanTopic).Msg("eventos de préstamos habilitados")
	}

	userRepo := postgres.NewUserRepository(pool)
	categoryRepo := postgres.NewCategoryRepository(pool)
	bookRepo := postgres.NewBookRepository(pool)
	editionRepo := postgres.NewEditionRepository(pool)
	loanRepo := postgres.NewLoanRepository(pool)
	reportRepo := postgres.NewReportRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	authUC := auth.NewAuthUseCase(userRepo, limiter, denylist, appCache, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	}, cfg.Auth.LegacyCILogin)
	if cfg.Auth.LegacyCILogin {
		log.Warn().Msg("login solo con cédula habilitado para usuarios importados")
	}

	renderers := map[string]ports.ReportRenderer{
		"csv": csvexport.NewRenderer(),
		"xml": xmlexport.NewRenderer(),
		"pdf": infrapdf.NewMarotoReportGenerator(cfg.App.Name),
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
		JSONEncoder:  jsoniter.ConfigCompatibleWithStandardLibrary.Marshal,
		JSONDecoder:  jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal,
	})
	app.Use(recover.New())

	// Especificación OpenAPI embebida; la UI de /docs solo se monta si el archivo está en disco.
	app.Get("/swagger.json", func(c *fiber.Ctx) error {
		doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
		if err != nil {
			return err
		}
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
		return c.SendString(doc)
	})
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Biblioteca API",
		}))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:      authUC,
		UserUC:      usecase.NewUserUseCase(userRepo),
		CategoryUC:  usecase.NewCategoryUseCase(categoryRepo),
		BookUC:      usecase.NewBookUseCase(bookRepo, categoryRepo, appCache),
		EditionUC:   usecase.NewEditionUseCase(editionRepo, bookRepo, appCache),
		LoanUC:      lending.NewLoanUseCase(txRunner, loanRepo, userRepo, publisher, appCache, log),
		DashboardUC: analytics.NewDashboardUseCase(reportRepo, appCache, cfg.Cache.TTL),
		ReportUC:    analytics.NewReportUseCase(reportRepo, userRepo, renderers, bundle.NewZipArchiver(), cfg.Reports.TopBorrowersLimit),
		JWTSecret:   cfg.JWT.Secret,
		Denylist:    denylist,
		Metrics:     httpRouter.NewMetrics(pool),
		Logger:      log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
