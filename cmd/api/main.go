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
	_ "github.com/jhoicas/Prestamos-api/docs"
	"github.com/jhoicas/Prestamos-api/internal/application/lending"
	"github.com/jhoicas/Prestamos-api/internal/application/usecase"
	"github.com/jhoicas/Prestamos-api/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/Prestamos-api/internal/infrastructure/redis"
	httpRouter "github.com/jhoicas/Prestamos-api/internal/interfaces/http"
	"github.com/jhoicas/Prestamos-api/pkg/config"
	"github.com/jhoicas/Prestamos-api/pkg/logger"
)

// @title           Prestamos API
// @version         1.0
// @description     Préstamo de herramientas: solicitudes, aprobación, entrega, devolución y multas.
// @BasePath        /
// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("fine_per_day", cfg.Lending.FinePerDay.String()).
		Str("timezone", cfg.Lending.Location().String()).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	applied, err := postgres.Migrate(ctx, pool)
	if err != nil {
		log.Fatal().Err(err).Msg("migraciones")
	}
	if len(applied) > 0 {
		log.Info().Strs("migrations", applied).Msg("migraciones aplicadas")
	}

	toolRepo := postgres.NewToolRepository(pool)
	categoryRepo := postgres.NewCategoryRepository(pool)
	loanRepo := postgres.NewLoanRepository(pool)
	returnRepo := postgres.NewReturnRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	opts := []lending.Option{
		lending.WithLogger(log.Component("lending")),
		lending.WithCodeGenerator(lending.ULIDCodeGenerator{Prefix: cfg.Lending.CodePrefix}),
	}

	// Stream de bitácora: opcional, sin Redis la bitácora queda solo en PostgreSQL.
	if cfg.Redis.Enabled() {
		rdb, err := infraredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis no disponible, stream de bitácora deshabilitado")
		} else {
			defer rdb.Close()
			opts = append(opts, lending.WithPublisher(infraredis.NewActivityStream(rdb, cfg.Redis.Stream)))
		}
	}

	loanUC := lending.NewLoanUseCase(txRunner, loanRepo, opts...)
	returnUC := lending.NewReturnUseCase(txRunner, loanRepo, returnRepo, lending.FinePolicy{
		FinePerDay: cfg.Lending.FinePerDay,
		Location:   cfg.Lending.Location(),
	}, opts...)
	toolUC := usecase.NewToolUseCase(toolRepo, categoryRepo)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log.Component("http")))

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Prestamos API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		ToolUC:    toolUC,
		LoanUC:    loanUC,
		ReturnUC:  returnUC,
		JWTSecret: cfg.JWT.Secret,
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
