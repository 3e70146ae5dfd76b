// biblioteca es la herramienta administrativa: migraciones, alta de administradores e
// importación de la base de datos anterior.
//
// Uso:
//
//	biblioteca migrate
//	biblioteca create-admin --ci 1234567 --password secreto
//	biblioteca import-legacy --legacy-url postgres://... [--latin1]
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jhoicas/Biblioteca-api/internal/application/auth"
	"github.com/jhoicas/Biblioteca-api/internal/infrastructure/legacy"
	"github.com/jhoicas/Biblioteca-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Biblioteca-api/internal/infrastructure/ratelimit"
	"github.com/jhoicas/Biblioteca-api/migrations"
	"github.com/jhoicas/Biblioteca-api/pkg/config"
	"github.com/jhoicas/Biblioteca-api/pkg/logger"
)

type app struct {
	cfg *config.Config
	log *logger.Logger
}

// connect abre el pool de la base nueva.
func (a *app) connect(ctx context.Context) (*pgxpool.Pool, error) {
	pool, err := postgres.NewPool(ctx, a.cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	return pool, nil
}

func main() {
	var (
		envFiles []string
		a        = &app{}
	)

	root := &cobra.Command{
		Use:           "biblioteca",
		Short:         "Herramientas administrativas de la API de biblioteca",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			for _, f := range envFiles {
				if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("leer %s: %w", f, err)
				}
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.log = logger.New(logger.Config{Env: cfg.App.Env, Level: os.Getenv("LOG_LEVEL"), Service: "biblioteca-cli"})
			return nil
		},
	}
	root.PersistentFlags().StringSliceVar(&envFiles, "env-file", []string{".env"}, "Archivos .env a cargar antes de leer la configuración")

	root.AddCommand(migrateCmd(a), createAdminCmd(a), importLegacyCmd(a))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err.Error())
		os.Exit(1)
	}
}

func migrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones SQL embebidas",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pool, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			res, err := postgres.NewMigrator(migrations.FS, migrations.Dir).Run(ctx, pool)
			if err != nil {
				return err
			}
			if len(res.Applied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "sin migraciones pendientes")
				return nil
			}
			for _, v := range res.Applied {
				fmt.Fprintf(cmd.OutOrStdout(), "aplicada %04d\n", v)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d aplicadas, %d ya existentes (%s)\n", len(res.Applied), len(res.Skipped), res.Duration)
			return nil
		},
	}
}

func createAdminCmd(a *app) *cobra.Command {
	var ci, password string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Crea un administrador o promueve a admin un usuario existente",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(ci) == "" {
				return fmt.Errorf("--ci es requerido")
			}
			if password == "" {
				password = os.Getenv("ADMIN_PASSWORD")
			}
			ctx := cmd.Context()
			pool, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			uc := auth.NewAuthUseCase(
				postgres.NewUserRepository(pool),
				ratelimit.NewMemoryLimiter(a.cfg.Auth.LoginMaxAttempts, a.cfg.Auth.LoginWindow),
				nil,
				nil,
				auth.JWTConfig{Secret: a.cfg.JWT.Secret, ExpMinutes: a.cfg.JWT.Expiration, Issuer: a.cfg.JWT.Issuer},
				false,
			)
			user, created, err := uc.EnsureAdmin(ctx, ci, password)
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "administrador creado: id=%d ci=%s\n", user.ID, user.CI)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "usuario promovido a admin: id=%d ci=%s\n", user.ID, user.CI)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&ci, "ci", "", "Cédula del administrador")
	cmd.Flags().StringVar(&password, "password", "", "Contraseña (env ADMIN_PASSWORD si se omite)")
	return cmd
}

func importLegacyCmd(a *app) *cobra.Command {
	var (
		legacyURL string
		latin1    bool
	)
	cmd := &cobra.Command{
		Use:   "import-legacy",
		Short: "Importa usuarios, géneros, libros, ediciones y préstamos de la base anterior",
		RunE: func(cmd *cobra.Command, args []string) error {
			if legacyURL == "" {
				legacyURL = os.Getenv("LEGACY_DATABASE_URL")
			}
			if legacyURL == "" {
				return fmt.Errorf("--legacy-url es requerido (o env LEGACY_DATABASE_URL)")
			}
			ctx := cmd.Context()

			src, err := legacy.Open(ctx, legacyURL, latin1)
			if err != nil {
				return err
			}
			defer src.Close()

			pool, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			summaries, err := legacy.NewImporter(src, postgres.NewLegacySink(pool), a.log).Run(ctx)
			for _, s := range summaries {
				fmt.Fprintln(cmd.OutOrStdout(), s.String())
			}
			return err
		},
	}
	cmd.Flags().StringVar(&legacyURL, "legacy-url", "", "DSN de la base anterior (env LEGACY_DATABASE_URL)")
	cmd.Flags().BoolVar(&latin1, "latin1", false, "Decodifica los textos de la base anterior como ISO-8859-1")
	return cmd
}
