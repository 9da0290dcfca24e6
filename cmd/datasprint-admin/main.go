// Command datasprint-admin runs maintenance tasks against the DATASPRINT
// database: promoting an admin, flushing registrations and applying
// migrations.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/datasprint/internal/identity/outbound/db"
	"github.com/shandysiswandi/datasprint/internal/identity/usecase"
	"github.com/shandysiswandi/datasprint/internal/migrations"
	"github.com/shandysiswandi/datasprint/internal/pkg/clock"
	"github.com/shandysiswandi/datasprint/internal/pkg/config"
	"github.com/shandysiswandi/datasprint/internal/pkg/instrument"
	"github.com/shandysiswandi/datasprint/internal/pkg/validator"
)

const usage = `usage: datasprint-admin [-config path] <command> [args]

commands:
  promote-admin <email>   grant the admin role to the team registered with email
  flush                   delete every non-admin registration and pending code
  migrate                 apply pending database migrations
`

func main() {
	path := flag.String("config", defaultConfigPath(), "path to config.yaml")
	yes := flag.Bool("yes", false, "skip the confirmation prompt of flush")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *path, *yes, flag.Args()); err != nil {
		slog.Error("command failed", "command", flag.Arg(0), "error", err)
		os.Exit(1)
	}
}

func defaultConfigPath() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return "./config/config.yaml"
}

func run(ctx context.Context, path string, yes bool, args []string) error {
	cfg, err := config.NewViper(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	defer cfg.Close()

	pool, err := pgxpool.New(ctx, cfg.GetString("database.url"))
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	switch args[0] {
	case "migrate":
		if err := migrations.Up(ctx, pool); err != nil {
			return err
		}
		slog.InfoContext(ctx, "migrations applied")
		return nil

	case "promote-admin":
		if len(args) != 2 {
			return fmt.Errorf("promote-admin expects exactly one email")
		}
		uc, err := newUsecase(cfg, pool)
		if err != nil {
			return err
		}
		return uc.PromoteAdmin(ctx, usecase.PromoteAdminInput{Email: args[1]})

	case "flush":
		if !yes && !confirm("This deletes every non-admin registration. Type 'flush' to continue: ", "flush") {
			return fmt.Errorf("aborted")
		}
		uc, err := newUsecase(cfg, pool)
		if err != nil {
			return err
		}
		res, err := uc.FlushAll(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("deleted %d users and %d registration codes\n", res.Users, res.RegistrationOTPs)
		return nil

	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func newUsecase(cfg config.Config, pool *pgxpool.Pool) (*usecase.Usecase, error) {
	v, err := validator.NewV10Validator()
	if err != nil {
		return nil, err
	}

	ins := instrument.NewNoop()

	return usecase.New(usecase.Dependency{
		RepoDB:     db.NewDB(pool, ins),
		Validator:  v,
		Config:     cfg,
		Clock:      clock.New(),
		Instrument: ins,
	}), nil
}

func confirm(prompt, want string) bool {
	fmt.Print(prompt)

	var got string
	if _, err := fmt.Scanln(&got); err != nil {
		return false
	}

	return got == want
}
