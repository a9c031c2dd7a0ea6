package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"schoolportal/internal/account"
	"schoolportal/internal/config"
	"schoolportal/internal/logger"
	"schoolportal/internal/seed"
	"schoolportal/internal/session"
	"schoolportal/internal/store"
)

const usage = `usage: admin <command> [flags]

commands:
  migrate          apply pending schema migrations
  seed             load the sample school into empty tables
  create-teacher   add a teacher account
  purge-sessions   delete expired student sessions
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	cfg := config.Load()
	log := logger.WithComponent(logger.New(cfg.LogLevel, cfg.Env), "admin")
	defer func() { _ = log.Sync() }()

	if err := run(context.Background(), cfg, log, os.Args[1], os.Args[2:]); err != nil {
		log.Error("command failed", zap.String("command", os.Args[1]), zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.App, log *zap.Logger, cmd string, args []string) error {
	switch cmd {
	case "migrate", "seed", "create-teacher", "purge-sessions":
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}

	db, err := store.NewDB(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	switch cmd {
	case "migrate":
		if err := db.Migrate(ctx); err != nil {
			return err
		}
		version, dirty, err := db.Version()
		if err != nil {
			return err
		}
		log.Info("schema migrated", zap.String("driver", db.Driver), zap.Uint("version", version), zap.Bool("dirty", dirty))

	case "seed":
		if err := db.Migrate(ctx); err != nil {
			return err
		}
		rep, err := seed.New(db.Client, cfg.Location(), nil, log).Run(ctx)
		if err != nil {
			return err
		}
		log.Info("seed complete",
			zap.Int("students", rep.Students),
			zap.Int("teachers", rep.Teachers),
			zap.Int("subjects", rep.Subjects),
			zap.Int("marks", rep.Marks),
			zap.Int("attendance", rep.Attendance),
		)

	case "create-teacher":
		fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
		name := fs.String("name", "", "full name")
		email := fs.String("email", "", "login email")
		pw := fs.String("password", "", "password")
		dept := fs.String("department", "", "department")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *name == "" || *email == "" || *pw == "" || *dept == "" {
			fs.Usage()
			return errors.New("name, email, password and department are required")
		}
		t, err := account.NewRegistry(db.Client, nil).CreateTeacher(ctx, *name, *email, *pw, *dept)
		if err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return fmt.Errorf("a teacher with email %s already exists", *email)
			}
			return err
		}
		log.Info("teacher created", zap.Int64("id", t.ID), zap.String("email", t.Email))

	case "purge-sessions":
		n, err := session.NewStore(db.Client, cfg.SessionTTL, time.Now).PurgeExpired(ctx)
		if err != nil {
			return err
		}
		log.Info("expired sessions purged", zap.Int64("rows", n))
	}
	return nil
}
