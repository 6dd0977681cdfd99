package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"notif_organizer/migrations"
)

type command struct {
	help string
	run  func(ctx context.Context, db *sql.DB) error
}

var commands = map[string]command{
	"up":      {"migrate to the latest version", func(ctx context.Context, db *sql.DB) error { return goose.UpContext(ctx, db, migrations.Dir) }},
	"up-one":  {"migrate one version up", func(ctx context.Context, db *sql.DB) error { return goose.UpByOneContext(ctx, db, migrations.Dir) }},
	"down":    {"roll back one version", func(ctx context.Context, db *sql.DB) error { return goose.DownContext(ctx, db, migrations.Dir) }},
	"redo":    {"roll back and re-apply the latest version", func(ctx context.Context, db *sql.DB) error { return goose.RedoContext(ctx, db, migrations.Dir) }},
	"status":  {"show migration status", func(ctx context.Context, db *sql.DB) error { return goose.StatusContext(ctx, db, migrations.Dir) }},
	"version": {"show current version", func(ctx context.Context, db *sql.DB) error { return goose.VersionContext(ctx, db, migrations.Dir) }},
	"reset":   {"roll back all migrations (drops filter rules and the notification log)", func(ctx context.Context, db *sql.DB) error { return goose.ResetContext(ctx, db, migrations.Dir) }},
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: migrate [-db path] <command>")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Commands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %-10s %s\n", name, commands[name].help)
	}
}

func main() {
	dbPath := flag.String("db", envOrDefault("DATABASE_PATH", "./data/organizer.db"), "path to the organizer database")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(1)
	}
	name := flag.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		usage()
		log.Fatalf("unknown command: %s", name)
	}

	db, err := sql.Open("sqlite", *dbPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	if err := migrations.Setup(); err != nil {
		log.Fatalf("setup migrations: %v", err)
	}
	if err := cmd.run(context.Background(), db); err != nil {
		log.Fatalf("%s: %v", name, err)
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
