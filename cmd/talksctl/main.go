package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	impl "talks/internal/service/impl"
	"talks/internal/store"

	"github.com/joho/godotenv"
)

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	_ = godotenv.Load()

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "reset":
		err = runReset(args)
	case "sweep":
		err = runSweep(args)
	case "migrate":
		err = runMigrate(args)
	default:
		usage()
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options]\n", os.Args[0])
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  reset      Delete every user and message (requires -yes)")
	fmt.Fprintln(os.Stderr, "  sweep      Purge unverified signups whose code expired")
	fmt.Fprintln(os.Stderr, "  migrate    Apply the SQL migrations")
	os.Exit(2)
}

type commonOpts struct {
	dsn     string
	timeout time.Duration
}

func newFlagSet(name string, opts *commonOpts) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&opts.dsn, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
	fs.DurationVar(&opts.timeout, "timeout", 30*time.Second, "overall command timeout")
	return fs
}

func parse(fs *flag.FlagSet, opts *commonOpts, args []string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	if opts.dsn == "" {
		return errors.New("database url is required (-database-url or DATABASE_URL)")
	}
	return nil
}

func open(opts commonOpts) (*store.Store, context.Context, context.CancelFunc, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	st, err := store.Open(ctx, store.Config{DSN: opts.dsn, PingTimeout: 5 * time.Second})
	if err != nil {
		cancel()
		return nil, nil, nil, err
	}
	return st, ctx, cancel, nil
}

func runReset(args []string) error {
	var opts commonOpts
	fs := newFlagSet("reset", &opts)
	yes := fs.Bool("yes", false, "confirm deletion of all data")
	if err := parse(fs, &opts, args); err != nil {
		return err
	}
	if !*yes {
		return errors.New("refusing to reset without -yes")
	}

	st, ctx, cancel, err := open(opts)
	if err != nil {
		return err
	}
	defer cancel()
	defer func() { _ = st.Close() }()

	deleted, err := st.Reset(ctx)
	if err != nil {
		return err
	}
	return printJSON(map[string]any{"deleted": deleted})
}

func runSweep(args []string) error {
	var opts commonOpts
	fs := newFlagSet("sweep", &opts)
	if err := parse(fs, &opts, args); err != nil {
		return err
	}

	st, ctx, cancel, err := open(opts)
	if err != nil {
		return err
	}
	defer cancel()
	defer func() { _ = st.Close() }()

	n, err := impl.NewSweeper(st, 0).SweepOnce(ctx)
	if err != nil {
		return err
	}
	return printJSON(map[string]any{"purged": n})
}

func runMigrate(args []string) error {
	var opts commonOpts
	fs := newFlagSet("migrate", &opts)
	if err := parse(fs, &opts, args); err != nil {
		return err
	}

	st, ctx, cancel, err := open(opts)
	if err != nil {
		return err
	}
	defer cancel()
	defer func() { _ = st.Close() }()

	if err := st.Migrate(ctx); err != nil {
		return err
	}
	return printJSON(map[string]any{"migrated": true})
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
