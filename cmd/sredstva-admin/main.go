package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/erazemk/sredstva/internal/bootstrap"
	"github.com/erazemk/sredstva/internal/db"
	"github.com/erazemk/sredstva/internal/report"
)

const usage = "Usage: sredstva-admin <init|export|version> [flags]"

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "init":
		err = cmdInit(os.Args[2:])
	case "export":
		err = cmdExport(os.Args[2:])
	case "version":
		err = cmdVersion(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n%s\n", os.Args[1], usage)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func cmdInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	dbPath := fs.String("db", "sredstva.sqlite3", "path to SQLite database file")
	adminUser := fs.String("user", "Admin", "admin username")
	fs.Parse(args)

	if _, err := os.Stat(*dbPath); err == nil {
		return fmt.Errorf("database file %s already exists", *dbPath)
	}

	database, password, err := bootstrap.InitDatabase(context.Background(), *dbPath, *adminUser)
	if err != nil {
		return err
	}
	database.Close()

	bootstrap.PrintInitResult(os.Stdout, *dbPath, *adminUser, password)
	return nil
}

func cmdExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	dbPath := fs.String("db", "sredstva.sqlite3", "path to SQLite database file")
	out := fs.String("o", "", "output file (default: stock_<timestamp>.xlsx)")
	fs.Parse(args)

	if *out == "" {
		*out = fmt.Sprintf("stock_%s.xlsx", time.Now().Format("20060102_150405"))
	}

	database, err := openExisting(*dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	if err := report.WriteStock(context.Background(), database, f); err != nil {
		f.Close()
		os.Remove(*out)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing output file: %w", err)
	}

	fmt.Printf("Stock report written to %s\n", *out)
	return nil
}

func cmdVersion(args []string) error {
	fs := flag.NewFlagSet("version", flag.ExitOnError)
	dbPath := fs.String("db", "sredstva.sqlite3", "path to SQLite database file")
	fs.Parse(args)

	database, err := openExisting(*dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	version, err := db.Version(context.Background(), database)
	if err != nil {
		return err
	}
	fmt.Printf("Schema version: %d\n", version)
	return nil
}

// openExisting opens a database that must already exist and be migrated, so
// that a typo in -db does not create an empty file.
func openExisting(path string) (*sql.DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("database file %s: %w", path, err)
	}
	database, err := db.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Migrate(context.Background(), database); err != nil {
		database.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return database, nil
}
