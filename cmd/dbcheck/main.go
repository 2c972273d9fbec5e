package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	dbmysql "github.com/ezewer/bfx-facs-db-mysql"
	"github.com/ezewer/bfx-facs-db-mysql/export"
	"github.com/joho/godotenv"
)

var version = "dev"

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "dbcheck %s\n\n", version)
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  dbcheck [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  MYSQL_HOST / MYSQL_PORT / MYSQL_USER / MYSQL_PASSWORD / MYSQL_DATABASE\n")
		fmt.Fprintf(os.Stderr, "  MYSQL_CONNECTION_LIMIT  Max concurrent physical connections (default 100)\n")
		fmt.Fprintf(os.Stderr, "  MYSQL_TIMEZONE          Fixed session offset (default +00:00)\n")
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  dbcheck\n")
		fmt.Fprintf(os.Stderr, "  dbcheck -exec \"UPDATE t SET n = n + 1 WHERE id = 1\"\n")
		fmt.Fprintf(os.Stderr, "  dbcheck -query \"SELECT * FROM t\" -format csv -out t.csv\n")
	}

	showVersion := flag.Bool("version", false, "Show version")
	execStmt := flag.String("exec", "", "Statement to run inside a transaction")
	query := flag.String("query", "", "SELECT to stream-export")
	format := flag.String("format", "csv", "Export format: csv, json, xlsx, pdf")
	out := flag.String("out", "", "Export output file (default stdout)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("dbcheck %s\n", version)
		os.Exit(0)
	}

	_ = godotenv.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	ctx := context.Background()
	fac := dbmysql.New(dbmysql.LoadConfig(), logger)

	if err := fac.Start(ctx); err != nil {
		slog.Error("Failed to start mysql facility", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := fac.Stop(ctx); err != nil {
			slog.Error("Failed to stop mysql facility", "error", err)
		}
	}()
	slog.Info("Connected to MySQL")

	if *execStmt != "" {
		err := fac.RunTransaction(ctx, func(ctx context.Context, tx *dbmysql.Tx) error {
			res, err := tx.Exec(ctx, *execStmt)
			if err != nil {
				return err
			}
			affected, _ := res.RowsAffected()
			slog.Info("Statement applied", "tx_id", tx.ID(), "rows_affected", affected)
			return nil
		})
		if err != nil {
			slog.Error("Transaction failed", "error", err)
			os.Exit(1)
		}
	}

	if *query != "" {
		if err := exportQuery(ctx, fac, *query, *format, *out); err != nil {
			slog.Error("Export failed", "error", err)
			os.Exit(1)
		}
	}
}

func exportQuery(ctx context.Context, fac *dbmysql.Facility, query, format, out string) error {
	if err := export.ValidateQuery(query); err != nil {
		return err
	}

	var w *os.File
	if out == "" {
		w = os.Stdout
	} else {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	stream, err := fac.StreamQuery(ctx, query)
	if err != nil {
		return err
	}
	defer stream.Close()

	enc := export.NewEncoder(format, w)
	rows, err := export.Export(stream, enc)
	if cerr := enc.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	slog.Info("Export completed", "rows", rows, "format", format, "out", out)
	return nil
}
