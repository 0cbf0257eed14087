package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/jimmysiah1111-glitch/loan-statement-analyzer/internal/api"
	"github.com/jimmysiah1111-glitch/loan-statement-analyzer/internal/config"
	"github.com/jimmysiah1111-glitch/loan-statement-analyzer/internal/extractor"
	"github.com/jimmysiah1111-glitch/loan-statement-analyzer/internal/models"
	"github.com/jimmysiah1111-glitch/loan-statement-analyzer/internal/ocr"
	"github.com/jimmysiah1111-glitch/loan-statement-analyzer/internal/organizer"
	"github.com/jimmysiah1111-glitch/loan-statement-analyzer/internal/parser"
	"github.com/jimmysiah1111-glitch/loan-statement-analyzer/internal/writer"
)

const version = "2.0.0"

const usage = `Statement organizer
Groups the transaction lines of PDF and DOCX bank statements by customer
and writes them to a single report.

Usage:
  statement-organizer [flags] <statement.pdf|statement.docx> [...]
  statement-organizer --listen=:8080

Examples:
  statement-organizer jan.pdf feb.pdf
  statement-organizer --format=xlsx --output=customers.xlsx jan.pdf
  statement-organizer --ocr-languages=chi_sim+eng --exclude="cash deposit" scan.pdf
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := ff.NewFlagSet("statement-organizer")
	cfg, opts, err := config.Parse(fs, args)
	if errors.Is(err, ff.ErrHelp) {
		fmt.Fprintf(os.Stderr, "%s\n%s\n", usage, ffhelp.Flags(fs))
		return nil
	}
	if err != nil {
		return err
	}
	if opts.Version {
		fmt.Printf("statement-organizer v%s\n", version)
		return nil
	}
	if cfg.Server.Listen == "" && len(opts.Files) == 0 {
		fmt.Fprintf(os.Stderr, "%s\n%s\n", usage, ffhelp.Flags(fs))
		return nil
	}

	logger, err := config.NewLogger(opts.LogLevel, opts.LogFormat)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	engine, err := extractor.NewEngine(ctx, cfg.OCR)
	if err != nil {
		return fmt.Errorf("OCR engine: %w", err)
	}
	if c, ok := engine.(ocr.Closer); ok {
		defer c.Close()
	}
	cls, err := parser.New(cfg.Lexicon)
	if err != nil {
		return fmt.Errorf("lexicon: %w", err)
	}
	ext := extractor.New(cfg.OCR, engine, extractor.WithLogger(logger))
	org := organizer.New(ext, cls, logger, organizer.WithTrace(opts.Trace))

	if cfg.Server.Listen != "" {
		return serve(ctx, cfg, org, logger)
	}
	return organizeFiles(ctx, cfg, opts, org)
}

func serve(ctx context.Context, cfg config.Config, org *organizer.Organizer, logger *slog.Logger) error {
	app := api.New(cfg, org, logger).NewApp()

	go func() {
		<-ctx.Done()
		_ = app.Shutdown()
	}()

	logger.Info("listening", "addr", cfg.Server.Listen, "engine", cfg.OCR.Engine)
	return app.Listen(cfg.Server.Listen)
}

func organizeFiles(ctx context.Context, cfg config.Config, opts config.Options, org *organizer.Organizer) error {
	docs := make([]models.Document, 0, len(opts.Files))
	for _, path := range opts.Files {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("input file: %w", err)
		}
		doc, err := models.NewDocument(filepath.Base(path), data)
		if err != nil {
			// Reported as a warning alongside the other documents.
			doc = models.Document{Name: filepath.Base(path), Data: data}
		}
		docs = append(docs, doc)
	}

	fmt.Printf("Processing %d document(s)\n", len(docs))
	res := org.Process(ctx, docs)
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, d := range res.Documents {
		fmt.Printf("  %s: %d page(s), %d customer(s), %d transaction line(s)\n",
			d.Name, len(d.Pages), d.Entities, d.Transactions)
		if opts.Trace {
			for _, t := range d.Trace {
				fmt.Printf("    %4d %-9s %-13s %-20q %s\n", t.LineNum, t.Class, t.Rule, t.Entity, t.Text)
			}
		}
	}
	for _, w := range res.Warnings {
		fmt.Printf("  Warning: %s\n", w)
	}

	if !res.Reportable() {
		return fmt.Errorf("no report written: %w", models.ErrEmptyExtraction)
	}

	out := opts.Output
	if out == "" {
		out = cfg.Report.Filename
	}
	w, _, err := writer.ForFormat(cfg.Report.Format, cfg.Report)
	if err != nil {
		return err
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	if err := w.Write(f, res.Grouping); err != nil {
		f.Close()
		os.Remove(out)
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Printf("Done, %d customers recognized (%d transaction lines, %d OCR page(s))\n",
		res.Summary.Entities, res.Summary.Transactions, res.Summary.OCRPages)
	fmt.Printf("Output: %s\n", out)
	return nil
}
