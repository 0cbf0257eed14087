package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
)

// EnvPrefix is prepended to flag names when reading environment variables,
// e.g. STATEMENT_ORGANIZER_OCR_LANGUAGES.
const EnvPrefix = "STATEMENT_ORGANIZER"

// Options are the command-line settings that are not part of Config.
type Options struct {
	Output    string
	LogLevel  string
	LogFormat string
	Version   bool
	Trace     bool
	Files     []string
}

// Parse builds a Config from defaults, an optional .env file, environment
// variables, an optional plain config file and the given arguments, in
// increasing order of precedence.
func Parse(fs *ff.FlagSet, args []string) (Config, Options, error) {
	// A missing .env is the normal case.
	_ = godotenv.Load()

	def := Default()
	var (
		ocrEngine   = fs.StringLong("ocr-engine", def.OCR.Engine, "OCR engine: tesseract or gemini")
		ocrLangs    = fs.StringLong("ocr-languages", strings.Join(def.OCR.Languages, "+"), "OCR languages recognized in one pass (e.g. chi_sim+eng+msa)")
		ocrDPI      = fs.IntLong("ocr-dpi", def.OCR.DPI, "Rasterization resolution for OCR")
		ocrPSM      = fs.IntLong("ocr-psm", def.OCR.PageSegMode, "Tesseract page segmentation mode (0 = engine default)")
		geminiKey   = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY)")
		geminiModel = fs.StringLong("gemini-model", def.OCR.GeminiModel, "Gemini model used for OCR")
		keywords    = fs.StringLong("indicator-keywords", strings.Join(def.Lexicon.IndicatorKeywords, ","), "Comma separated keywords marking a customer name line")
		separators  = fs.StringLong("separators", strings.Join(def.Lexicon.Separators, ","), "Comma separated separators between keyword and name")
		markers     = fs.StringLong("entity-markers", strings.Join(def.Lexicon.EntityMarkers, ","), "Comma separated corporate or lineage marker tokens")
		exclusions  = fs.StringLong("exclude", "", "Comma separated phrases whose transaction lines are dropped")
		lexicon     = fs.StringLong("lexicon", "", "YAML lexicon file overriding keyword, marker and exclusion lists")
		title       = fs.StringLong("title", def.Report.Title, "Report title")
		placeholder = fs.StringLong("empty-placeholder", def.Report.EmptyPlaceholder, "Paragraph written under an entity with no transactions")
		format      = fs.StringLong("format", def.Report.Format, "Report format: docx, csv or xlsx")
		listen      = fs.StringLong("listen", "", "Serve the HTTP upload API on this address instead of processing files")
		maxUpload   = fs.IntLong("max-upload-mb", def.Server.MaxUploadMB, "Maximum upload size in MB")
		rateLimit   = fs.IntLong("rate-limit", def.Server.RateLimitPerSecond, "Uploads accepted per second")
		rateBurst   = fs.IntLong("rate-burst", def.Server.RateLimitBurst, "Upload burst size")
		output      = fs.StringLong("output", "", "Output report path (defaults to the report filename)")
		logLevel    = fs.StringLong("log-level", "info", "Log level: debug, info, warn, error")
		logFormat   = fs.StringLong("log-format", "text", "Log format: text or json")
		trace       = fs.BoolLong("trace", "Print how each line was classified")
		version     = fs.BoolLong("version", "Print version and exit")
		_           = fs.StringLong("config", "", "Plain config file (flag value pairs)")
	)

	if err := ff.Parse(fs, args,
		ff.WithEnvVarPrefix(EnvPrefix),
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.PlainParser),
	); err != nil {
		return Config{}, Options{}, err
	}

	cfg := def
	cfg.OCR.Engine = strings.ToLower(*ocrEngine)
	cfg.OCR.Languages = SplitLanguages(*ocrLangs)
	cfg.OCR.DPI = *ocrDPI
	cfg.OCR.PageSegMode = *ocrPSM
	cfg.OCR.GeminiKey = *geminiKey
	if cfg.OCR.GeminiKey == "" {
		cfg.OCR.GeminiKey = os.Getenv("GEMINI_API_KEY")
	}
	cfg.OCR.GeminiModel = *geminiModel

	cfg.Lexicon.IndicatorKeywords = SplitList(*keywords)
	cfg.Lexicon.Separators = SplitList(*separators)
	cfg.Lexicon.EntityMarkers = SplitList(*markers)
	cfg.Lexicon.ExclusionPhrases = SplitList(*exclusions)
	if *lexicon != "" {
		lex, err := LoadLexicon(*lexicon, cfg.Lexicon)
		if err != nil {
			return Config{}, Options{}, err
		}
		cfg.Lexicon = lex
	}

	cfg.Report.Title = *title
	cfg.Report.EmptyPlaceholder = *placeholder
	cfg.Report.Format = strings.ToLower(*format)
	cfg.Report.Filename = ReportFilename(cfg.Report.Format)

	cfg.Server.Listen = *listen
	cfg.Server.MaxUploadMB = *maxUpload
	cfg.Server.RateLimitPerSecond = *rateLimit
	cfg.Server.RateLimitBurst = *rateBurst

	opts := Options{
		Output:    *output,
		LogLevel:  *logLevel,
		LogFormat: *logFormat,
		Version:   *version,
		Trace:     *trace,
		Files:     fs.GetArgs(),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, Options{}, err
	}
	return cfg, opts, nil
}

// ReportFilename returns the default download name for a report format.
func ReportFilename(format string) string {
	return "statement-report." + format
}

// NewLogger builds the process logger from the log options.
func NewLogger(level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}
}
