// Package config holds the externally settable knobs of the statement
// organizer: OCR settings, the line-classification lexicon, report text and
// the HTTP surface.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	OCR     OCR
	Lexicon Lexicon
	Report  Report
	Server  Server
}

// OCR configures the fallback recognition engine.
type OCR struct {
	Engine      string   // "tesseract" or "gemini"
	Languages   []string // recognized in a single pass
	DPI         int
	PageSegMode int // tesseract page segmentation mode, 0 keeps the engine default
	GeminiKey   string
	GeminiModel string
}

// Lexicon is the locale-specific data driving line classification.
type Lexicon struct {
	IndicatorKeywords []string `yaml:"indicator_keywords"`
	Separators        []string `yaml:"separators"`
	EntityMarkers     []string `yaml:"entity_markers"`
	ExclusionPhrases  []string `yaml:"exclusion_phrases"`
	// NamePunctuation lists the non-letter characters allowed in a bare name line.
	NamePunctuation string `yaml:"name_punctuation"`
}

// Report configures the rendered document.
type Report struct {
	Title            string
	EmptyPlaceholder string
	Filename         string
	Format           string // docx, csv or xlsx
}

// Server configures the HTTP upload surface.
type Server struct {
	Listen             string
	MaxUploadMB        int
	RateLimitPerSecond int
	RateLimitBurst     int
}

const (
	EngineTesseract = "tesseract"
	EngineGemini    = "gemini"

	MinDPI = 72
	MaxDPI = 1200
)

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		OCR: OCR{
			Engine:      EngineTesseract,
			Languages:   []string{"chi_sim", "eng", "msa"},
			DPI:         300,
			PageSegMode: 4,
			GeminiModel: "gemini-2.5-flash",
		},
		Lexicon: DefaultLexicon(),
		Report: Report{
			Title:            "Transaction Organization Report",
			EmptyPlaceholder: "No transactions",
			Filename:         "statement-report.docx",
			Format:           "docx",
		},
		Server: Server{
			Listen:             "",
			MaxUploadMB:        32,
			RateLimitPerSecond: 2,
			RateLimitBurst:     4,
		},
	}
}

// DefaultLexicon returns the English/Malay/Chinese lexicon.
func DefaultLexicon() Lexicon {
	return Lexicon{
		IndicatorKeywords: []string{"customer", "account name", "name", "客户", "名称", "户名"},
		Separators:        []string{":", "："},
		EntityMarkers: []string{
			"SDN BHD", "BHD", "BERHAD", "LTD", "LIMITED", "PLC", "LLC", "INC", "CORP",
			"ENTERPRISE", "TRADING", "A/L", "A/P", "BIN", "BINTI", "有限公司", "公司",
		},
		NamePunctuation: "&.'()",
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	var errs []error
	switch c.OCR.Engine {
	case EngineTesseract:
	case EngineGemini:
		if c.OCR.GeminiKey == "" {
			errs = append(errs, errors.New("gemini OCR engine requires an API key"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown OCR engine %q", c.OCR.Engine))
	}
	if len(c.OCR.Languages) == 0 {
		errs = append(errs, errors.New("at least one OCR language is required"))
	}
	if c.OCR.DPI < MinDPI || c.OCR.DPI > MaxDPI {
		errs = append(errs, fmt.Errorf("OCR DPI %d outside %d..%d", c.OCR.DPI, MinDPI, MaxDPI))
	}
	switch c.Report.Format {
	case "docx", "csv", "xlsx":
	default:
		errs = append(errs, fmt.Errorf("unknown report format %q", c.Report.Format))
	}
	if len(c.Lexicon.IndicatorKeywords) > 0 && len(c.Lexicon.Separators) == 0 {
		errs = append(errs, errors.New("indicator keywords need at least one separator"))
	}
	return errors.Join(errs...)
}

// LoadLexicon reads a YAML lexicon file. Lists present in the file replace the
// corresponding lists in base; absent lists keep base's values.
func LoadLexicon(path string, base Lexicon) (Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("reading lexicon %q: %w", path, err)
	}
	return ParseLexicon(data, base)
}

// ParseLexicon decodes YAML lexicon data over base.
func ParseLexicon(data []byte, base Lexicon) (Lexicon, error) {
	var file struct {
		IndicatorKeywords *[]string `yaml:"indicator_keywords"`
		Separators        *[]string `yaml:"separators"`
		EntityMarkers     *[]string `yaml:"entity_markers"`
		ExclusionPhrases  *[]string `yaml:"exclusion_phrases"`
		NamePunctuation   *string   `yaml:"name_punctuation"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return base, fmt.Errorf("parsing lexicon: %w", err)
	}

	lex := base
	if file.IndicatorKeywords != nil {
		lex.IndicatorKeywords = cleanList(*file.IndicatorKeywords)
	}
	if file.Separators != nil {
		lex.Separators = cleanList(*file.Separators)
	}
	if file.EntityMarkers != nil {
		lex.EntityMarkers = cleanList(*file.EntityMarkers)
	}
	if file.ExclusionPhrases != nil {
		lex.ExclusionPhrases = cleanList(*file.ExclusionPhrases)
	}
	if file.NamePunctuation != nil {
		lex.NamePunctuation = *file.NamePunctuation
	}
	return lex, nil
}

// SplitList splits a comma separated flag value, dropping blanks.
func SplitList(s string) []string {
	return cleanList(strings.Split(s, ","))
}

// SplitLanguages splits an OCR language value. Both the tesseract form
// "chi_sim+eng" and "chi_sim,eng" are accepted.
func SplitLanguages(s string) []string {
	return cleanList(strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '+'
	}))
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
