// Package api exposes the statement organizer over HTTP.
package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/jimmysiah1111-glitch/loan-statement-analyzer/internal/config"
	"github.com/jimmysiah1111-glitch/loan-statement-analyzer/internal/metrics"
	"github.com/jimmysiah1111-glitch/loan-statement-analyzer/internal/models"
	"github.com/jimmysiah1111-glitch/loan-statement-analyzer/internal/organizer"
	"github.com/jimmysiah1111-glitch/loan-statement-analyzer/internal/writer"
)

const version = "2.0.0"

// OrganizeResponse is the JSON body of /api/organize?format=json.
type OrganizeResponse struct {
	Success   bool                       `json:"success"`
	Error     string                     `json:"error,omitempty"`
	Result    *models.Grouping           `json:"result,omitempty"`
	Documents []organizer.DocumentResult `json:"documents,omitempty"`
	Warnings  []models.Warning           `json:"warnings,omitempty"`
	Summary   *models.Summary            `json:"summary,omitempty"`
	Message   string                     `json:"message,omitempty"`
}

// Handler serves the upload API.
type Handler struct {
	cfg     config.Config
	org     *organizer.Organizer
	logger  *slog.Logger
	limiter *rate.Limiter
}

// New creates a Handler. A non-positive rate limit disables limiting.
func New(cfg config.Config, org *organizer.Organizer, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{cfg: cfg, org: org, logger: logger}
	if cfg.Server.RateLimitPerSecond > 0 {
		burst := cfg.Server.RateLimitBurst
		if burst < 1 {
			burst = 1
		}
		h.limiter = rate.NewLimiter(rate.Limit(cfg.Server.RateLimitPerSecond), burst)
	}
	return h
}

// NewApp returns a fiber app with the handler's routes and body limit.
func (h *Handler) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "statement-organizer",
		BodyLimit:             h.cfg.Server.MaxUploadMB << 20,
		DisableStartupMessage: true,
	})
	h.Register(app)
	return app
}

// Register mounts the routes on app.
func (h *Handler) Register(app *fiber.App) {
	app.Use(h.requestID)
	app.Get("/api/health", h.HandleHealth)
	app.Post("/api/organize", h.rateLimit, h.HandleOrganize)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
}

func (h *Handler) requestID(c *fiber.Ctx) error {
	id := c.Get(fiber.HeaderXRequestID)
	if id == "" {
		id = uuid.NewString()
	}
	c.Set(fiber.HeaderXRequestID, id)
	c.Locals("logger", h.logger.With("request_id", id))

	err := c.Next()
	status := c.Response().StatusCode()
	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
	}
	metrics.Requests.WithLabelValues(c.Route().Path, strconv.Itoa(status)).Inc()
	return err
}

func (h *Handler) rateLimit(c *fiber.Ctx) error {
	if h.limiter != nil && !h.limiter.Allow() {
		return writeError(c, fiber.StatusTooManyRequests, "too many uploads, try again shortly")
	}
	return c.Next()
}

func (h *Handler) log(c *fiber.Ctx) *slog.Logger {
	if l, ok := c.Locals("logger").(*slog.Logger); ok {
		return l
	}
	return h.logger
}

// HandleHealth returns a simple health check response.
func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"version": version,
		"engine":  h.cfg.OCR.Engine,
	})
}

// HandleOrganize accepts one or more statements in the multipart field
// "file" and returns the grouped report. The report format follows the
// "format" query parameter, or the configured format when absent; "json"
// returns the grouping and diagnostics instead of a file.
func (h *Handler) HandleOrganize(c *fiber.Ctx) error {
	logger := h.log(c)

	format := c.Query("format", h.cfg.Report.Format)
	if format == "" {
		format = "docx"
	}
	var (
		w    writer.Writer
		mime string
	)
	if format != "json" {
		var err error
		w, mime, err = writer.ForFormat(format, h.cfg.Report)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, err.Error())
		}
	}

	form, err := c.MultipartForm()
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, fmt.Sprintf("failed to parse form: %v", err))
	}
	files := form.File["file"]
	if len(files) == 0 {
		return writeError(c, fiber.StatusBadRequest, "no file uploaded, use form field 'file'")
	}

	docs := make([]models.Document, 0, len(files))
	for _, fh := range files {
		data, err := readPart(fh)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, fmt.Sprintf("reading %s: %v", fh.Filename, err))
		}
		// Unknown kinds are passed on and reported as a warning.
		doc, err := models.NewDocument(fh.Filename, data)
		if err != nil {
			doc = models.Document{Name: fh.Filename, Data: data}
		}
		docs = append(docs, doc)
	}
	logger.Info("organizing upload", "documents", len(docs))

	res := h.org.Process(c.UserContext(), docs)

	if format == "json" {
		status := fiber.StatusOK
		resp := OrganizeResponse{
			Success:   res.Reportable(),
			Result:    res.Grouping,
			Documents: res.Documents,
			Warnings:  res.Warnings,
			Summary:   &res.Summary,
			Message:   summaryMessage(res.Summary),
		}
		if !res.Reportable() {
			status = fiber.StatusUnprocessableEntity
			resp.Error = models.ErrEmptyExtraction.Error()
		}
		return c.Status(status).JSON(resp)
	}

	if !res.Reportable() {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(OrganizeResponse{
			Success:  false,
			Error:    models.ErrEmptyExtraction.Error(),
			Warnings: res.Warnings,
		})
	}

	var buf bytes.Buffer
	if err := w.Write(&buf, res.Grouping); err != nil {
		logger.Error("rendering report", "error", err)
		return writeError(c, fiber.StatusInternalServerError, err.Error())
	}
	c.Set("X-Statement-Warnings", strconv.Itoa(len(res.Warnings)))
	c.Attachment(config.ReportFilename(format))
	c.Set(fiber.HeaderContentType, mime)
	return c.Send(buf.Bytes())
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func summaryMessage(s models.Summary) string {
	return fmt.Sprintf("%d customers recognized", s.Entities)
}

func writeError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(OrganizeResponse{
		Success: false,
		Error:   msg,
	})
}
