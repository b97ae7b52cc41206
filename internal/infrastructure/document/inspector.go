// Package document checks uploaded invoice files before they enter the job pipeline.
package document

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"

	"github.com/garyjia/fintel-ai/internal/application/port"
	"github.com/garyjia/fintel-ai/internal/domain/entity"
)

// Config bounds what the inspector accepts
type Config struct {
	MaxSizeBytes      int64    `mapstructure:"max_size_bytes"`
	AllowedExtensions []string `mapstructure:"allowed_extensions"`
}

// DefaultConfig accepts PDFs and images up to 20MB
func DefaultConfig() Config {
	return Config{
		MaxSizeBytes:      20 << 20,
		AllowedExtensions: []string{".pdf", ".png", ".jpg", ".jpeg"},
	}
}

// Inspector implements port.DocumentInspector. Only metadata is read; no OCR.
type Inspector struct {
	cfg        Config
	countPages func(content []byte) (int, error)
	logger     *zap.Logger
}

// NewInspector creates an inspector counting PDF pages with MuPDF
func NewInspector(cfg Config, logger *zap.Logger) *Inspector {
	return &Inspector{
		cfg:        cfg,
		countPages: fitzPageCount,
		logger:     logger,
	}
}

// Inspect checks name and size, detects the content type and counts PDF pages
func (i *Inspector) Inspect(name string, content []byte) (*entity.FileMeta, error) {
	meta := &entity.FileMeta{
		Name:      strings.TrimSpace(name),
		SizeBytes: int64(len(content)),
	}
	if err := i.Check(meta); err != nil {
		return nil, err
	}
	if len(content) == 0 {
		return meta, nil
	}

	mime := mimetype.Detect(content)
	meta.ContentType = mime.String()

	ext := strings.ToLower(filepath.Ext(meta.Name))
	if ext == ".pdf" {
		if !mime.Is("application/pdf") {
			return nil, entity.NewValidationError("file",
				fmt.Sprintf("%s is not a PDF document (detected %s)", meta.Name, mime.String()))
		}
		pages, err := i.countPages(content)
		if err != nil {
			i.logger.Warn("Failed to read PDF",
				zap.String("name", meta.Name),
				zap.Error(err))
			return nil, entity.NewValidationError("file", fmt.Sprintf("%s could not be opened as PDF", meta.Name))
		}
		meta.Pages = pages
	} else if !strings.HasPrefix(meta.ContentType, "image/") {
		return nil, entity.NewValidationError("file",
			fmt.Sprintf("%s is not an image (detected %s)", meta.Name, mime.String()))
	}

	i.logger.Debug("Inspected upload",
		zap.String("name", meta.Name),
		zap.String("content_type", meta.ContentType),
		zap.Int64("size", meta.SizeBytes),
		zap.Int("pages", meta.Pages))
	return meta, nil
}

// Check validates metadata alone, for submissions that carry no file body
func (i *Inspector) Check(meta *entity.FileMeta) error {
	if strings.TrimSpace(meta.Name) == "" {
		return entity.NewValidationError("name", "is required")
	}

	ext := strings.ToLower(filepath.Ext(meta.Name))
	allowed := false
	for _, a := range i.cfg.AllowedExtensions {
		if strings.EqualFold(a, ext) {
			allowed = true
			break
		}
	}
	if !allowed {
		return entity.NewValidationError("file",
			fmt.Sprintf("%s: unsupported type, expected one of %s", meta.Name, strings.Join(i.cfg.AllowedExtensions, ", ")))
	}

	if meta.SizeBytes < 0 {
		return entity.NewValidationError("size", fmt.Sprintf("%s: negative size", meta.Name))
	}
	if i.cfg.MaxSizeBytes > 0 && meta.SizeBytes > i.cfg.MaxSizeBytes {
		return entity.NewValidationError("size",
			fmt.Sprintf("%s exceeds the %dMB limit", meta.Name, i.cfg.MaxSizeBytes>>20))
	}
	return nil
}

func fitzPageCount(content []byte) (int, error) {
	doc, err := fitz.NewFromMemory(content)
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()
	return doc.NumPage(), nil
}

var _ port.DocumentInspector = (*Inspector)(nil)
