package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/fintel-ai/internal/application/port"
	"github.com/garyjia/fintel-ai/internal/domain/entity"
)

// HSNImporter implements port.HSNImporter for .csv and .xlsx uploads.
// Columns are code, description, rate and an optional updated-on date.
// A first row whose rate column is not a number is treated as a header.
type HSNImporter struct {
	logger *zap.Logger
}

// NewHSNImporter creates a new HSN importer
func NewHSNImporter(logger *zap.Logger) *HSNImporter {
	return &HSNImporter{logger: logger}
}

// ParseHSN reads and validates every row. Any bad row rejects the whole file.
func (h *HSNImporter) ParseHSN(name string, r io.Reader) ([]entity.HSNMapping, error) {
	var (
		records [][]string
		err     error
	)

	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".csv":
		records, err = readCSV(r)
	case ".xlsx":
		records, err = readXLSX(r)
	default:
		return nil, entity.NewValidationError("file", fmt.Sprintf("unsupported HSN file type %q", ext))
	}
	if err != nil {
		return nil, err
	}

	mappings, err := toMappings(records)
	if err != nil {
		return nil, err
	}

	h.logger.Info("Parsed HSN file",
		zap.String("name", name),
		zap.Int("rows", len(mappings)))
	return mappings, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			return nil, entity.NewValidationError("file", parseErr.Error())
		}
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	return records, nil
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, entity.NewValidationError("file", fmt.Sprintf("not a readable workbook: %v", err))
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, entity.NewValidationError("file", "workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

func toMappings(records [][]string) ([]entity.HSNMapping, error) {
	mappings := []entity.HSNMapping{}
	for i, rec := range records {
		line := i + 1
		if isBlank(rec) {
			continue
		}
		if len(rec) < 3 {
			return nil, entity.NewValidationError("file",
				fmt.Sprintf("line %d: expected code, description and rate", line))
		}

		rateText := strings.TrimSuffix(strings.TrimSpace(rec[2]), "%")
		rate, err := strconv.Atoi(rateText)
		if err != nil {
			if i == 0 {
				continue
			}
			return nil, entity.NewValidationError("rate",
				fmt.Sprintf("line %d: %q is not a number", line, rec[2]))
		}

		m := entity.HSNMapping{
			Code:        strings.TrimSpace(rec[0]),
			Description: strings.TrimSpace(rec[1]),
			Rate:        rate,
		}
		if len(rec) > 3 {
			m.UpdatedOn = strings.TrimSpace(rec[3])
		}
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		mappings = append(mappings, m)
	}

	if len(mappings) == 0 {
		return nil, entity.NewValidationError("file", "no HSN mappings found")
	}
	return mappings, nil
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

var _ port.HSNImporter = (*HSNImporter)(nil)
