package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/garyjia/fintel-ai/internal/application/format"
	"github.com/garyjia/fintel-ai/internal/application/port"
	"github.com/garyjia/fintel-ai/internal/domain/entity"
	"github.com/garyjia/fintel-ai/internal/domain/event"
)

const maskedKey = "••••••••••••••••"

// SettingsService holds the organization settings and the HSN mapping table
type SettingsService struct {
	hsn       port.HSNRepository
	importer  port.HSNImporter
	publisher port.EventPublisher
	logger    Logger

	mu         sync.RWMutex
	settings   entity.Settings
	totalCodes int
}

// NewSettingsService starts from the fixture settings. totalCodes is the
// size of the full HSN code book shown on the badge.
func NewSettingsService(initial entity.Settings, totalCodes int, hsn port.HSNRepository, importer port.HSNImporter, publisher port.EventPublisher, logger Logger) *SettingsService {
	return &SettingsService{
		hsn:        hsn,
		importer:   importer,
		publisher:  publisher,
		logger:     orNop(logger),
		settings:   cloneSettings(initial),
		totalCodes: totalCodes,
	}
}

// Get returns a copy of the current settings
func (s *SettingsService) Get() entity.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSettings(s.settings)
}

// Save applies the update. Unknown API key names are rejected before anything changes.
// Keys are stored only in masked form.
func (s *SettingsService) Save(ctx context.Context, sessionID string, update entity.SettingsUpdate) (entity.Settings, error) {
	s.mu.Lock()
	index := make(map[string]int, len(s.settings.APIKeys))
	for i, k := range s.settings.APIKeys {
		index[k.Name] = i
	}
	names := make([]string, 0, len(update.APIKeys))
	for name := range update.APIKeys {
		if _, ok := index[name]; !ok {
			s.mu.Unlock()
			return entity.Settings{}, entity.NewValidationError("api_keys", fmt.Sprintf("unknown key %q", name))
		}
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if value := strings.TrimSpace(update.APIKeys[name]); value != "" {
			s.settings.APIKeys[index[name]].Masked = MaskKey(value)
		}
	}
	if update.Learning != nil {
		s.settings.Learning = *update.Learning
	}
	if update.Notifications != nil {
		s.settings.Notifications = *update.Notifications
	}
	saved := cloneSettings(s.settings)
	s.mu.Unlock()

	s.logger.Info("Settings saved", "session_id", sessionID, "api_keys", len(names))

	evt := event.NewEvent(event.TypeSettingsSaved, sessionID, "", map[string]interface{}{
		"api_keys": names,
	})
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Error("Failed to publish settings event", "error", err)
	}
	return saved, nil
}

// HSNCatalog returns the mapping table and the code book badge
func (s *SettingsService) HSNCatalog(ctx context.Context) (*entity.HSNCatalog, error) {
	mappings, err := s.hsn.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list HSN mappings", "error", err)
		return nil, err
	}

	s.mu.RLock()
	total := s.totalCodes
	s.mu.RUnlock()

	return &entity.HSNCatalog{
		TotalCodes: total,
		Badge:      format.FormatCount(total) + " HSN Codes",
		Mappings:   mappings,
	}, nil
}

// ImportHSN parses an uploaded mapping file and upserts its rows.
// It returns the number of rows read and the number of codes that were new.
func (s *SettingsService) ImportHSN(ctx context.Context, sessionID, name string, r io.Reader) (rows, added int, err error) {
	mappings, err := s.importer.ParseHSN(name, r)
	if err != nil {
		return 0, 0, err
	}

	added, err = s.hsn.Upsert(ctx, mappings)
	if err != nil {
		return 0, 0, err
	}

	s.mu.Lock()
	s.totalCodes += added
	s.mu.Unlock()

	s.logger.Info("HSN mappings imported",
		"session_id", sessionID,
		"file", name,
		"rows", len(mappings),
		"added", added)

	evt := event.NewEvent(event.TypeHSNImported, sessionID, "", map[string]interface{}{
		"file":  name,
		"rows":  len(mappings),
		"added": added,
	})
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Error("Failed to publish hsn event", "error", err)
	}
	return len(mappings), added, nil
}

// MaskKey hides all but the last four characters
func MaskKey(key string) string {
	n := utf8.RuneCountInString(key)
	if n <= 4 {
		return maskedKey
	}
	runes := []rune(key)
	return maskedKey[:len(maskedKey)-len("••••")] + string(runes[n-4:])
}

func cloneSettings(in entity.Settings) entity.Settings {
	out := in
	out.APIKeys = append([]entity.APIKey(nil), in.APIKeys...)
	out.LearningStats = append([]entity.Insight(nil), in.LearningStats...)
	return out
}
