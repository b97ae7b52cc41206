package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestValidateGSTIN(t *testing.T) {
	tests := []struct {
		gstin   string
		wantErr bool
	}{
		{"27ABCDE1234F1Z5", false},
		{"29ADANI1234F1ZX", false},
		{"24XYZAB5678G2W1", false},
		{"27abcde1234f1z5", true},
		{"27ABCDE1234F1Z", true},
		{"99ABCDE1234F1Z5", true},
		{"00ABCDE1234F1Z5", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.gstin, func(t *testing.T) {
			err := ValidateGSTIN(tt.gstin)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateGSTIN(%q) error = %v, wantErr %v", tt.gstin, err, tt.wantErr)
			}
		})
	}
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "Invoice.pdf", SanitizeString(" Invoice\x00.pdf\n"))
	assert.Equal(t, "", SanitizeString("\t\r"))
}

func TestNewLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "server.log")
	logger, err := NewLogger(LoggerConfig{Level: "bogus", OutputPath: path, Format: "json"})
	require.NoError(t, err)

	logger.Info("Session opened", zap.String("session_id", "abc"))
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"Session opened"`)
	assert.Contains(t, string(data), `"session_id":"abc"`)
}

func TestNewLogger_Console(t *testing.T) {
	logger, err := NewLogger(LoggerConfig{Level: "debug", OutputPath: "stderr", Format: "console"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(-1))
}
