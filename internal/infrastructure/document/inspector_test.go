package document

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/fintel-ai/internal/domain/entity"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func newTestInspector(pages int, err error) *Inspector {
	i := NewInspector(DefaultConfig(), zap.NewNop())
	i.countPages = func([]byte) (int, error) { return pages, err }
	return i
}

func TestInspector_PDF(t *testing.T) {
	i := newTestInspector(3, nil)

	meta, err := i.Inspect("invoice.PDF", []byte("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n1 0 obj\n"))
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", meta.ContentType)
	assert.Equal(t, 3, meta.Pages)
}

func TestInspector_Image(t *testing.T) {
	meta, err := newTestInspector(0, nil).Inspect("scan.png", pngHeader)
	require.NoError(t, err)
	assert.Equal(t, "image/png", meta.ContentType)
	assert.Zero(t, meta.Pages)
	assert.Equal(t, int64(len(pngHeader)), meta.SizeBytes)
}

func TestInspector_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content []byte
		pageErr error
	}{
		{name: "blank name", file: "  ", content: []byte("x")},
		{name: "extension", file: "notes.docx", content: []byte("x")},
		{name: "pdf with image body", file: "a.pdf", content: pngHeader},
		{name: "image with text body", file: "a.png", content: []byte("hello")},
		{name: "unreadable pdf", file: "a.pdf", content: []byte("%PDF-1.4\n"), pageErr: errors.New("broken xref")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestInspector(1, tt.pageErr).Inspect(tt.file, tt.content)
			require.Error(t, err)
			assert.True(t, entity.IsValidationError(err))
		})
	}
}

func TestInspector_Check(t *testing.T) {
	i := newTestInspector(0, nil)

	assert.NoError(t, i.Check(&entity.FileMeta{Name: "A.pdf", SizeBytes: 1024}))
	assert.NoError(t, i.Check(&entity.FileMeta{Name: "photo.JPEG"}))
	assert.Error(t, i.Check(&entity.FileMeta{Name: "big.pdf", SizeBytes: 21 << 20}))
	assert.Error(t, i.Check(&entity.FileMeta{Name: "a.pdf", SizeBytes: -1}))
	assert.Error(t, i.Check(&entity.FileMeta{Name: "archive.zip"}))
}
