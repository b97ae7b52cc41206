package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/fintel-ai/internal/config"
	"github.com/garyjia/fintel-ai/internal/container"
	"github.com/garyjia/fintel-ai/internal/domain/entity"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)

	c, err := container.NewContainer(cfg, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, c.Start(context.Background()))
	t.Cleanup(func() { _ = c.Close(context.Background()) })

	svc := c.Services()
	deps := Deps{
		Sessions:      svc.Sessions,
		Notifications: svc.Notifications,
		Dashboard:     svc.Dashboard,
		Explorer:      svc.Explorer,
		Anomaly:       svc.Anomaly,
		Vendor:        svc.Vendor,
		Report:        svc.Report,
		Settings:      svc.Settings,
		Inspector:     c.External().Inspector,
		Dispatcher:    c.Dispatcher(),
		Health: func(ctx context.Context) (bool, interface{}) {
			h := c.Health(ctx)
			return h.Overall, h.Components
		},
	}

	srvCfg := DefaultServerConfig()
	srvCfg.Mode = gin.TestMode
	return NewServer(srvCfg, deps, zap.NewNop())
}

type result struct {
	code      int
	sessionID string
	header    http.Header
	body      Response
	raw       []byte
}

func do(t *testing.T, s *Server, method, path, sessionID string, body []byte, contentType string) result {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if sessionID != "" {
		req.Header.Set(HeaderSessionID, sessionID)
	}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	res := result{code: w.Code, sessionID: w.Header().Get(HeaderSessionID), header: w.Header(), raw: w.Body.Bytes()}
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res.body), w.Body.String())
	}
	return res
}

func doJSON(t *testing.T, s *Server, method, path, sessionID string, payload interface{}) result {
	t.Helper()
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		require.NoError(t, err)
	}
	return do(t, s, method, path, sessionID, body, "application/json")
}

// data re-decodes the envelope's data field into out
func data(t *testing.T, r result, out interface{}) {
	t.Helper()
	raw, err := json.Marshal(r.body.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}

func toasts(t *testing.T, s *Server, sessionID string) []string {
	t.Helper()
	r := doJSON(t, s, http.MethodGet, "/api/v1/notifications", sessionID, nil)
	require.Equal(t, http.StatusOK, r.code)
	var list []struct {
		Message string `json:"message"`
	}
	data(t, r, &list)
	out := make([]string, 0, len(list))
	for _, n := range list {
		out = append(out, n.Message)
	}
	return out
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)
	r := doJSON(t, s, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, r.code)
	assert.True(t, r.body.Success)
	assert.Empty(t, r.sessionID, "health is not session scoped")
	assert.NotEmpty(t, r.header.Get(HeaderRequestID))
}

func TestSessionHeader(t *testing.T) {
	s := newTestServer(t)

	first := doJSON(t, s, http.MethodGet, "/api/v1/uploads", "", nil)
	require.Equal(t, http.StatusOK, first.code)
	require.NotEmpty(t, first.sessionID)

	again := doJSON(t, s, http.MethodGet, "/api/v1/uploads", first.sessionID, nil)
	assert.Equal(t, first.sessionID, again.sessionID)

	bogus := doJSON(t, s, http.MethodGet, "/api/v1/uploads", "not-a-uuid", nil)
	assert.NotEqual(t, "not-a-uuid", bogus.sessionID)
	assert.NotEqual(t, first.sessionID, bogus.sessionID)
}

func TestReadOnlyViews(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		path string
		code int
	}{
		{"/api/v1/routes", http.StatusOK},
		{"/api/v1/dashboard", http.StatusOK},
		{"/api/v1/invoices", http.StatusOK},
		{"/api/v1/invoices?status=warning", http.StatusOK},
		{"/api/v1/invoices?status=bogus", http.StatusBadRequest},
		{"/api/v1/invoices/INV-23109", http.StatusOK},
		{"/api/v1/invoices/INV-00000", http.StatusNotFound},
		{"/api/v1/anomalies", http.StatusOK},
		{"/api/v1/anomalies?type=bogus", http.StatusBadRequest},
		{"/api/v1/anomalies/stats", http.StatusOK},
		{"/api/v1/anomalies/risky-vendors", http.StatusOK},
		{"/api/v1/vendors", http.StatusOK},
		{"/api/v1/vendors/summary", http.StatusOK},
		{"/api/v1/vendors/distribution", http.StatusOK},
		{"/api/v1/reports", http.StatusOK},
		{"/api/v1/settings", http.StatusOK},
		{"/api/v1/settings/hsn", http.StatusOK},
		{"/api/v1/chat/messages", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			r := doJSON(t, s, http.MethodGet, tt.path, "", nil)
			assert.Equal(t, tt.code, r.code, string(r.raw))
			assert.Equal(t, tt.code == http.StatusOK, r.body.Success)
			if tt.code != http.StatusOK {
				assert.NotEmpty(t, r.body.Error)
			}
		})
	}
}

func TestExports(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/api/v1/invoices/export", "/api/v1/vendors/export"} {
		r := do(t, s, http.MethodGet, path, "", nil, "")
		require.Equal(t, http.StatusOK, r.code, path)
		assert.Equal(t, xlsxContentType, r.header.Get("Content-Type"))
		assert.Contains(t, r.header.Get("Content-Disposition"), ".xlsx")
		// xlsx is a zip container
		assert.True(t, bytes.HasPrefix(r.raw, []byte("PK")), path)
	}
}

func TestSubmitUploads_JSON(t *testing.T) {
	s := newTestServer(t)

	r := doJSON(t, s, http.MethodPost, "/api/v1/uploads", "", UploadRequest{
		Files: fileMetas("a.pdf", "b.png"),
	})
	require.Equal(t, http.StatusCreated, r.code, string(r.raw))

	var items []struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Status string `json:"status"`
	}
	data(t, r, &items)
	require.Len(t, items, 2)
	for _, it := range items {
		assert.Equal(t, "PENDING", it.Status)
	}

	list := doJSON(t, s, http.MethodGet, "/api/v1/uploads", r.sessionID, nil)
	var all []json.RawMessage
	data(t, list, &all)
	assert.Len(t, all, 4, "two seeded rows plus two new")

	got := doJSON(t, s, http.MethodGet, "/api/v1/uploads/"+items[0].ID, r.sessionID, nil)
	assert.Equal(t, http.StatusOK, got.code)

	cancel := doJSON(t, s, http.MethodDelete, "/api/v1/uploads/"+items[0].ID+"/task", r.sessionID, nil)
	require.Equal(t, http.StatusOK, cancel.code)
	var cancelled struct {
		Cancelled bool `json:"cancelled"`
		Item      struct {
			Status string `json:"status"`
		} `json:"item"`
	}
	data(t, cancel, &cancelled)
	assert.True(t, cancelled.Cancelled)
	assert.Equal(t, "PENDING", cancelled.Item.Status, "a cancelled item keeps its pending state")

	again := doJSON(t, s, http.MethodDelete, "/api/v1/uploads/"+items[0].ID+"/task", r.sessionID, nil)
	data(t, again, &cancelled)
	assert.False(t, cancelled.Cancelled, "nothing left to cancel")

	missing := doJSON(t, s, http.MethodGet, "/api/v1/uploads/nope", r.sessionID, nil)
	assert.Equal(t, http.StatusNotFound, missing.code)

	assert.Equal(t, []string{"2 file(s) uploaded successfully"}, toasts(t, s, r.sessionID))
	assert.Empty(t, toasts(t, s, r.sessionID), "drain empties the queue")
}

func TestSubmitUploads_Rejected(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name  string
		files []string
	}{
		{"empty batch", nil},
		{"unsupported extension", []string{"notes.docx"}},
		{"blank name", []string{"   "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := doJSON(t, s, http.MethodPost, "/api/v1/uploads", "", UploadRequest{Files: fileMetas(tt.files...)})
			assert.Equal(t, http.StatusBadRequest, r.code)
			assert.False(t, r.body.Success)
		})
	}

	bad := do(t, s, http.MethodPost, "/api/v1/uploads", "", []byte("{"), "application/json")
	assert.Equal(t, http.StatusBadRequest, bad.code)
}

func TestSubmitUploads_Multipart(t *testing.T) {
	s := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("files", "scan.png")
	require.NoError(t, err)
	_, err = part.Write(pngHeader)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	r := do(t, s, http.MethodPost, "/api/v1/uploads", "", buf.Bytes(), mw.FormDataContentType())
	require.Equal(t, http.StatusCreated, r.code, string(r.raw))

	var items []struct {
		Name        string `json:"name"`
		ContentType string `json:"content_type"`
	}
	data(t, r, &items)
	require.Len(t, items, 1)
	assert.Equal(t, "scan.png", items[0].Name)
	assert.Equal(t, "image/png", items[0].ContentType)

	buf.Reset()
	mw = multipart.NewWriter(&buf)
	part, err = mw.CreateFormFile("files", "fake.pdf")
	require.NoError(t, err)
	_, _ = part.Write([]byte("plain text"))
	require.NoError(t, mw.Close())

	r = do(t, s, http.MethodPost, "/api/v1/uploads", "", buf.Bytes(), mw.FormDataContentType())
	assert.Equal(t, http.StatusBadRequest, r.code)
}

func TestChat(t *testing.T) {
	s := newTestServer(t)

	blank := doJSON(t, s, http.MethodPost, "/api/v1/chat/messages", "", ChatRequest{Text: "  "})
	assert.Equal(t, http.StatusBadRequest, blank.code)

	r := doJSON(t, s, http.MethodPost, "/api/v1/chat/messages", "", ChatRequest{Text: "Show high risk vendors"})
	require.Equal(t, http.StatusAccepted, r.code, string(r.raw))

	conv := doJSON(t, s, http.MethodGet, "/api/v1/chat/messages", r.sessionID, nil)
	var view struct {
		Messages []struct {
			Author string `json:"author"`
			Text   string `json:"text"`
		} `json:"messages"`
		Typing         bool     `json:"typing"`
		QuickQuestions []string `json:"quick_questions"`
	}
	data(t, conv, &view)
	require.Len(t, view.Messages, 2, "greeting plus question")
	assert.Equal(t, "Show high risk vendors", view.Messages[1].Text)
	assert.True(t, view.Typing)
	assert.NotEmpty(t, view.QuickQuestions)
}

func TestReports(t *testing.T) {
	s := newTestServer(t)

	r := doJSON(t, s, http.MethodPost, "/api/v1/reports/generate", "", nil)
	require.Equal(t, http.StatusAccepted, r.code, string(r.raw))
	sid := r.sessionID

	bad := doJSON(t, s, http.MethodPost, "/api/v1/reports/generate", sid, map[string]string{"type": "bogus"})
	assert.Equal(t, http.StatusBadRequest, bad.code)

	dl := doJSON(t, s, http.MethodPost, "/api/v1/reports/1/download?format=pdf", sid, nil)
	assert.Equal(t, http.StatusOK, dl.code, string(dl.raw))

	tests := []struct {
		path string
		code int
	}{
		{"/api/v1/reports/4/download?format=xlsx", http.StatusBadRequest},
		{"/api/v1/reports/99/download", http.StatusNotFound},
		{"/api/v1/reports/1/download?format=docx", http.StatusBadRequest},
	}
	for _, tt := range tests {
		got := doJSON(t, s, http.MethodPost, tt.path, sid, nil)
		assert.Equal(t, tt.code, got.code, tt.path)
	}

	assert.Equal(t, []string{
		"Report generation started. You'll be notified when ready.",
		"Report downloaded as PDF",
	}, toasts(t, s, sid))
}

func TestSettings(t *testing.T) {
	s := newTestServer(t)

	r := doJSON(t, s, http.MethodPut, "/api/v1/settings", "", map[string]interface{}{
		"api_keys": map[string]string{"gst_portal": "sk-proj-abcd1234"},
	})
	require.Equal(t, http.StatusOK, r.code, string(r.raw))
	assert.Contains(t, string(r.raw), "1234")
	assert.NotContains(t, string(r.raw), "sk-proj-abcd1234")
	assert.Equal(t, []string{"Settings saved successfully"}, toasts(t, s, r.sessionID))

	unknown := doJSON(t, s, http.MethodPut, "/api/v1/settings", "", map[string]interface{}{
		"api_keys": map[string]string{"nope": "x"},
	})
	assert.Equal(t, http.StatusBadRequest, unknown.code)
}

func TestImportHSN(t *testing.T) {
	s := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "hsn.csv")
	require.NoError(t, err)
	_, _ = part.Write([]byte("code,description,rate\n99887766,Test service,18\n"))
	require.NoError(t, mw.Close())

	r := do(t, s, http.MethodPost, "/api/v1/settings/hsn", "", buf.Bytes(), mw.FormDataContentType())
	require.Equal(t, http.StatusOK, r.code, string(r.raw))
	var res struct {
		Rows  int `json:"rows"`
		Added int `json:"added"`
	}
	data(t, r, &res)
	assert.Equal(t, 1, res.Rows)
	assert.Equal(t, 1, res.Added)

	missing := do(t, s, http.MethodPost, "/api/v1/settings/hsn", "", nil, "")
	assert.Equal(t, http.StatusBadRequest, missing.code)
}

func TestCloseSession(t *testing.T) {
	s := newTestServer(t)

	r := doJSON(t, s, http.MethodGet, "/api/v1/uploads", "", nil)
	sid := r.sessionID

	closed := doJSON(t, s, http.MethodDelete, "/api/v1/session", sid, nil)
	assert.Equal(t, http.StatusOK, closed.code)

	// a known-format id reopens as a fresh session
	reopened := doJSON(t, s, http.MethodGet, "/api/v1/uploads", sid, nil)
	assert.Equal(t, http.StatusOK, reopened.code)
}

func TestCORS(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/dashboard", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestEventStream(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	sid := doJSON(t, s, http.MethodGet, "/api/v1/uploads", "", nil).sessionID
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/events/ws?session_id=" + sid

	ws, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer ws.Close()

	read := func() WSMessage {
		t.Helper()
		require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))
		var msg WSMessage
		require.NoError(t, ws.ReadJSON(&msg))
		return msg
	}

	hello := read()
	assert.Equal(t, MsgTypeConnected, hello.Type)
	assert.Equal(t, sid, hello.ID)
	assert.Equal(t, 1, s.events.Count())

	require.NoError(t, ws.WriteJSON(WSMessage{Type: MsgTypePing}))
	assert.Equal(t, MsgTypePong, read().Type)

	// another session's events are not forwarded
	doJSON(t, s, http.MethodPut, "/api/v1/settings", "", map[string]interface{}{})

	r := doJSON(t, s, http.MethodPost, "/api/v1/chat/messages", sid, ChatRequest{Text: "hello"})
	require.Equal(t, http.StatusAccepted, r.code)
	assert.Equal(t, "chat.message_sent", read().Type)

	doJSON(t, s, http.MethodDelete, "/api/v1/session", sid, nil)
	for {
		msg := read()
		if msg.Type == "session.closed" {
			break
		}
	}
	assert.Eventually(t, func() bool { return s.events.Count() == 0 }, 5*time.Second, 20*time.Millisecond)
}

func fileMetas(names ...string) []entity.FileMeta {
	out := make([]entity.FileMeta, 0, len(names))
	for _, n := range names {
		out = append(out, entity.FileMeta{Name: n, SizeBytes: 1024})
	}
	return out
}
