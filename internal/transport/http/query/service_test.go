package query

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"envisonet-server-go/internal/app/services"
	"envisonet-server-go/internal/core/providers"
	"envisonet-server-go/internal/domain/session"
	"envisonet-server-go/internal/domain/staging"
	"envisonet-server-go/internal/platform/config"
	"envisonet-server-go/internal/platform/logging"
	"envisonet-server-go/internal/platform/storage"
	httptransport "envisonet-server-go/internal/transport/http"
	"envisonet-server-go/internal/transport/http/webapi"
)

const processedMessage = "Processing completed successfully"

type fakeASR struct{ text string }

func (f *fakeASR) Transcribe(context.Context, string) (string, error) {
	return f.text, nil
}

type fakeVision struct{ answer string }

func (f *fakeVision) Describe(context.Context, providers.Image, string) (string, error) {
	return f.answer, nil
}

// fakeChat stands in for the intent classifier: its reply is either an
// intent keyword or the spoken answer.
type fakeChat struct{ reply string }

func (f *fakeChat) Chat(context.Context, []providers.Message) (string, error) {
	return f.reply, nil
}

type fakeTTS struct{}

func (fakeTTS) Synthesize(context.Context, string) ([]byte, error) {
	return []byte("mp3-bytes"), nil
}

type fakeBooster struct{}

func (fakeBooster) ToWAV(context.Context, string, string) error  { return nil }
func (fakeBooster) Boost(context.Context, string, float64) error { return nil }

type testServer struct {
	engine *gin.Engine
	asr    *fakeASR
	vision *fakeVision
	chat   *fakeChat
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger, err := logging.New(logging.Config{Level: "error"})
	require.NoError(t, err)
	t.Cleanup(logger.Close)

	area, err := staging.New(t.TempDir())
	require.NoError(t, err)

	db, err := storage.OpenInMemory()
	require.NoError(t, err)
	users := storage.NewUserRepository(db)
	states := storage.NewStateRepository(db)

	store := session.NewMemory(config.SessionConfig{TTL: time.Hour})
	t.Cleanup(func() {
		_ = store.Close(context.Background())
	})
	auth := webapi.NewAuth("test-secret", time.Hour, store)

	asr := &fakeASR{text: "describe this image"}
	vision := &fakeVision{answer: "A bowl of oranges on a table."}
	chat := &fakeChat{reply: "It depends on the season."}
	pipeline := services.NewPipeline(logger, asr, vision, chat, fakeTTS{}, fakeBooster{},
		area, states, 5)

	cfg := &config.Config{}
	cfg.Log.Level = "error"
	cfg.Server.StaticDir = t.TempDir()

	router, err := httptransport.Build(httptransport.Options{
		Config:         cfg,
		Logger:         logger,
		AuthMiddleware: auth.Middleware(),
	})
	require.NoError(t, err)

	webapi.NewUserHandlers(logger, users, auth, area, states).Register(router.Public, router.Secured)
	NewHandlers(logger, pipeline, area, states, auth).Register(router.Public, router.Secured)

	return &testServer{engine: router.Engine, asr: asr, vision: vision, chat: chat}
}

func (s *testServer) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s *testServer) registerAndLogin(t *testing.T, username string) string {
	t.Helper()
	body := []byte(`{"username":"` + username + `","password":"pw"}`)

	req := httptest.NewRequest(http.MethodPost, "/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := s.do(t, req)
	require.Equal(t, http.StatusCreated, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w = s.do(t, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func multipartUpload(t *testing.T, parts map[string][2]string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	for field, nameAndContent := range parts {
		fw, err := writer.CreateFormFile(field, nameAndContent[0])
		require.NoError(t, err)
		_, err = fw.Write([]byte(nameAndContent[1]))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return buf, writer.FormDataContentType()
}

func (s *testServer) upload(t *testing.T, token string, parts map[string][2]string) *httptest.ResponseRecorder {
	t.Helper()
	buf, contentType := multipartUpload(t, parts)
	req := httptest.NewRequest(http.MethodPost, "/upload_files", buf)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	return s.do(t, req)
}

func (s *testServer) get(t *testing.T, token, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return s.do(t, req)
}

func TestServiceDescriptor(t *testing.T) {
	s := newTestServer(t)
	token := s.registerAndLogin(t, "descriptor-user")

	w := s.get(t, token, "/service")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "envisonet")
}

func TestEndpointsRequireAuth(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{
		"/service",
		"/process_image_audio_query",
		"/process_audio_query",
		"/download_response_audio",
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := s.do(t, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestImageAudioQueryFlow(t *testing.T) {
	s := newTestServer(t)
	token := s.registerAndLogin(t, "flow-user")

	w := s.upload(t, token, map[string][2]string{
		"audio": {"q.webm", "webm-bytes"},
		"image": {"photo.png", "png-bytes"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Message  string `json:"message"`
		AudioURL string `json:"audio_url"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, processedMessage, resp.Message)
	assert.Equal(t, services.ResponseAudioURL, resp.AudioURL)

	w = s.get(t, token, "/download_response_audio")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "mp3-bytes", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), staging.ResponseAudioName)
}

func TestImageAudioQuery_MissingUploads(t *testing.T) {
	s := newTestServer(t)
	token := s.registerAndLogin(t, "empty-user")

	w := s.get(t, token, "/process_image_audio_query")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "error")
}

func TestAudioQuery_FreeForm(t *testing.T) {
	s := newTestServer(t)
	token := s.registerAndLogin(t, "audio-user")
	s.asr.text = "tell me a fact"
	s.chat.reply = "Honey never spoils."

	w := s.upload(t, token, map[string][2]string{
		"audio": {"q.webm", "webm-bytes"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), processedMessage)

	// The classifier's answer was synthesized and is ready for download.
	w = s.get(t, token, "/download_response_audio")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "mp3-bytes", w.Body.String())
}

func TestAudioQuery_Repeat(t *testing.T) {
	s := newTestServer(t)
	token := s.registerAndLogin(t, "repeat-user")
	s.chat.reply = "What a lovely day."

	w := s.upload(t, token, map[string][2]string{
		"audio": {"q.webm", "webm-bytes"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	s.chat.reply = "repeat"
	w = s.upload(t, token, map[string][2]string{
		"audio": {"again.webm", "webm-bytes"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), processedMessage)
	assert.Contains(t, w.Body.String(), services.ResponseAudioURL)
}

func TestAudioQuery_LogoutRevokesSession(t *testing.T) {
	s := newTestServer(t)
	token := s.registerAndLogin(t, "logout-user")
	s.chat.reply = "logout"

	w := s.upload(t, token, map[string][2]string{
		"audio": {"q.webm", "webm-bytes"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"action":"logout"`)

	// The token no longer works.
	w = s.get(t, token, "/process_audio_query")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUpload_RejectsBadExtensions(t *testing.T) {
	s := newTestServer(t)
	token := s.registerAndLogin(t, "reject-user")

	w := s.upload(t, token, map[string][2]string{
		"audio": {"q.mp3", "mp3-bytes"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid audio file format")

	w = s.upload(t, token, map[string][2]string{
		"audio": {"q.webm", "webm-bytes"},
		"image": {"pic.bmp", "bmp-bytes"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid image file format")
}

func TestUpload_RequiresAudio(t *testing.T) {
	s := newTestServer(t)
	token := s.registerAndLogin(t, "nofile-user")

	w := s.upload(t, token, map[string][2]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "no audio or image file part")

	// An image with no recording is rejected the same way.
	w = s.upload(t, token, map[string][2]string{
		"image": {"photo.png", "png-bytes"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "no audio or image file part")
}

func TestDownload_NoAudioYet(t *testing.T) {
	s := newTestServer(t)
	token := s.registerAndLogin(t, "silent-user")

	w := s.get(t, token, "/download_response_audio")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
