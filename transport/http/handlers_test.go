package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamgate/streamgate/adapters/catalog"
	"github.com/streamgate/streamgate/adapters/directory"
	"github.com/streamgate/streamgate/adapters/store"
	"github.com/streamgate/streamgate/adapters/tokenizer"
	"github.com/streamgate/streamgate/cookie"
	"github.com/streamgate/streamgate/core"
	"github.com/streamgate/streamgate/service"
)

const testPlaylist = `#EXTM3U
#EXT-X-TARGETDURATION:10
#EXT-X-KEY:METHOD=AES-128,URI="key.bin"
#EXTINF:10.0,
segment_000.ts
#EXT-X-ENDLIST
`

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	users := directory.NewMemoryDirectory()
	require.NoError(t, users.AddUser("u1", "alice@example.com", "correct horse"))

	videos := catalog.NewMemoryCatalog()
	videos.AddVideo("abc", core.FormatHLS, []byte(testPlaylist))
	videos.AddSegment("abc", "segment_000.ts", []byte("ts-bytes"))
	videos.AddSegment("abc", "chunk_001.m4s", []byte("m4s-bytes"))
	videos.SetKey("abc", []byte("0123456789abcdef"), []byte("fedcba9876543210"))

	tk := tokenizer.NewJWTTokenizer([]byte("transport-test-secret-material"))

	auth := service.NewAuthService(users, store.NewMemoryStore(), nil, service.AuthConfig{
		SessionTTL: time.Hour,
		FailFloor:  time.Millisecond,
	})
	stream := service.NewStreamService(tk, videos, nil, service.StreamConfig{
		TokenTTL:    time.Minute,
		MaxTokenTTL: 2 * time.Minute,
	})

	return SetupRouter(auth, stream, false)
}

func doLogin(t *testing.T, router *gin.Engine) string {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"alice@example.com","password":"correct horse"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	setCookie := w.Header().Get("Set-Cookie")
	require.NotEmpty(t, setCookie)
	sid, ok := cookie.ExtractValue(setCookie, cookie.SessionCookieName)
	require.True(t, ok)
	return sid
}

func getTicket(t *testing.T, router *gin.Engine, sid string) core.Ticket {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/videos/abc/ticket", nil)
	req.Header.Set("Cookie", cookie.SessionCookieName+"="+sid)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var ticket core.Ticket
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ticket))
	require.NotEmpty(t, ticket.Token)
	return ticket
}

func TestLoginSetsSessionCookie(t *testing.T) {
	router := newTestRouter(t)
	sid := doLogin(t, router)
	assert.NotEmpty(t, sid)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Cookie", cookie.SessionCookieName+"="+sid)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"subject_id":"u1"`)
}

func TestLoginFailureShape(t *testing.T) {
	router := newTestRouter(t)

	for _, body := range []string{
		`{"email":"alice@example.com","password":"wrong"}`,
		`{"email":"nobody@example.com","password":"wrong"}`,
	} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"success":false,"error":"invalid credentials"}`, w.Body.String())
	}
}

func TestMeWithoutCookie(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/me", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
}

func TestTicketEmbedsTokenInURLs(t *testing.T) {
	router := newTestRouter(t)
	sid := doLogin(t, router)
	ticket := getTicket(t, router, sid)

	assert.Contains(t, ticket.ManifestURL, "/stream/abc/manifest.m3u8?token="+ticket.Token)
	assert.Contains(t, ticket.KeyDeliveryURL, "/stream/abc/key?token="+ticket.Token)
}

func TestTicketUnknownVideo(t *testing.T) {
	router := newTestRouter(t)
	sid := doLogin(t, router)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/videos/missing/ticket", nil)
	req.Header.Set("Cookie", cookie.SessionCookieName+"="+sid)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestManifestWithToken(t *testing.T) {
	router := newTestRouter(t)
	sid := doLogin(t, router)
	ticket := getTicket(t, router, sid)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, ticket.ManifestURL, nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/vnd.apple.mpegurl", w.Header().Get("Content-Type"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Body.String(), "/stream/abc/segment/segment_000.ts?token=")
}

func TestManifestWithSessionOnlyIsPlayable(t *testing.T) {
	router := newTestRouter(t)
	sid := doLogin(t, router)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/stream/abc/manifest.m3u8", nil)
	req.Header.Set("Cookie", cookie.SessionCookieName+"="+sid)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	// First play mints a token implicitly; every segment URI must carry it.
	var segmentURI string
	for _, line := range strings.Split(w.Body.String(), "\n") {
		if strings.HasPrefix(line, "/stream/abc/segment/") {
			segmentURI = line
			break
		}
	}
	require.NotEmpty(t, segmentURI)
	require.Contains(t, segmentURI, "?token=")

	// The URI from the playlist fetches bytes without any cookie.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, segmentURI, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ts-bytes", w.Body.String())
}

func TestManifestWithoutAnyCredential(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stream/abc/manifest.m3u8", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	// Media endpoints signal by status only.
	assert.Empty(t, w.Body.String())
}

func TestSegmentRequiresToken(t *testing.T) {
	router := newTestRouter(t)
	sid := doLogin(t, router)
	ticket := getTicket(t, router, sid)

	// No token: denied even with a session cookie.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/stream/abc/segment/segment_000.ts", nil)
	req.Header.Set("Cookie", cookie.SessionCookieName+"="+sid)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// With the token: bytes come back.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet,
		"/stream/abc/segment/segment_000.ts?token="+ticket.Token, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ts-bytes", w.Body.String())
}

func TestSegmentContentTypeFollowsExtension(t *testing.T) {
	router := newTestRouter(t)
	sid := doLogin(t, router)
	ticket := getTicket(t, router, sid)

	for file, want := range map[string]string{
		"segment_000.ts": "video/mp2t",
		"chunk_001.m4s":  "video/mp4",
	} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet,
			"/stream/abc/segment/"+file+"?token="+ticket.Token, nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, want, w.Header().Get("Content-Type"), file)
	}
}

func TestTokenScopedToOneVideo(t *testing.T) {
	router := newTestRouter(t)
	sid := doLogin(t, router)
	ticket := getTicket(t, router, sid)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet,
		"/stream/other/segment/segment_000.ts?token="+ticket.Token, nil))

	// Valid credential, wrong scope: forbidden, not unauthenticated.
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestKeyDelivery(t *testing.T) {
	router := newTestRouter(t)
	sid := doLogin(t, router)
	ticket := getTicket(t, router, sid)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, ticket.KeyDeliveryURL, nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body service.ClearkeyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Keys, 1)
	assert.Equal(t, "oct", body.Keys[0].KeyType)

	// Without a token the key never leaves.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stream/abc/key", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTokenViaBearerHeader(t *testing.T) {
	router := newTestRouter(t)
	sid := doLogin(t, router)
	ticket := getTicket(t, router, sid)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/stream/abc/key", nil)
	req.Header.Set("Authorization", "Bearer "+ticket.Token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLogoutRevokesAndExpiresCookie(t *testing.T) {
	router := newTestRouter(t)
	sid := doLogin(t, router)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.Header.Set("Cookie", cookie.SessionCookieName+"="+sid)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Set-Cookie"), "Max-Age=0")

	// The session no longer validates.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Cookie", cookie.SessionCookieName+"="+sid)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutAll(t *testing.T) {
	router := newTestRouter(t)
	sid1 := doLogin(t, router)
	sid2 := doLogin(t, router)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/logout-all", nil)
	req.Header.Set("Cookie", cookie.SessionCookieName+"="+sid1)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"revoked":2`)

	for _, sid := range []string{sid1, sid2} {
		w = httptest.NewRecorder()
		req = httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.Header.Set("Cookie", cookie.SessionCookieName+"="+sid)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}
}
