package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"quizlytics/api/database"
	"quizlytics/api/middleware"
	"quizlytics/api/models"
	"quizlytics/api/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubMirror struct {
	results []models.Result
	err     error
}

func (m *stubMirror) InsertEvent(ctx context.Context, e models.Event) error   { return m.err }
func (m *stubMirror) InsertResult(ctx context.Context, r models.Result) error { return m.err }
func (m *stubMirror) ResultsBySession(ctx context.Context, sessionID string) ([]models.Result, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.results, nil
}

func newTestRouter(t *testing.T, mirror store.MirrorStore) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("DATABASE_URL", "")
	t.Setenv("ANALYTICS_DB_PATH", filepath.Join(t.TempDir(), "handlers_test.db"))
	t.Setenv("ADMIN_API_KEY", "")
	t.Setenv("ADMIN_PASSWORD_HASH", "")

	client, err := database.NewAnalyticsDB()
	require.NoError(t, err)
	t.Cleanup(client.Close)

	h := NewAnalyticsHandlers(store.NewAnalyticsStore(client), mirror, nil)

	r := gin.New()
	api := r.Group("/api")
	api.Use(middleware.EnsureSession())
	{
		api.GET("/health", h.Health)
		api.POST("/events", h.TrackEvents)
		api.GET("/events", h.ListEvents)
		api.POST("/results", h.TrackResult)
		api.GET("/results", h.ListResults)
		api.GET("/user-results", h.UserResults)

		admin := api.Group("/")
		admin.Use(middleware.AdminRequired())
		{
			admin.GET("/dashboard", h.Dashboard)
			admin.GET("/realtime", h.Realtime)
		}
	}
	return r
}

func doJSON(r *gin.Engine, method, path, body string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			return c
		}
	}
	return nil
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t, nil)
	w := doJSON(r, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestTrackEvents_BatchSharesSessionAndTimestamp(t *testing.T) {
	r := newTestRouter(t, nil)

	body := `{"batch":[{"event":"page_view","page":"/quiz"},{"event":"option_select","page":"/quiz"}]}`
	w := doJSON(r, http.MethodPost, "/api/events", body, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true,"inserted":2}`, w.Body.String())

	cookie := sessionCookie(t, w)
	require.NotNil(t, cookie, "first request must mint a session cookie")
	require.NotEmpty(t, cookie.Value)

	list := doJSON(r, http.MethodGet, "/api/events?pageSize=10", "", []*http.Cookie{cookie})
	require.Equal(t, http.StatusOK, list.Code)

	var events []models.Event
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &events))
	require.Len(t, events, 2)

	assert.Equal(t, events[0].Timestamp, events[1].Timestamp, "batch items share one server timestamp")
	assert.Equal(t, cookie.Value, events[0].SessionID)
	assert.Equal(t, cookie.Value, events[1].SessionID)

	types := []string{events[0].EventType, events[1].EventType}
	assert.ElementsMatch(t, []string{"page_view", "option_select"}, types)
}

func TestTrackEvents_SingleObject(t *testing.T) {
	r := newTestRouter(t, nil)

	w := doJSON(r, http.MethodPost, "/api/events", `{"event_type":"quiz_complete","page":"/result"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true,"inserted":1}`, w.Body.String())
}

func TestTrackEvents_BareArray(t *testing.T) {
	r := newTestRouter(t, nil)

	w := doJSON(r, http.MethodPost, "/api/events", `[{"event":"a"},{"event":"b"},{"event":"c"}]`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true,"inserted":3}`, w.Body.String())
}

func TestTrackEvents_MalformedBody(t *testing.T) {
	r := newTestRouter(t, nil)

	w := doJSON(r, http.MethodPost, "/api/events", `{"batch": not-json}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "error")
}

func TestSessionCookie_NotReplacedWhenPresent(t *testing.T) {
	r := newTestRouter(t, nil)

	first := doJSON(r, http.MethodGet, "/api/health", "", nil)
	cookie := sessionCookie(t, first)
	require.NotNil(t, cookie)

	second := doJSON(r, http.MethodGet, "/api/health", "", []*http.Cookie{cookie})
	assert.Nil(t, sessionCookie(t, second), "an existing token must pass through unchanged")
}

func TestTrackResult_UserResultsRoundTrip(t *testing.T) {
	r := newTestRouter(t, nil)

	w := doJSON(r, http.MethodPost, "/api/results", `{"result_name":"INTJ","scores":{"mind":80,"energy":20}}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())

	cookie := sessionCookie(t, w)
	require.NotNil(t, cookie)

	res := doJSON(r, http.MethodGet, "/api/user-results", "", []*http.Cookie{cookie})
	require.Equal(t, http.StatusOK, res.Code)

	var results []models.Result
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "INTJ", results[0].ResultName)

	var scores map[string]float64
	require.NoError(t, json.Unmarshal(results[0].Scores, &scores))
	assert.Equal(t, map[string]float64{"mind": 80, "energy": 20}, scores)
}

func TestTrackResult_DefaultsApplied(t *testing.T) {
	r := newTestRouter(t, nil)

	w := doJSON(r, http.MethodPost, "/api/results", `{}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	cookie := sessionCookie(t, w)

	res := doJSON(r, http.MethodGet, "/api/user-results", "", []*http.Cookie{cookie})
	var results []models.Result
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &results))
	require.Len(t, results, 1)
	assert.Equal(t, models.UnknownResultName, results[0].ResultName)
	assert.JSONEq(t, `{}`, string(results[0].Scores))
}

func TestUserResults_MirrorPreferredAndFallback(t *testing.T) {
	mirrored := []models.Result{{
		ID: "m1", Timestamp: "2026-03-10T10:00:00.000000+00:00",
		SessionID: "ignored", ResultName: "FROM_MIRROR", Scores: []byte(`{}`),
	}}

	t.Run("mirror serves when it has rows", func(t *testing.T) {
		r := newTestRouter(t, &stubMirror{results: mirrored})
		w := doJSON(r, http.MethodGet, "/api/user-results", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "FROM_MIRROR")
	})

	t.Run("primary serves when mirror errors", func(t *testing.T) {
		r := newTestRouter(t, &stubMirror{err: errors.New("mirror down")})
		w := doJSON(r, http.MethodGet, "/api/user-results", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
	})

	t.Run("primary serves when mirror is empty", func(t *testing.T) {
		r := newTestRouter(t, &stubMirror{})

		post := doJSON(r, http.MethodPost, "/api/results", `{"result_name":"LOCAL"}`, nil)
		cookie := sessionCookie(t, post)
		require.NotNil(t, cookie)

		w := doJSON(r, http.MethodGet, "/api/user-results", "", []*http.Cookie{cookie})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "LOCAL")
	})
}

func TestListEvents_BadParams(t *testing.T) {
	r := newTestRouter(t, nil)

	assert.Equal(t, http.StatusBadRequest, doJSON(r, http.MethodGet, "/api/events?pageSize=abc", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(r, http.MethodGet, "/api/events?page=0", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(r, http.MethodGet, "/api/events?start=03-10-2026", "", nil).Code)
}

func TestDashboard_EmptyTablesNeverNull(t *testing.T) {
	r := newTestRouter(t, nil)

	w := doJSON(r, http.MethodGet, "/api/dashboard", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var stats models.DashboardStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.NotNil(t, stats.QuizResults)
	assert.Empty(t, stats.QuizResults)
	assert.Contains(t, w.Body.String(), `"quizResults":[]`)
}

func TestRealtime_Empty(t *testing.T) {
	r := newTestRouter(t, nil)

	w := doJSON(r, http.MethodGet, "/api/realtime", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var stats models.RealtimeStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Zero(t, stats.ActiveEvents)
	assert.NotNil(t, stats.RecentEvents)
}

func TestDashboard_GuardedByAPIKeyWhenConfigured(t *testing.T) {
	r := newTestRouter(t, nil)
	t.Setenv("ADMIN_API_KEY", "secret-key")

	w := doJSON(r, http.MethodGet, "/api/dashboard", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	req.Header.Set("X-API-KEY", "secret-key")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
