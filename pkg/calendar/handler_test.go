package calendar

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studydesk/studydesk/pkg/user"
)

// A middleware that puts the test user into the request context
func withTestUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(user.WithUser(r.Context(), testUser)))
	})
}

func setupRouter(t *testing.T) (*mux.Router, serviceFixture) {
	f := setupService(t)
	h := NewHandler(f.service)
	router := mux.NewRouter()
	router.HandleFunc("/api/calendar/view", h.GetView).Methods(http.MethodGet)
	router.HandleFunc("/api/calendar/view/next", h.Next).Methods(http.MethodPost)
	router.HandleFunc("/api/calendar/view/mode", h.SetMode).Methods(http.MethodPut)
	router.HandleFunc("/api/calendar/view/date", h.JumpTo).Methods(http.MethodPut)
	router.HandleFunc("/api/calendar/view/day", h.SelectDay).Methods(http.MethodPost)
	router.HandleFunc("/api/calendar/sources/{calendarId}", h.SetSourceVisible).Methods(http.MethodPut)
	router.HandleFunc("/api/calendar/search", h.Search).Methods(http.MethodGet)
	router.HandleFunc("/api/calendar/export.ics", h.ExportICS).Methods(http.MethodGet)
	router.Use(withTestUser)
	return router, f
}

func doRequest(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandler_GetView(t *testing.T) {
	router, _ := setupRouter(t)

	w := doRequest(router, http.MethodGet, "/api/calendar/view", "")

	require.Equal(t, http.StatusOK, w.Code)
	var view ViewDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&view))
	assert.Equal(t, "2024-03-04", view.Anchor)
	assert.Equal(t, ModeMonth, view.Mode)
	assert.Equal(t, "2024-02-26", view.RangeStart)
	assert.Equal(t, "2024-03-31", view.RangeEnd)
	require.Len(t, view.Days, 35)
	assert.Equal(t, "2024-03-04", view.Days[7].Date)
	require.Len(t, view.Days[7].Events, 3)
	assert.Equal(t, "exam-week", view.Days[7].Events[0].Id)
	assert.True(t, view.Days[7].Events[0].AllDay)
	assert.Len(t, view.Sources, 2)
}

func TestHandler_Navigation(t *testing.T) {
	t.Run("next month", func(t *testing.T) {
		router, _ := setupRouter(t)

		w := doRequest(router, http.MethodPost, "/api/calendar/view/next", "")

		require.Equal(t, http.StatusOK, w.Code)
		var view ViewDTO
		require.NoError(t, json.NewDecoder(w.Body).Decode(&view))
		assert.Equal(t, "2024-04-04", view.Anchor)
	})

	t.Run("switch to week", func(t *testing.T) {
		router, _ := setupRouter(t)

		w := doRequest(router, http.MethodPut, "/api/calendar/view/mode", `{"mode":"week"}`)

		require.Equal(t, http.StatusOK, w.Code)
		var view ViewDTO
		require.NoError(t, json.NewDecoder(w.Body).Decode(&view))
		assert.Equal(t, ModeWeek, view.Mode)
		assert.Len(t, view.Days, 7)
		assert.Len(t, view.Columns, 7)
	})

	t.Run("unknown mode", func(t *testing.T) {
		router, _ := setupRouter(t)

		w := doRequest(router, http.MethodPut, "/api/calendar/view/mode", `{"mode":"year"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Unknown mode")
	})

	t.Run("jump to date", func(t *testing.T) {
		router, _ := setupRouter(t)

		w := doRequest(router, http.MethodPut, "/api/calendar/view/date", `{"date":"2024-05-17"}`)

		require.Equal(t, http.StatusOK, w.Code)
		var view ViewDTO
		require.NoError(t, json.NewDecoder(w.Body).Decode(&view))
		assert.Equal(t, "2024-05-17", view.Anchor)
		assert.Equal(t, ModeMonth, view.Mode)
	})

	t.Run("invalid date", func(t *testing.T) {
		router, _ := setupRouter(t)

		w := doRequest(router, http.MethodPut, "/api/calendar/view/date", `{"date":"17.05.2024"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("select day", func(t *testing.T) {
		router, _ := setupRouter(t)

		w := doRequest(router, http.MethodPost, "/api/calendar/view/day", `{"date":"2024-03-04"}`)

		require.Equal(t, http.StatusOK, w.Code)
		var view ViewDTO
		require.NoError(t, json.NewDecoder(w.Body).Decode(&view))
		assert.Equal(t, ModeDay, view.Mode)
		require.Len(t, view.Columns, 1)
		assert.Len(t, view.Columns[0].Timed, 2)
	})
}

func TestHandler_SourcesAndSearch(t *testing.T) {
	t.Run("hide calendar and search", func(t *testing.T) {
		router, _ := setupRouter(t)

		w := doRequest(router, http.MethodPut, "/api/calendar/sources/uni", `{"visible":false}`)
		require.Equal(t, http.StatusOK, w.Code)
		w = doRequest(router, http.MethodGet, "/api/calendar/search?q=quiz", "")

		require.Equal(t, http.StatusOK, w.Code)
		var events []EventDTO
		require.NoError(t, json.NewDecoder(w.Body).Decode(&events))
		require.Len(t, events, 1)
		assert.Equal(t, "quiz-1", events[0].Id)
	})

	t.Run("unknown calendar", func(t *testing.T) {
		router, _ := setupRouter(t)

		w := doRequest(router, http.MethodPut, "/api/calendar/sources/nope", `{"visible":true}`)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("empty query returns an empty list", func(t *testing.T) {
		router, _ := setupRouter(t)

		w := doRequest(router, http.MethodGet, "/api/calendar/search?q=", "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))
	})
}

func TestHandler_ExportICS(t *testing.T) {
	router, _ := setupRouter(t)

	w := doRequest(router, http.MethodGet, "/api/calendar/export.ics", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/calendar; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "BEGIN:VCALENDAR")
	assert.Contains(t, w.Body.String(), "SUMMARY:Quiz 1")
}

func TestHandler_NoUser(t *testing.T) {
	f := setupService(t)
	h := NewHandler(f.service)
	req := httptest.NewRequest(http.MethodGet, "/api/calendar/view", nil)
	w := httptest.NewRecorder()

	h.GetView(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}
