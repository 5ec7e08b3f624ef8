package event_draft

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studydesk/studydesk/pkg/calendar"
	"github.com/studydesk/studydesk/pkg/user"
)

// A middleware that puts the test user into the request context
func withTestUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(user.WithUser(r.Context(), testUser)))
	})
}

func setupRouter(t *testing.T) (*mux.Router, *StubLocalStore, *StubExternalStore) {
	service, local, external := setupDraftService(t)
	h := NewHandler(service)
	router := mux.NewRouter()
	router.HandleFunc("/api/calendar/draft", h.OpenCreate).Methods(http.MethodPost)
	router.HandleFunc("/api/calendar/draft", h.GetDraft).Methods(http.MethodGet)
	router.HandleFunc("/api/calendar/draft", h.UpdateFields).Methods(http.MethodPatch)
	router.HandleFunc("/api/calendar/draft", h.Close).Methods(http.MethodDelete)
	router.HandleFunc("/api/calendar/draft/edit", h.OpenEdit).Methods(http.MethodPost)
	router.HandleFunc("/api/calendar/draft/all-day", h.SetAllDay).Methods(http.MethodPut)
	router.HandleFunc("/api/calendar/draft/timezone", h.SetTimeZone).Methods(http.MethodPut)
	router.HandleFunc("/api/calendar/draft/recurrence", h.SetRecurrence).Methods(http.MethodPut)
	router.HandleFunc("/api/calendar/draft/attendees", h.AddAttendee).Methods(http.MethodPost)
	router.HandleFunc("/api/calendar/draft/attendees/{email}", h.RemoveAttendee).Methods(http.MethodDelete)
	router.HandleFunc("/api/calendar/draft/save", h.Save).Methods(http.MethodPost)
	router.HandleFunc("/api/calendar/draft/delete", h.Delete).Methods(http.MethodPost)
	router.Use(withTestUser)
	return router, local, external
}

func doRequest(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeDraft(t *testing.T, w *httptest.ResponseRecorder) DraftDTO {
	t.Helper()
	var dto DraftDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&dto))
	return dto
}

func TestHandler_CreateFlow(t *testing.T) {
	router, local, _ := setupRouter(t)

	w := doRequest(router, http.MethodGet, "/api/calendar/draft", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doRequest(router, http.MethodPost, "/api/calendar/draft", `{"date":"2024-03-05"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	dto := decodeDraft(t, w)
	assert.Equal(t, StateCreatingLocal, dto.State)
	assert.True(t, dto.AllDay)
	assert.Equal(t, "2024-03-05", dto.Start)
	assert.Equal(t, "2024-03-05", dto.End)
	assert.Equal(t, "UTC", dto.TimeZone)
	assert.Equal(t, PresetNone, dto.RecurrencePreset)

	w = doRequest(router, http.MethodPost, "/api/calendar/draft/save", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(router, http.MethodPatch, "/api/calendar/draft", `{"title":"Essay due","weight":0.25}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Essay due", decodeDraft(t, w).Title)

	w = doRequest(router, http.MethodPut, "/api/calendar/draft/recurrence", `{"preset":"weekly"}`)
	require.Equal(t, http.StatusOK, w.Code)
	dto = decodeDraft(t, w)
	assert.Equal(t, PresetWeekly, dto.RecurrencePreset)
	assert.Equal(t, "RRULE:FREQ=WEEKLY", dto.Recurrence)
	assert.Equal(t, []string{"2024-03-05", "2024-03-12", "2024-03-19", "2024-03-26", "2024-04-02"}, dto.RecurrencePreview)

	w = doRequest(router, http.MethodPut, "/api/calendar/draft/all-day", `{"allDay":false}`)
	require.Equal(t, http.StatusOK, w.Code)
	dto = decodeDraft(t, w)
	assert.Equal(t, "2024-03-05T09:00:00", dto.Start)
	assert.Equal(t, "2024-03-05T10:00:00", dto.End)

	w = doRequest(router, http.MethodPost, "/api/calendar/draft/save", "")
	require.Equal(t, http.StatusOK, w.Code)
	var saved calendar.EventDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&saved))
	assert.Equal(t, "created-1", saved.Id)

	require.Len(t, local.Created, 1)
	assert.Equal(t, "2024-03-05T09:00:00Z", local.Created[0].Date)
	assert.Equal(t, "RRULE:FREQ=WEEKLY", local.Created[0].Recurrence)

	w = doRequest(router, http.MethodGet, "/api/calendar/draft", "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHandler_EditExternal(t *testing.T) {
	router, _, external := setupRouter(t)

	w := doRequest(router, http.MethodPost, "/api/calendar/draft/edit", `{"source":"external","id":"lec_20240304"}`)
	require.Equal(t, http.StatusOK, w.Code)
	dto := decodeDraft(t, w)
	assert.Equal(t, StateEditingExternal, dto.State)
	assert.True(t, dto.RecurrenceLocked)
	assert.Equal(t, "2024-03-04T09:00:00", dto.Start)

	w = doRequest(router, http.MethodPut, "/api/calendar/draft/recurrence", `{"preset":"daily"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(router, http.MethodPost, "/api/calendar/draft/attendees", `{"email":"not-an-email"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(router, http.MethodPost, "/api/calendar/draft/attendees", `{"email":"ann@uni.edu"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeDraft(t, w).Attendees, 3)

	w = doRequest(router, http.MethodDelete, "/api/calendar/draft/attendees/me@uni.edu", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(router, http.MethodPut, "/api/calendar/draft/timezone", `{"timeZone":"Nowhere/City"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(router, http.MethodPost, "/api/calendar/draft/save", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, external.Patches, "uni/lec_20240304")
}

func TestHandler_Errors(t *testing.T) {
	router, _, external := setupRouter(t)

	t.Run("unknown event", func(t *testing.T) {
		w := doRequest(router, http.MethodPost, "/api/calendar/draft/edit", `{"source":"local","id":"nope"}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("unknown source", func(t *testing.T) {
		w := doRequest(router, http.MethodPost, "/api/calendar/draft/edit", `{"source":"paper","id":"r1"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("bad date", func(t *testing.T) {
		w := doRequest(router, http.MethodPost, "/api/calendar/draft", `{"date":"05/03/2024"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("recurrence needs exactly one of preset and custom", func(t *testing.T) {
		doRequest(router, http.MethodPost, "/api/calendar/draft", `{"date":"2024-03-05"}`)
		w := doRequest(router, http.MethodPut, "/api/calendar/draft/recurrence", `{"preset":"daily","custom":"RRULE:FREQ=DAILY"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		w = doRequest(router, http.MethodPut, "/api/calendar/draft/recurrence", `{"custom":"FREQ=DAILY"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("bad wall clock", func(t *testing.T) {
		w := doRequest(router, http.MethodPatch, "/api/calendar/draft", `{"start":"tomorrow"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("store failure keeps the draft", func(t *testing.T) {
		external.Err = assert.AnError
		defer func() { external.Err = nil }()
		w := doRequest(router, http.MethodPost, "/api/calendar/draft/edit", `{"source":"external","id":"lec_20240304"}`)
		require.Equal(t, http.StatusOK, w.Code)

		w = doRequest(router, http.MethodPost, "/api/calendar/draft/delete", "")
		assert.Equal(t, http.StatusBadGateway, w.Code)

		w = doRequest(router, http.MethodGet, "/api/calendar/draft", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, StateEditingExternal, decodeDraft(t, w).State)
	})

	t.Run("external account not connected", func(t *testing.T) {
		external.Err = fmt.Errorf("no token: %w", calendar.ErrNotConnected)
		defer func() { external.Err = nil }()

		w := doRequest(router, http.MethodPost, "/api/calendar/draft/delete", "")

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("close", func(t *testing.T) {
		w := doRequest(router, http.MethodDelete, "/api/calendar/draft", "")
		assert.Equal(t, http.StatusNoContent, w.Code)
		w = doRequest(router, http.MethodPost, "/api/calendar/draft/save", "")
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}
