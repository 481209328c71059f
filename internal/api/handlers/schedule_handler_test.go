package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleHandler(t *testing.T) {
	s := newTestServer(t)
	id := s.createWorkspace(t)
	base := "/api/workspaces/" + id + "/schedule"

	status, body := s.do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["pending"])

	status, body = s.do(t, http.MethodPost, base, map[string]string{"provider_id": "2"})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "Dr. Michael Chen", body["provider_name"])
	assert.NotContains(t, body, "confirmed", "a pending request is never confirmed")

	t.Run("date before yesterday is refused", func(t *testing.T) {
		status, body := s.do(t, http.MethodPut, base+"/date", map[string]string{"date": "2025-03-06"})
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, false, body["accepted"])
	})

	t.Run("malformed date is a bad request", func(t *testing.T) {
		status, _ := s.do(t, http.MethodPut, base+"/date", map[string]string{"date": "March 10"})
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("confirm without a slot is refused", func(t *testing.T) {
		status, body := s.do(t, http.MethodPost, base+"/confirm", nil)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, false, body["accepted"])
	})

	t.Run("unknown slot is refused", func(t *testing.T) {
		status, body := s.do(t, http.MethodPut, base+"/slot", map[string]string{"slot": "5:00 PM"})
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, false, body["accepted"])
	})

	t.Run("complete request confirms", func(t *testing.T) {
		_, body := s.do(t, http.MethodPut, base+"/date", map[string]string{"date": "2025-03-10"})
		require.Equal(t, true, body["accepted"])
		_, body = s.do(t, http.MethodPut, base+"/slot", map[string]string{"slot": "10:00 AM"})
		require.Equal(t, true, body["accepted"])

		status, body := s.do(t, http.MethodPost, base+"/confirm", nil)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, true, body["accepted"])
		appt := body["state"].(map[string]interface{})
		assert.Equal(t, "10:00 AM", appt["time_slot"])
		assert.Equal(t, "2", appt["provider_id"])
		assert.NotEmpty(t, appt["confirmed_at"])

		_, body = s.do(t, http.MethodGet, base, nil)
		assert.Equal(t, false, body["pending"])
	})

	t.Run("cancel", func(t *testing.T) {
		_, _ = s.do(t, http.MethodPost, base, map[string]string{"provider_id": "3"})
		status, _ := s.do(t, http.MethodDelete, base, nil)
		assert.Equal(t, http.StatusNoContent, status)
		_, body := s.do(t, http.MethodGet, base, nil)
		assert.Equal(t, false, body["pending"])
	})
}
