package handlers_test

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallHandler(t *testing.T) {
	s := newTestServer(t)
	id := s.createWorkspace(t)
	base := "/api/workspaces/" + id + "/call"

	t.Run("toggle without a call is refused", func(t *testing.T) {
		status, body := s.do(t, http.MethodPost, base+"/mute", nil)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, false, body["accepted"])
	})

	t.Run("busy provider conflicts", func(t *testing.T) {
		status, _ := s.do(t, http.MethodPost, base, map[string]string{"provider_id": "2"})
		assert.Equal(t, http.StatusConflict, status)
	})

	t.Run("missing provider id", func(t *testing.T) {
		status, body := s.do(t, http.MethodPost, base, map[string]string{})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Contains(t, body["error"], "providerid")
	})

	t.Run("unknown fields are rejected", func(t *testing.T) {
		status, body := s.do(t, http.MethodPost, base, map[string]string{"provider_id": "1", "provider": "1"})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Contains(t, body["error"], "invalid request body")
		assert.Equal(t, "idle", s.callState(t, base))
	})

	t.Run("trailing data is rejected", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, s.URL+base, strings.NewReader(`{"provider_id":"1"} {"provider_id":"3"}`))
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "idle", s.callState(t, base))
	})

	t.Run("call lifecycle", func(t *testing.T) {
		status, body := s.do(t, http.MethodPost, base, map[string]string{"provider_id": "1"})
		require.Equal(t, http.StatusAccepted, status)
		assert.Equal(t, "connecting", body["state"])

		require.Eventually(t, func() bool {
			_, body := s.do(t, http.MethodGet, base, nil)
			return body["state"] == "active"
		}, 2*time.Second, 5*time.Millisecond)

		status, body = s.do(t, http.MethodPost, base+"/video", nil)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, true, body["accepted"])
		assert.Equal(t, true, body["state"].(map[string]interface{})["video_disabled"])

		status, body = s.do(t, http.MethodPost, base+"/end", nil)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "ended", body["state"])

		status, body = s.do(t, http.MethodPost, base+"/end", nil)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "ended", body["state"])
	})

	t.Run("unknown workspace", func(t *testing.T) {
		status, _ := s.do(t, http.MethodPost, "/api/workspaces/nope/call", map[string]string{"provider_id": "1"})
		assert.Equal(t, http.StatusNotFound, status)
	})
}

func (s *testServer) callState(t *testing.T, path string) interface{} {
	t.Helper()
	_, body := s.do(t, http.MethodGet, path, nil)
	return body["state"]
}
