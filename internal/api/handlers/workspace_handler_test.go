package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorkspaceHandler(t *testing.T) {
	s := newTestServer(t)

	id := s.createWorkspace(t)
	assert.Equal(t, 1, s.registry.Len())

	status, body := s.do(t, http.MethodGet, "/api/workspaces/"+id, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, id, body["id"])
	assert.Equal(t, "idle", body["call"].(map[string]interface{})["state"])

	status, _ = s.do(t, http.MethodDelete, "/api/workspaces/"+id, nil)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = s.do(t, http.MethodDelete, "/api/workspaces/"+id, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, body = s.do(t, http.MethodGet, "/api/workspaces/"+id, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "workspace not found", body["error"])
}

func TestProviderHandler(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodGet, "/api/providers?q=dermatology", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["count"])

	status, body = s.do(t, http.MethodGet, "/api/providers/2", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Busy", body["status"])

	status, _ = s.do(t, http.MethodGet, "/api/providers/99", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = s.do(t, http.MethodGet, "/api/specialties", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, body["specialties"], 3)
}

func TestAuthHandler(t *testing.T) {
	s := newTestServer(t)

	status, _ := s.do(t, http.MethodPost, "/api/auth/signin", map[string]string{"id_token": "forged"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = s.do(t, http.MethodPost, "/api/auth/signin", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body := s.do(t, http.MethodPost, "/api/auth/signin", map[string]string{"id_token": "dev-token"})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "dev-user", body["uid"])

	id := s.createWorkspace(t)
	_, body = s.do(t, http.MethodGet, "/api/workspaces/"+id, nil)
	assert.Equal(t, "dev-user", body["identity"].(map[string]interface{})["uid"])

	status, _ = s.do(t, http.MethodPost, "/api/auth/signout", nil)
	assert.Equal(t, http.StatusNoContent, status)

	_, body = s.do(t, http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, false, body["signed_in"])
}
