package waitlist

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	svc := NewService(NewInMemoryRepository(), nil, nil)
	srv := httptest.NewServer(NewHandler(svc, nil).Routes())
	t.Cleanup(srv.Close)
	return srv
}

func enroll(t *testing.T, srv *httptest.Server, name string) Entry {
	t.Helper()
	body, err := json.Marshal(enrollRequest(name))
	require.NoError(t, err)
	resp, err := http.Post(srv.URL+"/", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var entry Entry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entry))
	return entry
}

func TestEnrollEndpoint(t *testing.T) {
	srv := newTestServer(t)

	entry := enroll(t, srv, "Jane Doe")
	assert.Len(t, entry.ID, 8)
	assert.Equal(t, StatusWaiting, entry.Status)
}

func TestListEndpoint(t *testing.T) {
	srv := newTestServer(t)
	enroll(t, srv, "Jane Doe")

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Entries []Entry `json:"entries"`
		Count   int     `json:"count"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 1, body.Count)
}

func TestRemoveEndpoint(t *testing.T) {
	srv := newTestServer(t)
	entry := enroll(t, srv, "Jane Doe")

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/"+entry.ID, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	// Unknown IDs are a 404.
	req, err = http.NewRequest(http.MethodDelete, srv.URL+"/NOPE1234", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMarkBookedEndpoint(t *testing.T) {
	srv := newTestServer(t)
	entry := enroll(t, srv, "Jane Doe")

	resp, err := http.Post(srv.URL+"/"+entry.ID+"/booked", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	listResp, err := http.Get(srv.URL + "/?status=booked")
	require.NoError(t, err)
	defer listResp.Body.Close()

	var body struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&body))
	assert.Equal(t, 1, body.Count)
}
