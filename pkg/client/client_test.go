package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL)
}

func TestListPRs_SendsFilter(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/prs", r.URL.Path)
		assert.Equal(t, "2024-01", r.URL.Query().Get("month"))
		assert.Equal(t, "alice", r.URL.Query().Get("author"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		fmt.Fprint(w, `{"data":[{"number":7,"author":"alice","reviewerLogins":["bob"],"reviewCount":1}],"total":9}`)
	})

	prs, total, err := c.ListPRs(context.Background(), PRFilter{Month: "2024-01", Author: "alice", Limit: 5})
	require.NoError(t, err)
	require.Len(t, prs, 1)
	assert.Equal(t, 9, total)
	assert.Equal(t, 7, prs[0].Number)
	assert.True(t, prs[0].ReviewerLogins.Has("bob"))
}

func TestGetStats(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/stats", r.URL.Path)
		assert.Empty(t, r.URL.RawQuery)
		fmt.Fprint(w, `{"data":{"summary":{"merged":3,"avgTtm":2.5},"monthlyStats":[{"month":"2024-01","count":3}]}}`)
	})

	s, err := c.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, s.Summary.Merged)
	assert.InDelta(t, 2.5, s.Summary.AvgTtm, 1e-9)
	require.Len(t, s.MonthlyStats, 1)
}

func TestGet_ErrorEnvelope(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":{"code":"NOT_FOUND","message":"pull request #4 not found"}}`)
	})

	_, err := c.GetPR(context.Background(), 4)
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "NOT_FOUND", apiErr.Code)
}

func TestGet_PlainError(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})

	err := c.HealthCheck(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestHealthCheck(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"ok"}`)
	})
	assert.NoError(t, c.HealthCheck(context.Background()))
}
