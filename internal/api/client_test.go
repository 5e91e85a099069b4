package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"homesync/internal/domain"
)

func TestDoSendsHeaders(t *testing.T) {
	var gotClientID, gotAuth, gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClientID = r.Header.Get("X-Client-Id")
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		json.NewEncoder(w).Encode(domain.User{ID: 101})
	}))
	defer srv.Close()

	c := New(srv.URL)
	c.BearerToken = "tok"
	_, err := c.User(context.Background(), 101)
	require.NoError(t, err)
	require.NotEmpty(t, gotClientID, "every request carries a client id")
	require.Equal(t, "Bearer tok", gotAuth)
	require.Equal(t, "application/json", gotContentType)
}

func TestClientIDStableAcrossRequests(t *testing.T) {
	var ids []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids = append(ids, r.Header.Get("X-Client-Id"))
		json.NewEncoder(w).Encode(domain.User{})
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, _ = c.User(context.Background(), 1)
	_, _ = c.User(context.Background(), 1)
	require.Len(t, ids, 2)
	require.Equal(t, ids[0], ids[1])
}

func TestErrorUsesBodyText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "notification 9 not found", http.StatusNotFound)
	}))
	defer srv.Close()

	err := New(srv.URL).MarkRead(context.Background(), 9, 101)
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	require.Contains(t, apiErr.Error(), "notification 9 not found")
}

func TestErrorFallsBackToStatusText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := New(srv.URL).MarkAllRead(context.Background(), 101)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "Bad Gateway", apiErr.Error())
}

func TestQueryParameters(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Notifications(context.Background(), 101, "alert", 10, 20)
	require.NoError(t, err)
	require.Equal(t, "/api/v1/notifications/", gotPath)
	require.Contains(t, gotQuery, "user_id=101")
	require.Contains(t, gotQuery, "category=alert")
	require.Contains(t, gotQuery, "skip=10")
	require.Contains(t, gotQuery, "limit=20")
}

func TestBaseURLTrailingSlash(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(domain.User{})
	}))
	defer srv.Close()

	_, err := New(srv.URL + "/").User(context.Background(), 5)
	require.NoError(t, err)
	require.Equal(t, "/api/v1/users/5", gotPath)
}
