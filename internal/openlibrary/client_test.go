package openlibrary

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(serverURL string) *Client {
	return NewClient(WithBaseURL(serverURL), WithTimeout(5*time.Second), WithMinInterval(0))
}

func TestSearch(t *testing.T) {
	var gotQuery, gotPage, gotLimit string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search.json" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		gotQuery = r.URL.Query().Get("q")
		gotPage = r.URL.Query().Get("page")
		gotLimit = r.URL.Query().Get("limit")

		cover := 12345
		year := 2008
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(searchResult{
			NumFound: 1,
			Docs: []SearchDoc{{
				Key:              "/works/OL789W",
				Title:            "Clean Code",
				AuthorName:       []string{"Robert C. Martin"},
				FirstPublishYear: &year,
				CoverI:           &cover,
				Subject:          []string{"Software"},
			}},
		})
	}))
	defer server.Close()

	docs, err := newTestClient(server.URL).Search(context.Background(), "clean code", 2, 20)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	assert.Equal(t, "clean code", gotQuery)
	assert.Equal(t, "2", gotPage)
	assert.Equal(t, "20", gotLimit)
	assert.Equal(t, "/works/OL789W", docs[0].Key)
	assert.Equal(t, 12345, *docs[0].CoverI)
	assert.Nil(t, docs[0].RatingsAverage)
}

func TestSearch_PageDefaultsToOne(t *testing.T) {
	var gotPage string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPage = r.URL.Query().Get("page")
		_, _ = w.Write([]byte(`{"numFound":0,"docs":[]}`))
	}))
	defer server.Close()

	docs, err := newTestClient(server.URL).Search(context.Background(), "x", 0, 20)
	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.Equal(t, "1", gotPage)
}

func TestSearch_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Search(context.Background(), "x", 1, 20)
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.HTTPStatus())
}

func TestSearch_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"docs": "not-a-list"`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Search(context.Background(), "x", 1, 20)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestSearch_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	serverURL := server.URL
	server.Close()

	_, err := newTestClient(serverURL).Search(context.Background(), "x", 1, 20)
	require.Error(t, err)

	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.True(t, transportErr.Transient())
}

func TestSearch_CancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"docs":[]}`))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(server.URL).Search(ctx, "x", 1, 20)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTransportError_CancelledIsNotTransient(t *testing.T) {
	err := &TransportError{Op: "fetch", Err: context.Canceled}
	assert.False(t, err.Transient())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWorkDescription(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected string
	}{
		{"plain string", `{"key":"/works/OL1W","description":"A novel."}`, "A novel."},
		{"typed value", `{"key":"/works/OL1W","description":{"type":"/type/text","value":"Typed."}}`, "Typed."},
		{"missing", `{"key":"/works/OL1W"}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/works/OL1W.json" {
					w.WriteHeader(http.StatusNotFound)
					return
				}
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			desc, err := newTestClient(server.URL).WorkDescription(context.Background(), "OL1W")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, desc)
		})
	}
}

func TestWorkDescription_EmptyID(t *testing.T) {
	_, err := NewClient().WorkDescription(context.Background(), "")
	assert.Error(t, err)
}
