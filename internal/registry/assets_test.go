package registry

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListAssetsFiltersByCutoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "npm-test", r.URL.Query().Get("repository"))
		writeJSON(w, http.StatusOK, `{
			"items": [
				{"path": "old/-/old-1.0.0.tgz", "lastModified": "2023-01-01T00:00:00Z"},
				{"path": "new/-/new-1.0.0.tgz", "lastModified": "2024-06-01T00:00:00Z"},
				{"path": "odd/-/odd-1.0.0.tgz", "lastModified": "sometime recently"}
			],
			"continuationToken": null
		}`)
	}))
	defer srv.Close()

	cutoff := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	assets, err := testClient(srv.URL).ListAssets(context.Background(), "npm-test", &cutoff, 10, 5*time.Second)
	require.NoError(t, err)

	paths := make([]string, 0, len(assets))
	for _, a := range assets {
		paths = append(paths, a.Path)
	}
	assert.Equal(t, []string{"new/-/new-1.0.0.tgz", "odd/-/odd-1.0.0.tgz"}, paths,
		"new asset kept, unparseable date kept, old asset dropped")
}

func TestListAssetsWithoutCutoffKeepsEverything(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{
			"items": [
				{"path": "a/-/a-1.0.0.tgz", "lastModified": "2020-01-01T00:00:00Z"},
				{"path": "b/-/b-1.0.0.tgz", "lastModified": "2021-01-01T00:00:00Z"}
			],
			"continuationToken": ""
		}`)
	}))
	defer srv.Close()

	assets, err := testClient(srv.URL).ListAssets(context.Background(), "npm-test", nil, 10, 5*time.Second)
	require.NoError(t, err)
	assert.Len(t, assets, 2)
}

func TestListAssetsHonorsPageLimit(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := requests.Add(1)
		// Every page advertises another one.
		writeJSON(w, http.StatusOK, fmt.Sprintf(`{
			"items": [{"path": "pkg%d/-/pkg%d-1.0.0.tgz", "lastModified": "2024-01-01T00:00:00Z"}],
			"continuationToken": "page-%d"
		}`, n, n, n+1))
	}))
	defer srv.Close()

	assets, err := testClient(srv.URL).ListAssets(context.Background(), "npm-test", nil, 2, 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, int32(2), requests.Load(), "pagination must stop at the page limit")
	assert.Len(t, assets, 2)
}

func TestListAssetsFollowsContinuationToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("continuationToken") {
		case "":
			writeJSON(w, http.StatusOK, `{
				"items": [{"path": "a/-/a-1.0.0.tgz", "lastModified": "2024-01-01T00:00:00Z"}],
				"continuationToken": "next"
			}`)
		case "next":
			writeJSON(w, http.StatusOK, `{
				"items": [{"path": "b/-/b-1.0.0.tgz", "lastModified": "2024-01-01T00:00:00Z"}],
				"continuationToken": ""
			}`)
		default:
			writeJSON(w, http.StatusBadRequest, `{"error":"bad token"}`)
		}
	}))
	defer srv.Close()

	assets, err := testClient(srv.URL).ListAssets(context.Background(), "npm-test", nil, 10, 5*time.Second)
	require.NoError(t, err)
	require.Len(t, assets, 2)
	assert.Equal(t, "a/-/a-1.0.0.tgz", assets[0].Path)
	assert.Equal(t, "b/-/b-1.0.0.tgz", assets[1].Path)
}

func TestListAssetsFirstPageFailureAborts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, `{"error":"boom"}`)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).ListAssets(context.Background(), "npm-test", nil, 10, 5*time.Second)
	assert.Error(t, err)
}

func TestListAssetsLaterPageFailureKeepsPartialResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("continuationToken") == "" {
			writeJSON(w, http.StatusOK, `{
				"items": [{"path": "a/-/a-1.0.0.tgz", "lastModified": "2024-01-01T00:00:00Z"}],
				"continuationToken": "next"
			}`)
			return
		}
		writeJSON(w, http.StatusBadGateway, `{"error":"upstream down"}`)
	}))
	defer srv.Close()

	assets, err := testClient(srv.URL).ListAssets(context.Background(), "npm-test", nil, 10, 5*time.Second)
	require.NoError(t, err, "a later page failure must not fail the listing")
	require.Len(t, assets, 1)
	assert.Equal(t, "a/-/a-1.0.0.tgz", assets[0].Path)
}
