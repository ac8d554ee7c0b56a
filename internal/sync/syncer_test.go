package sync

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chmdznr/nexus-npm-sync/pkg/models"
)

func TestMain(m *testing.M) {
	logrus.SetOutput(io.Discard)
	os.Exit(m.Run())
}

// fakeNexus is a minimal two-instance Nexus stand-in: a source serving an
// asset listing plus downloads, and a hosted target taking uploads.
type fakeNexus struct {
	source  *httptest.Server
	target  *httptest.Server
	uploads atomic.Int32
}

func newFakeNexus(t *testing.T) *fakeNexus {
	f := &fakeNexus{}

	sourceMux := http.NewServeMux()
	sourceMux.HandleFunc("/service/rest/v1/repositories", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	})
	sourceMux.HandleFunc("/service/rest/v1/assets", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"items": [
				{
					"path": "demo/-/demo-1.0.0.tgz",
					"downloadUrl": "` + f.source.URL + `/repository/npm-all/demo/-/demo-1.0.0.tgz",
					"lastModified": "2024-01-10T10:00:00.000+00:00"
				},
				{
					"path": "demo",
					"downloadUrl": "` + f.source.URL + `/repository/npm-all/demo",
					"lastModified": "2024-01-10T10:00:00.000+00:00"
				}
			],
			"continuationToken": null
		}`))
	})
	sourceMux.HandleFunc("/repository/npm-all/demo/-/demo-1.0.0.tgz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("tarball-bytes"))
	})
	f.source = httptest.NewServer(sourceMux)
	t.Cleanup(f.source.Close)

	targetMux := http.NewServeMux()
	targetMux.HandleFunc("/service/rest/v1/repositories", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	})
	targetMux.HandleFunc("/service/rest/v1/repositories/npm-hosted", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name":"npm-hosted","format":"npm","type":"hosted"}`))
	})
	targetMux.HandleFunc("/service/rest/v1/components", func(w http.ResponseWriter, r *http.Request) {
		f.uploads.Add(1)
		w.WriteHeader(http.StatusNoContent)
	})
	f.target = httptest.NewServer(targetMux)
	t.Cleanup(f.target.Close)

	return f
}

func (f *fakeNexus) config() *models.Config {
	return &models.Config{
		Source: models.RegistryConfig{
			NexusURL:   f.source.URL,
			Repository: "npm-all",
			Username:   "reader",
			Password:   "readpass",
		},
		Target: models.RegistryConfig{
			NexusURL:   f.target.URL,
			Repository: "npm-hosted",
			Username:   "writer",
			Password:   "writepass",
		},
		Settings: quickSettings(),
	}
}

func testOptions(t *testing.T) Options {
	dir := t.TempDir()
	return Options{
		StatePath:   filepath.Join(dir, "state.json"),
		HistoryPath: filepath.Join(dir, "history.db"),
		ScratchDir:  filepath.Join(dir, "scratch"),
	}
}

func TestRunHostedEndToEnd(t *testing.T) {
	nexus := newFakeNexus(t)
	opts := testOptions(t)

	syncer, err := New(nexus.config(), opts)
	require.NoError(t, err)
	defer syncer.Close()

	stats, err := syncer.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Candidates, "tarball plus metadata document")
	assert.Equal(t, 1, stats.Succeeded)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 0, stats.Failed)
	assert.Equal(t, int32(1), nexus.uploads.Load())

	st := syncer.store.Load()
	require.Len(t, st.SyncedAssets, 1)
	assert.Equal(t, "demo/-/demo-1.0.0.tgz", st.SyncedAssets[0].Path)
	assert.Equal(t, 1, st.TotalSynced)
	assert.NotEmpty(t, st.LastSyncDate)

	_, statErr := os.Stat(opts.ScratchDir)
	assert.True(t, os.IsNotExist(statErr), "scratch directory must be cleaned up")

	runs, err := syncer.history.RecentRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "full", runs[0].Mode)
	assert.Equal(t, "hosted", runs[0].RepoType)
	assert.Equal(t, 1, runs[0].Succeeded)
}

func TestRunSecondPassIsNoOp(t *testing.T) {
	nexus := newFakeNexus(t)
	opts := testOptions(t)

	first, err := New(nexus.config(), opts)
	require.NoError(t, err)
	stats, err := first.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, stats.Succeeded)
	require.NoError(t, first.Close())

	stateAfterFirst, err := os.ReadFile(opts.StatePath)
	require.NoError(t, err)

	second, err := New(nexus.config(), opts)
	require.NoError(t, err)
	defer second.Close()
	stats, err = second.Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, stats.Candidates, "nothing changed upstream, nothing to sync")
	assert.Equal(t, int32(1), nexus.uploads.Load(), "no second upload")

	stateAfterSecond, err := os.ReadFile(opts.StatePath)
	require.NoError(t, err)
	assert.Equal(t, stateAfterFirst, stateAfterSecond, "an empty run must not advance the sync state")
}

func TestRunUploadFailureDoesNotAdvanceState(t *testing.T) {
	nexus := newFakeNexus(t)
	opts := testOptions(t)

	// Swap the target for one that refuses uploads.
	brokenMux := http.NewServeMux()
	brokenMux.HandleFunc("/service/rest/v1/repositories", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	})
	brokenMux.HandleFunc("/service/rest/v1/repositories/npm-hosted", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name":"npm-hosted","format":"npm","type":"hosted"}`))
	})
	brokenMux.HandleFunc("/service/rest/v1/components", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusInsufficientStorage)
	})
	broken := httptest.NewServer(brokenMux)
	defer broken.Close()

	cfg := nexus.config()
	cfg.Target.NexusURL = broken.URL

	syncer, err := New(cfg, opts)
	require.NoError(t, err)
	defer syncer.Close()

	stats, err := syncer.Run(context.Background())
	require.NoError(t, err, "per-asset failures must not fail the run")

	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 0, stats.Succeeded)

	_, statErr := os.Stat(opts.StatePath)
	assert.True(t, os.IsNotExist(statErr), "a run with no synced assets must not write state")
}

func TestRunFailsWhenSourceCredentialsRejected(t *testing.T) {
	nexus := newFakeNexus(t)
	opts := testOptions(t)

	rejecting := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusUnauthorized)
	}))
	defer rejecting.Close()

	cfg := nexus.config()
	cfg.Source.NexusURL = rejecting.URL

	syncer, err := New(cfg, opts)
	require.NoError(t, err)
	defer syncer.Close()

	_, err = syncer.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source credential validation failed")
}

func TestStrategyFor(t *testing.T) {
	nexus := newFakeNexus(t)
	syncer, err := New(nexus.config(), testOptions(t))
	require.NoError(t, err)
	defer syncer.Close()

	_, isProxy := syncer.strategyFor("proxy").(*proxyTransfer)
	assert.True(t, isProxy, "proxy repositories get the cache trigger")

	_, isHosted := syncer.strategyFor("hosted").(*hostedTransfer)
	assert.True(t, isHosted)

	_, isHosted = syncer.strategyFor("group").(*hostedTransfer)
	assert.True(t, isHosted, "unknown repository types fall back to direct transfer")
}

func TestCutoffFrom(t *testing.T) {
	nexus := newFakeNexus(t)
	syncer, err := New(nexus.config(), testOptions(t))
	require.NoError(t, err)
	defer syncer.Close()

	assert.Nil(t, syncer.cutoffFrom(models.SyncState{}), "no previous sync means full sync")
	assert.Nil(t, syncer.cutoffFrom(models.SyncState{LastSyncDate: "not a date"}), "unreadable date falls back to full sync")

	cutoff := syncer.cutoffFrom(models.SyncState{LastSyncDate: "2024-03-01T12:00:00Z"})
	require.NotNil(t, cutoff)
	assert.Equal(t, 2024, cutoff.Year())
}
