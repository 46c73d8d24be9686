package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mdincl/internal/config"
	"git.home.luguber.info/inful/mdincl/internal/store"
	"git.home.luguber.info/inful/mdincl/internal/version"
)

func writeDoc(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o750))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o600))
}

func testDaemon(t *testing.T, root string) (*Daemon, *store.Store) {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	cfg := config.Default()
	cfg.Root = root
	return New(cfg, root, Deps{Store: st}), st
}

func TestRunScan_RecordsResultAndHistory(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "a.md", "[ok](b.md)\n[broken](missing.md)\n")
	writeDoc(t, root, "b.md", "# B\n")

	d, st := testDaemon(t, root)
	require.NoError(t, d.runScan(context.Background(), CauseManual))

	d.mu.RLock()
	last := d.last
	d.mu.RUnlock()
	require.NotNil(t, last)
	require.NotEmpty(t, last.ID)
	require.Equal(t, CauseManual, last.Cause)
	require.Equal(t, 2, last.Files)
	require.Equal(t, 2, last.Refs)
	require.Equal(t, 1, last.Broken)

	recorded, err := st.LastScan(context.Background())
	require.NoError(t, err)
	require.NotNil(t, recorded)
	require.Equal(t, last.ID, recorded.ID)

	problems, err := st.Problems(context.Background(), last.ID)
	require.NoError(t, err)
	require.Len(t, problems, 1)
	require.Equal(t, "missing.md", problems[0].Target)
}

func TestRunScan_MissingRootFails(t *testing.T) {
	root := filepath.Join(t.TempDir(), "gone")
	d, _ := testDaemon(t, root)

	err := d.runScan(context.Background(), CauseManual)
	require.Error(t, err)

	d.mu.RLock()
	defer d.mu.RUnlock()
	require.Nil(t, d.last)
	require.Error(t, d.lastErr)
}

func TestTrigger_CoalescesPendingRequests(t *testing.T) {
	d, _ := testDaemon(t, t.TempDir())

	d.Trigger(CauseManual)
	d.Trigger(CauseWatch)
	d.Trigger(CauseSchedule)

	require.Equal(t, CauseManual, <-d.scans)
	select {
	case cause := <-d.scans:
		t.Fatalf("expected later triggers to be absorbed, got %q", cause)
	default:
	}
}

func TestHandleStatus_ReportsLastScan(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "a.md", "plain text\n")

	d, _ := testDaemon(t, root)
	require.NoError(t, d.runScan(context.Background(), CauseStartup))

	rec := httptest.NewRecorder()
	d.handleStatus(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))

	var payload statusPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Equal(t, "ok", payload.Status)
	require.Equal(t, version.Version, payload.Version)
	require.False(t, payload.Scanning)
	require.NotNil(t, payload.LastScan)
	require.Equal(t, CauseStartup, payload.LastScan.Cause)
	require.Equal(t, 1, payload.LastScan.Files)
}

func TestHandleTrigger_QueuesManualScan(t *testing.T) {
	d, _ := testDaemon(t, t.TempDir())

	rec := httptest.NewRecorder()
	d.handleTrigger(rec, httptest.NewRequest(http.MethodPost, "/api/scan/trigger", nil))
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, CauseManual, <-d.scans)

	rec = httptest.NewRecorder()
	d.handleTrigger(rec, httptest.NewRequest(http.MethodGet, "/api/scan/trigger", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleHealth_AlwaysOK(t *testing.T) {
	rec := httptest.NewRecorder()
	handleHealth(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
}

func TestRun_InitialScanAndGracefulStop(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "a.md", "# A\n")

	d, _ := testDaemon(t, root)
	d.cfg.Watch.Addr = ":0"
	d.cfg.Watch.Rescan = "0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	require.Eventually(t, func() bool {
		d.mu.RLock()
		defer d.mu.RUnlock()
		return d.last != nil
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop")
	}
}
