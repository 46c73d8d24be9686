package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mdincl/internal/document"
	"git.home.luguber.info/inful/mdincl/internal/verify"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, s.Close())
	})
	return s
}

func TestRecordScan_AndReadBack(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	started := time.Now().Add(-2 * time.Second).Truncate(time.Second).UTC()
	finished := started.Add(time.Second)
	problems := []verify.Problem{
		{File: "a.md", Line: 3, Kind: document.RefLink, Target: "gone.md", Reason: "target not found"},
		{File: "b.md", Line: 0, Kind: document.RefInclude, Target: "x.txt", Reason: "include target is not markdown"},
	}

	id, err := s.RecordScan(ctx, Scan{
		Root:       "/docs",
		Cause:      "manual",
		StartedAt:  started,
		FinishedAt: finished,
		Files:      10,
		Refs:       42,
		Broken:     len(problems),
	}, problems)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	last, err := s.LastScan(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	require.Equal(t, id, last.ID)
	require.Equal(t, "/docs", last.Root)
	require.Equal(t, "manual", last.Cause)
	require.Equal(t, started, last.StartedAt)
	require.Equal(t, 10, last.Files)
	require.Equal(t, 42, last.Refs)
	require.Equal(t, 2, last.Broken)

	got, err := s.Problems(ctx, id)
	require.NoError(t, err)
	require.Equal(t, problems, got)
}

func TestLastScan_EmptyStore(t *testing.T) {
	s := openTestStore(t)

	last, err := s.LastScan(context.Background())
	require.NoError(t, err)
	require.Nil(t, last)
}

func TestScans_NewestFirstWithLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Now().Truncate(time.Second).UTC()
	for i := 0; i < 3; i++ {
		_, err := s.RecordScan(ctx, Scan{
			Root:       "/docs",
			Cause:      "schedule",
			StartedAt:  base.Add(time.Duration(i) * time.Minute),
			FinishedAt: base.Add(time.Duration(i)*time.Minute + time.Second),
		}, nil)
		require.NoError(t, err)
	}

	scans, err := s.Scans(ctx, 2)
	require.NoError(t, err)
	require.Len(t, scans, 2)
	require.True(t, scans[0].StartedAt.After(scans[1].StartedAt))
}

func TestRecordScan_KeepsCallerID(t *testing.T) {
	s := openTestStore(t)

	id, err := s.RecordScan(context.Background(), Scan{ID: "fixed-id", Cause: "manual"}, nil)
	require.NoError(t, err)
	require.Equal(t, "fixed-id", id)
}

func TestProblems_UnknownScanIsEmpty(t *testing.T) {
	s := openTestStore(t)

	problems, err := s.Problems(context.Background(), "nope")
	require.NoError(t, err)
	require.Empty(t, problems)
}

func TestFingerprint_Roundtrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	fp, err := s.Fingerprint(ctx, "docs/a.md")
	require.NoError(t, err)
	require.Empty(t, fp)

	require.NoError(t, s.SetFingerprint(ctx, "docs/a.md", "fp-1"))
	fp, err = s.Fingerprint(ctx, "docs/a.md")
	require.NoError(t, err)
	require.Equal(t, "fp-1", fp)

	require.NoError(t, s.SetFingerprint(ctx, "docs/a.md", "fp-2"))
	fp, err = s.Fingerprint(ctx, "docs/a.md")
	require.NoError(t, err)
	require.Equal(t, "fp-2", fp)
}

func TestOpen_PersistsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scans.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	id, err := s.RecordScan(ctx, Scan{Cause: "manual"}, nil)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, reopened.Close())
	}()

	last, err := reopened.LastScan(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	require.Equal(t, id, last.ID)
}
