package daemon

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mdincl/internal/document"
	"git.home.luguber.info/inful/mdincl/internal/store"
	"git.home.luguber.info/inful/mdincl/internal/verify"
)

func TestNewScanEvent_MapsScanFields(t *testing.T) {
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	scan := store.Scan{
		ID:         "scan-1",
		Root:       "docs",
		Cause:      CauseWatch,
		StartedAt:  started,
		FinishedAt: started.Add(2 * time.Second),
		Files:      10,
		Refs:       42,
		Broken:     1,
	}
	problems := []verify.Problem{
		{File: "a.md", Line: 3, Kind: document.RefLink, Target: "x.md", Reason: "target not found"},
	}

	event := NewScanEvent(scan, problems)

	require.Equal(t, "scan-1", event.ScanID)
	require.Equal(t, "docs", event.Root)
	require.Equal(t, CauseWatch, event.Cause)
	require.Equal(t, 10, event.Files)
	require.Equal(t, 42, event.Refs)
	require.Equal(t, 1, event.Broken)
	require.False(t, event.Truncated)
	require.Equal(t, []string{`a.md:3: link "x.md": target not found`}, event.Problems)
}

func TestNewScanEvent_TruncatesLongProblemLists(t *testing.T) {
	problems := make([]verify.Problem, maxEventProblems+25)
	for i := range problems {
		problems[i] = verify.Problem{
			File:   fmt.Sprintf("f%d.md", i),
			Kind:   document.RefLink,
			Target: "gone.md",
			Reason: "target not found",
		}
	}

	event := NewScanEvent(store.Scan{Broken: len(problems)}, problems)

	require.Len(t, event.Problems, maxEventProblems)
	require.True(t, event.Truncated)
	require.Equal(t, len(problems), event.Broken)
}

func TestNewPublisher_RequiresConfig(t *testing.T) {
	_, err := NewPublisher(nil)
	require.Error(t, err)
}
