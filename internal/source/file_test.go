package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/npratt/loanpoll/internal/status"
	"github.com/npratt/loanpoll/internal/testutil"
)

func TestFileFetcher_RereadsEachFetch(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteFile(t, dir, "status.json", testutil.RiskCountdownJSON)

	f := &FileFetcher{Path: path}

	payload, err := f.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, status.StageRiskCountdown, status.Resolve(payload).Stage())

	require.NoError(t, os.WriteFile(path, []byte(testutil.DisbursingJSON), 0644))

	payload, err = f.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, status.StageDisbursing, status.Resolve(payload).Stage())
}

func TestFileFetcher_Errors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		f := &FileFetcher{Path: filepath.Join(dir, "nope.json")}
		_, err := f.Fetch(context.Background())
		require.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("empty file", func(t *testing.T) {
		f := &FileFetcher{Path: testutil.WriteFile(t, dir, "empty.json", "")}
		_, err := f.Fetch(context.Background())
		require.ErrorIs(t, err, ErrEmptyResponse)
	})

	t.Run("cancelled context", func(t *testing.T) {
		f := &FileFetcher{Path: testutil.WriteFile(t, dir, "ok.json", testutil.EntryFormJSON)}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := f.Fetch(ctx)
		require.ErrorIs(t, err, context.Canceled)
	})
}
