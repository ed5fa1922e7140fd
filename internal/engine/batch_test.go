package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/logwarden/internal/ban"
	"github.com/roach88/logwarden/internal/testutil"
)

func TestClearAll_EmptyFirewall(t *testing.T) {
	fw := testutil.NewFakeFirewall()
	e := newTestEngine(t, fw, setupTestStore(t))

	report, err := e.ClearAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Total())
	assert.Equal(t, "clear", report.Op)
}

func TestClearAll_ContinuesPastFailures(t *testing.T) {
	fw := testutil.NewFakeFirewall("1.1.1.1", "2.2.2.2", "3.3.3.3")
	fw.FailUnban("2.2.2.2")
	st := setupTestStore(t)
	ctx := context.Background()
	for _, a := range []string{"1.1.1.1", "2.2.2.2"} {
		require.NoError(t, st.Save(ctx, ban.Record{Address: a, Path: "/wp-login.php", Pattern: "/wp-*"}))
	}
	e := newTestEngine(t, fw, st)

	report, err := e.ClearAll(ctx)
	require.NoError(t, err)

	assert.Equal(t, []ActionKind{ActionUnbanned, ActionFailed, ActionUnbanned}, kinds(report))
	assert.Equal(t, 2, report.Unbanned)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, []string{"2.2.2.2"}, fw.Denied())

	recs, err := st.List(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "2.2.2.2", recs[0].Address, "record kept when unban failed")
}

func TestClearAll_QueryFailure(t *testing.T) {
	fw := testutil.NewFakeFirewall("1.1.1.1")
	fw.FailQuery(true)
	e := newTestEngine(t, fw, setupTestStore(t))

	_, err := e.ClearAll(context.Background())
	assert.True(t, ban.IsFirewallQueryError(err))
	assert.Equal(t, []string{"1.1.1.1"}, fw.Denied())
}

func TestRedo(t *testing.T) {
	fw := testutil.NewFakeFirewall("2.2.2.2")
	fw.FailBan("4.4.4.4")
	st := setupTestStore(t)
	ctx := context.Background()
	for _, a := range []string{"1.1.1.1", "2.2.2.2", "3.3.3.3", "4.4.4.4"} {
		require.NoError(t, st.Save(ctx, ban.Record{Address: a, Path: "/wp-login.php", Pattern: "/wp-*"}))
	}
	// 3.3.3.3 was whitelisted after it was banned.
	e := newTestEngine(t, fw, st, "3.3.3.3")

	report, err := e.Redo(ctx)
	require.NoError(t, err)

	assert.Equal(t, []ActionKind{ActionBanned, ActionSkipped, ActionWhitelisted, ActionFailed}, kinds(report))
	assert.Equal(t, 1, report.Banned)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 1, report.WhitelistSkipped)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 4, report.Total())
	assert.ElementsMatch(t, []string{"1.1.1.1", "2.2.2.2"}, fw.Denied())

	ok, err := st.Exists(ctx, "3.3.3.3")
	require.NoError(t, err)
	assert.True(t, ok, "whitelisted record is left untouched")
}

func TestUnban(t *testing.T) {
	fw := testutil.NewFakeFirewall("1.1.1.1")
	st := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, st.Save(ctx, ban.Record{Address: "1.1.1.1", Path: "/.env", Pattern: "/^//\\.env"}))
	e := newTestEngine(t, fw, st)

	rec, err := e.Unban(ctx, "1.1.1.1")
	require.NoError(t, err)
	assert.Equal(t, "/.env", rec.Path)
	assert.Empty(t, fw.Denied())

	_, err = st.Get(ctx, "1.1.1.1")
	assert.ErrorIs(t, err, ban.ErrNotFound)
}

func TestUnban_RequiresRecord(t *testing.T) {
	fw := testutil.NewFakeFirewall("1.1.1.1")
	e := newTestEngine(t, fw, setupTestStore(t))

	_, err := e.Unban(context.Background(), "1.1.1.1")
	assert.True(t, errors.Is(err, ban.ErrNotFound))
	assert.Empty(t, fw.Calls())
	assert.Equal(t, []string{"1.1.1.1"}, fw.Denied())
}

func TestUnban_FirewallFailureKeepsRecord(t *testing.T) {
	fw := testutil.NewFakeFirewall("1.1.1.1")
	fw.FailUnban("1.1.1.1")
	st := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, st.Save(ctx, ban.Record{Address: "1.1.1.1"}))
	e := newTestEngine(t, fw, st)

	_, err := e.Unban(ctx, "1.1.1.1")
	assert.Equal(t, ban.ErrCodeFirewallAction, ban.CodeOf(err))

	ok, err := st.Exists(ctx, "1.1.1.1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestShow(t *testing.T) {
	fw := testutil.NewFakeFirewall("1.1.1.1", "2.2.2.2")
	st := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, st.Save(ctx, ban.Record{Address: "1.1.1.1", Path: "/wp-login.php", Pattern: "/wp-*"}))
	e := newTestEngine(t, fw, st)

	bans, err := e.Show(ctx)
	require.NoError(t, err)
	assert.Equal(t, []EnforcedBan{
		{Address: "1.1.1.1", Scope: "Anywhere", Pattern: "/wp-*", Path: "/wp-login.php"},
		{Address: "2.2.2.2", Scope: "Anywhere", Pattern: UnknownPattern},
	}, bans)
}

func TestShow_QueryFailure(t *testing.T) {
	fw := testutil.NewFakeFirewall()
	fw.FailQuery(true)
	e := newTestEngine(t, fw, setupTestStore(t))

	_, err := e.Show(context.Background())
	assert.True(t, ban.IsFirewallQueryError(err))
}

func TestGet_NotFound(t *testing.T) {
	e := newTestEngine(t, testutil.NewFakeFirewall(), setupTestStore(t))

	_, err := e.Get(context.Background(), "9.9.9.9")
	assert.ErrorIs(t, err, ban.ErrNotFound)
}
