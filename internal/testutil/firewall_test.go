package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/logwarden/internal/ban"
)

func TestFakeFirewall_BanUnbanList(t *testing.T) {
	fw := NewFakeFirewall("1.1.1.1")
	ctx := context.Background()

	require.NoError(t, fw.Ban(ctx, "2.2.2.2"))
	require.NoError(t, fw.Ban(ctx, "2.2.2.2"))
	assert.Equal(t, []string{"1.1.1.1", "2.2.2.2"}, fw.Denied())

	require.NoError(t, fw.Unban(ctx, "1.1.1.1"))
	entries, err := fw.ListEnforced(ctx)
	require.NoError(t, err)
	assert.Equal(t, []ban.FirewallEntry{{Address: "2.2.2.2", Scope: "Anywhere"}}, entries)

	assert.Equal(t, []string{"ban 2.2.2.2", "ban 2.2.2.2", "unban 1.1.1.1", "list"}, fw.Calls())
}

func TestFakeFirewall_InjectedFailures(t *testing.T) {
	fw := NewFakeFirewall()
	ctx := context.Background()

	fw.FailBan("3.3.3.3")
	err := fw.Ban(ctx, "3.3.3.3")
	assert.Equal(t, ban.ErrCodeFirewallAction, ban.CodeOf(err))
	assert.Empty(t, fw.Denied())

	fw.FailQuery(true)
	_, err = fw.ListEnforced(ctx)
	assert.True(t, ban.IsFirewallQueryError(err))

	fw.FailQuery(false)
	_, err = fw.ListEnforced(ctx)
	assert.NoError(t, err)
}
