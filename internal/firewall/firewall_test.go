package firewall

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/logwarden/internal/ban"
)

// recordingRunner records command lines and returns canned output.
type recordingRunner struct {
	calls  []string
	output string
	err    error
}

func (r *recordingRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	r.calls = append(r.calls, strings.Join(append([]string{name}, args...), " "))
	return []byte(r.output), r.err
}

const ufwStatusOutput = `Status: active

To                         Action      From
--                         ------      ----
Anywhere                   DENY        1.2.3.4
Anywhere                   DENY        10.0.0.0/8
5.6.7.8                    DENY        Anywhere
22/tcp                     ALLOW       Anywhere
Anywhere (v6)              DENY        Anywhere (v6)
Anywhere                   DENY        1.2.3.4
`

func TestUFW_Commands(t *testing.T) {
	r := &recordingRunner{}
	u := NewUFW(WithRunner(r), WithCommand("/usr/sbin/ufw"))
	ctx := context.Background()

	require.NoError(t, u.Ban(ctx, "1.2.3.4"))
	require.NoError(t, u.Unban(ctx, "1.2.3.4"))

	assert.Equal(t, []string{
		"/usr/sbin/ufw deny from 1.2.3.4",
		"/usr/sbin/ufw delete deny from 1.2.3.4",
	}, r.calls)
}

func TestUFW_ListEnforced(t *testing.T) {
	r := &recordingRunner{output: ufwStatusOutput}
	u := NewUFW(WithRunner(r))

	entries, err := u.ListEnforced(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"ufw status"}, r.calls)
	assert.Equal(t, []ban.FirewallEntry{
		{Address: "1.2.3.4", Scope: "Anywhere"},
		{Address: "10.0.0.0/8", Scope: "Anywhere"},
		{Address: "5.6.7.8", Scope: "Anywhere"},
	}, entries)
}

func TestUFW_ListEnforced_Inactive(t *testing.T) {
	u := NewUFW(WithRunner(&recordingRunner{output: "Status: inactive\n"}))

	entries, err := u.ListEnforced(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestUFW_ListEnforced_QueryError(t *testing.T) {
	u := NewUFW(WithRunner(&recordingRunner{err: errors.New("permission denied")}))

	entries, err := u.ListEnforced(context.Background())
	require.Error(t, err)
	assert.Nil(t, entries)
	assert.True(t, ban.IsFirewallQueryError(err))
	assert.Contains(t, err.Error(), "permission denied")
}

func TestUFW_BanFailure(t *testing.T) {
	u := NewUFW(WithRunner(&recordingRunner{err: errors.New("exit status 1")}))

	err := u.Ban(context.Background(), "1.2.3.4")
	require.Error(t, err)
	assert.Equal(t, ban.ErrCodeFirewallAction, ban.CodeOf(err))
	assert.Equal(t, "1.2.3.4", ban.AddressOf(err))
}

func TestUFW_RejectsInvalidAddress(t *testing.T) {
	r := &recordingRunner{}
	u := NewUFW(WithRunner(r))

	for _, addr := range []string{"", "1.2.3.4; rm -rf /", "999.1.1.1", "--help"} {
		err := u.Ban(context.Background(), addr)
		assert.Error(t, err, "address %q", addr)
		err = u.Unban(context.Background(), addr)
		assert.Error(t, err, "address %q", addr)
	}
	assert.Empty(t, r.calls, "no command may run for invalid addresses")
}

func TestNFT_Commands(t *testing.T) {
	r := &recordingRunner{}
	n := NewNFT("", "", WithRunner(r))
	ctx := context.Background()

	require.NoError(t, n.Ban(ctx, "1.2.3.4"))
	require.NoError(t, n.Unban(ctx, "1.2.3.4"))

	assert.Equal(t, []string{
		"nft add element inet filter logwarden_ban { 1.2.3.4 }",
		"nft delete element inet filter logwarden_ban { 1.2.3.4 }",
	}, r.calls)
}

func TestNFT_ListEnforced(t *testing.T) {
	r := &recordingRunner{output: `table inet filter {
	set blocklist {
		type ipv4_addr
		flags interval,timeout
		elements = { 1.2.3.4 timeout 1h expires 59m, 5.6.7.8,
			     10.0.0.0/8 }
	}
}
`}
	n := NewNFT("fw", "blocklist", WithRunner(r))

	entries, err := n.ListEnforced(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"nft list set inet fw blocklist"}, r.calls)
	assert.Equal(t, []ban.FirewallEntry{
		{Address: "1.2.3.4", Scope: "blocklist"},
		{Address: "5.6.7.8", Scope: "blocklist"},
		{Address: "10.0.0.0/8", Scope: "blocklist"},
	}, entries)
}

func TestNFT_ListEnforced_EmptySet(t *testing.T) {
	n := NewNFT("", "", WithRunner(&recordingRunner{output: "table inet filter {\n\tset logwarden_ban {\n\t\ttype ipv4_addr\n\t}\n}\n"}))

	entries, err := n.ListEnforced(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNFT_ListEnforced_QueryError(t *testing.T) {
	n := NewNFT("", "", WithRunner(&recordingRunner{err: errors.New("No such file or directory")}))

	_, err := n.ListEnforced(context.Background())
	assert.True(t, ban.IsFirewallQueryError(err))
}

func TestRunnerFunc(t *testing.T) {
	var got string
	r := RunnerFunc(func(_ context.Context, name string, args ...string) ([]byte, error) {
		got = name + " " + strings.Join(args, " ")
		return nil, nil
	})
	u := NewUFW(WithRunner(r))

	require.NoError(t, u.Ban(context.Background(), "::1"))
	assert.Equal(t, "ufw deny from ::1", got)
}
