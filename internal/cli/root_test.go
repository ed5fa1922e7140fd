package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/logwarden/internal/ban"
	"github.com/roach88/logwarden/internal/engine"
	"github.com/roach88/logwarden/internal/store"
	"github.com/roach88/logwarden/internal/testutil"
)

const testLog = `203.0.113.7 - - [10/Oct/2024:13:55:36 +0000] "GET /index.html HTTP/1.1" 200 512 "-" "Mozilla/5.0"
198.51.100.23 - - [10/Oct/2024:13:55:37 +0000] "GET /wp-login.php HTTP/1.1" 404 153 "-" "curl/8.0"
127.0.0.1 - - [10/Oct/2024:13:55:38 +0000] "GET /wp-admin/ HTTP/1.1" 404 153 "-" "curl/8.0"
`

// testEnv is a configuration on disk plus injected backends.
type testEnv struct {
	configPath string
	fw         *testutil.FakeFirewall
	store      *store.Store
}

func newTestEnv(t *testing.T, denied ...string) *testEnv {
	t.Helper()
	dir := t.TempDir()
	logPath := filepath.Join(dir, "access.log")
	require.NoError(t, os.WriteFile(logPath, []byte(testLog), 0o644))

	cfg := "log:\n  - " + logPath + "\npatterns:\n  - \"/wp-*\"\nwhitelist:\n  - 127.0.0.1\n"
	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(cfg), 0o644))

	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	return &testEnv{configPath: configPath, fw: testutil.NewFakeFirewall(denied...), store: st}
}

func (e *testEnv) run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	return e.runContext(t, context.Background(), args...)
}

func (e *testEnv) runContext(t *testing.T, ctx context.Context, args ...string) (int, string, string) {
	t.Helper()
	opts := &RootOptions{
		Firewall: e.fw,
		Store:    e.store,
		PassIDs:  testutil.NewFixedPassGenerator("cli-pass"),
	}
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	code := execute(ctx, opts, append([]string{"--config", e.configPath}, args...), stdout, stderr)
	return code, stdout.String(), stderr.String()
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "logwarden", cmd.Use)
	assert.Contains(t, cmd.Long, "without a command performs one ban pass")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"bp", "show", "get", "unban", "clear", "redo", "watch", "help"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "c", configFlag.Shorthand)
}

func TestFormatValidation(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	env := newTestEnv(t)
	code, _, stderr := env.run(t, "--format", "invalid", "show")

	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stderr, "invalid format")
}

func TestUnknownCommand(t *testing.T) {
	env := newTestEnv(t)
	code, _, stderr := env.run(t, "frobnicate")

	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stderr, "unknown command")
}

func TestMissingConfig(t *testing.T) {
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	code := Execute(context.Background(), []string{"--config", filepath.Join(t.TempDir(), "none.yaml"), "show"}, stdout, stderr)

	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stderr.String(), "Error [CONFIG]")
}

func TestDefaultCommandRunsBanPass(t *testing.T) {
	env := newTestEnv(t)
	code, stdout, _ := env.run(t)

	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "| Address: 198.51.100.23")
	assert.Contains(t, stdout, "| Path:    /wp-login.php")
	assert.Contains(t, stdout, "Banned: 1  Skipped: 0  Whitelisted: 1  Failed: 0  Total: 2")
	assert.Equal(t, []string{"198.51.100.23"}, env.fw.Denied())
}

func TestBanPass_Idempotent(t *testing.T) {
	env := newTestEnv(t)

	code, _, _ := env.run(t, "bp")
	require.Equal(t, ExitSuccess, code)

	env.fw.ResetCalls()
	code, stdout, _ := env.run(t, "bp")
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "Banned: 0")
	assert.NotContains(t, strings.Join(env.fw.Calls(), ","), "ban ")
}

func TestBanPass_JSON(t *testing.T) {
	env := newTestEnv(t)
	code, stdout, _ := env.run(t, "--format", "json", "bp")
	require.Equal(t, ExitSuccess, code)

	var resp struct {
		Status string     `json:"status"`
		PassID string     `json:"pass_id"`
		Data   reportView `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "cli-pass", resp.PassID)
	assert.Equal(t, 1, resp.Data.Banned)
	assert.Equal(t, 1, resp.Data.WhitelistSkipped)
}

func TestBanPass_FirewallDown(t *testing.T) {
	env := newTestEnv(t)
	env.fw.FailQuery(true)

	code, stdout, stderr := env.run(t, "bp")
	assert.Equal(t, ExitFailure, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "Error [FIREWALL_QUERY]")
}

func TestBanPass_ItemFailureExitsNonZero(t *testing.T) {
	env := newTestEnv(t)
	env.fw.FailBan("198.51.100.23")

	code, stdout, _ := env.run(t, "bp")
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stdout, "failed: 198.51.100.23")
	assert.Contains(t, stdout, "Failed: 1")
}

func TestShow(t *testing.T) {
	env := newTestEnv(t, "198.51.100.23", "192.0.2.1")
	require.NoError(t, env.store.Save(context.Background(), ban.Record{Address: "198.51.100.23", Path: "/wp-login.php", Pattern: "/wp-*"}))

	code, stdout, _ := env.run(t, "show")
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "198.51.100.23        /wp-*")
	assert.Contains(t, stdout, "192.0.2.1            unknown")
	assert.Contains(t, stdout, "Total: 2")
}

func TestGet(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.store.Save(context.Background(), ban.Record{Address: "198.51.100.23", Path: "/wp-login.php", Pattern: "/wp-*"}))

	code, stdout, _ := env.run(t, "get", "198.51.100.23")
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "Ban details")
	assert.Contains(t, stdout, "| Pattern: /wp-*")

	code, _, stderr := env.run(t, "get", "192.0.2.1")
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stderr, "192.0.2.1 is not in the ban list")

	code, _, _ = env.run(t, "get")
	assert.Equal(t, ExitFailure, code, "missing argument is a usage error")
}

func TestUnban(t *testing.T) {
	env := newTestEnv(t, "198.51.100.23")
	require.NoError(t, env.store.Save(context.Background(), ban.Record{Address: "198.51.100.23", Path: "/wp-login.php", Pattern: "/wp-*"}))

	code, stdout, _ := env.run(t, "unban", "198.51.100.23")
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "Unbanned 198.51.100.23")
	assert.Empty(t, env.fw.Denied())

	code, _, stderr := env.run(t, "unban", "198.51.100.23")
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stderr, "not in the ban list")
}

func TestClear_Empty(t *testing.T) {
	env := newTestEnv(t)

	code, stdout, _ := env.run(t, "clear")
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "No banned addresses.")
}

func TestClear_PartialFailure(t *testing.T) {
	env := newTestEnv(t, "198.51.100.23", "192.0.2.1")
	env.fw.FailUnban("192.0.2.1")

	code, stdout, _ := env.run(t, "clear")
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stdout, "[1/2] unban 198.51.100.23: ok")
	assert.Contains(t, stdout, "[2/2] unban 192.0.2.1: failed")
	assert.Contains(t, stdout, "Cleared: 1/2")
}

func TestRedo(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.store.Save(ctx, ban.Record{Address: "198.51.100.23", Path: "/wp-login.php", Pattern: "/wp-*"}))
	require.NoError(t, env.store.Save(ctx, ban.Record{Address: "127.0.0.1", Path: "/wp-admin/", Pattern: "/wp-*"}))

	code, stdout, _ := env.run(t, "redo")
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "whitelisted  127.0.0.1")
	assert.Contains(t, stdout, "banned       198.51.100.23")
	assert.Equal(t, []string{"198.51.100.23"}, env.fw.Denied())
}

func TestWatch_StopsOnCancel(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	code, stdout, _ := env.runContext(t, ctx, "watch")
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "Watching 1 log(s)")
	assert.Empty(t, env.fw.Denied(), "lines present at start-up are not acted on")
}

func TestWatch_FirewallDown(t *testing.T) {
	env := newTestEnv(t)
	env.fw.FailQuery(true)

	code, _, stderr := env.run(t, "watch")
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stderr, "FIREWALL_QUERY")
}

var _ engine.Firewall = (*testutil.FakeFirewall)(nil)
