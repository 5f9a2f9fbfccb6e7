package e2e

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmokeFlow(t *testing.T) {
	home := t.TempDir()
	binaryPath := buildBinary(t)
	require.NoError(t, writeConfigFixture(home))

	_, stderr, err := runDChat(t, binaryPath, home, "", "publish", "action=connect", "username=alice")
	require.NoError(t, err, "stderr: %s", stderr)

	_, stderr, err = runDChat(t, binaryPath, home, "", "say", "hello", "from", "smoke")
	require.NoError(t, err, "stderr: %s", stderr)

	stdout, stderr, err := runDChat(t, binaryPath, home, "", "query", "action=msg")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, `message="hello from smoke"`)
	assert.Contains(t, stdout, `username="smoke-user"`)

	stdout, stderr, err = runDChat(t, binaryPath, home, "", "who")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "alice")
	assert.Contains(t, stdout, "users: 1")
}

func TestSmokeChatSession(t *testing.T) {
	home := t.TempDir()
	binaryPath := buildBinary(t)
	require.NoError(t, writeConfigFixture(home))

	stdout, stderr, err := runDChat(t, binaryPath, home, "hi all\n/quit\n", "chat")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "smoke-user (you)")

	stdout, stderr, err = runDChat(t, binaryPath, home, "", "query", "username=smoke-user")
	require.NoError(t, err, "stderr: %s", stderr)
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], `action="connect"`)
	assert.Contains(t, lines[1], `message="hi all"`)
	assert.Contains(t, lines[2], `action="leaving"`)
}

func buildBinary(t *testing.T) string {
	t.Helper()

	binaryPath := filepath.Join(t.TempDir(), "dchat-e2e")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/dchat")
	cmd.Dir = repoRoot(t)

	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "build dchat binary: %s", string(output))
	return binaryPath
}

func runDChat(t *testing.T, binaryPath, home, stdin string, args ...string) (string, string, error) {
	t.Helper()

	cmd := exec.Command(binaryPath, args...)
	cmd.Env = append(os.Environ(), "HOME="+home)
	cmd.Stdin = strings.NewReader(stdin)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

func repoRoot(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Clean(filepath.Join(wd, "..", ".."))
}

func writeConfigFixture(home string) error {
	configDir := filepath.Join(home, ".dindex")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return err
	}

	config := `username = "smoke-user"

[store]
drivers = ["toml"]

[listen]
poll_interval = "20ms"
`

	return os.WriteFile(filepath.Join(configDir, "config.toml"), []byte(config), 0o644)
}
