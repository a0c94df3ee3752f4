package e2e

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/bnema/feedlink/internal/adapters/transport/rpc/rpctest"
	"github.com/bnema/feedlink/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmokeFlow(t *testing.T) {
	dir := t.TempDir()
	binaryPath := buildBinary(t)

	backend := rpctest.NewBackend("feedlink-e2e")
	t.Cleanup(backend.Close)
	backend.AddUser(domain.User{ID: "u1", Name: "Alice"})
	backend.AddUser(domain.User{ID: "u2", Name: "Bob"})
	backend.AddTweets(domain.Tweet{ID: "t1", AuthorID: "u2", Content: "hello world", Rank: 1})

	_, stderr, err := runFL(t, binaryPath, dir, "session", "catalog", backend.URL())
	require.NoError(t, err, "stderr: %s", stderr)

	stdout, stderr, err := runFL(t, binaryPath, dir, "login", "u1")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "user: u1")

	stdout, stderr, err = runFL(t, binaryPath, dir, "feed")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "hello world")

	_, stderr, err = runFL(t, binaryPath, dir, "message", "send", "u2", "hi bob")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Len(t, backend.Log("u2"), 1)

	stdout, stderr, err = runFL(t, binaryPath, dir, "message", "list", "u2")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "you: hi bob")
}

func buildBinary(t *testing.T) string {
	t.Helper()

	binaryPath := filepath.Join(t.TempDir(), "fl-e2e")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/fl")
	cmd.Dir = repoRoot(t)

	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "build fl binary: %s", string(output))
	return binaryPath
}

func runFL(t *testing.T, binaryPath, dir string, args ...string) (string, string, error) {
	t.Helper()

	cmd := exec.Command(binaryPath, args...)
	cmd.Env = append(os.Environ(), "HOME="+dir, "FL_CONFIG_DIR="+dir)

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
