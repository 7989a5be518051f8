package integration

import (
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/stretchr/testify/require"
)

// buildBinary compiles cmd/tarkov-mcp and copies it into a directory with no
// .fulmen/app.yaml nearby, so the embedded identity is what loads.
func buildBinary(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("binary tests are unix-only")
	}

	goMod, err := exec.Command("go", "env", "GOMOD").Output()
	require.NoError(t, err)
	repoRoot := filepath.Dir(strings.TrimSpace(string(goMod)))
	require.NotEqual(t, ".", repoRoot, "go env GOMOD returned empty")

	built := filepath.Join(t.TempDir(), "tarkov-mcp")
	build := exec.Command("go", "build", "-o", built, "./cmd/tarkov-mcp")
	build.Dir = repoRoot
	out, err := build.CombinedOutput()
	require.NoError(t, err, string(out))

	data, err := os.ReadFile(built)
	require.NoError(t, err)
	standalone := filepath.Join(t.TempDir(), "tarkov-mcp")
	require.NoError(t, os.WriteFile(standalone, data, 0o755))
	return standalone
}

type binaryRun struct {
	stdout   string
	stderr   string
	exitCode int
}

func runBinary(t *testing.T, binary string, env []string, args ...string) binaryRun {
	t.Helper()
	home := t.TempDir()
	cmd := exec.Command(binary, args...)
	cmd.Dir = filepath.Dir(binary)
	cmd.Env = append([]string{"HOME=" + home, "XDG_CONFIG_HOME=" + filepath.Join(home, ".config"), "PATH=" + os.Getenv("PATH")}, env...)

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()

	run := binaryRun{stdout: stdout.String(), stderr: stderr.String()}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		run.exitCode = exitErr.ExitCode()
	} else {
		require.NoError(t, err)
	}
	return run
}

func TestStandaloneBinary(t *testing.T) {
	binary := buildBinary(t)

	t.Run("version and help", func(t *testing.T) {
		for _, args := range [][]string{{"version"}, {"--help"}} {
			run := runBinary(t, binary, nil, args...)
			require.Zero(t, run.exitCode, run.stderr)
			require.Contains(t, run.stdout, "tarkov-mcp")
		}
	})

	t.Run("tools list json", func(t *testing.T) {
		run := runBinary(t, binary, nil, "tools", "list", "--output-format", "json")
		require.Zero(t, run.exitCode, run.stderr)

		var catalog []struct {
			Name     string `json:"name"`
			Category string `json:"category"`
		}
		require.NoError(t, json.Unmarshal([]byte(run.stdout), &catalog))
		names := make(map[string]string, len(catalog))
		for _, info := range catalog {
			names[info.Name] = info.Category
		}
		for _, name := range []string{"search_items", "get_maps", "get_goon_reports"} {
			require.Contains(t, names, name)
		}
	})

	t.Run("call against fake upstream", func(t *testing.T) {
		api := &fakeTarkovAPI{}
		upstream := startServer(t, api)

		run := runBinary(t, binary, []string{"TARKOV_MCP_API_URL=" + upstream.URL}, "call", "get_maps")
		require.Zero(t, run.exitCode, run.stderr)
		require.Contains(t, run.stdout, "## Woods")
		require.Contains(t, run.stdout, "**Bosses:** Shturman")
		require.Equal(t, int32(1), api.requests.Load())
	})

	t.Run("invalid rate limit exits with config code", func(t *testing.T) {
		run := runBinary(t, binary, []string{"TARKOV_MCP_RATE_LIMIT_MAX_REQUESTS=0"}, "call", "get_maps")
		require.Equal(t, int(foundry.ExitConfigInvalid), run.exitCode)
		require.Contains(t, run.stderr, "rate_limit.max_requests")
	})
}
