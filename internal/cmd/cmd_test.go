package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/tarkovmcp/tarkovmcp/internal/config"
	"github.com/tarkovmcp/tarkovmcp/internal/core/gateway"
	errwrap "github.com/tarkovmcp/tarkovmcp/internal/errors"
	"github.com/tarkovmcp/tarkovmcp/internal/observability"
)

func TestParseToolArgs(t *testing.T) {
	args, err := parseToolArgs(`{"item_names":["ledx"],"limit":3}`, []string{
		"limit=5",
		"name=LEDX Skin Transilluminator",
		"flag=true",
		"raw=not json",
	})
	require.NoError(t, err)
	require.Equal(t, []any{"ledx"}, args["item_names"])
	require.Equal(t, float64(5), args["limit"])
	require.Equal(t, "LEDX Skin Transilluminator", args["name"])
	require.Equal(t, true, args["flag"])
	require.Equal(t, "not json", args["raw"])

	_, err = parseToolArgs("", []string{"missing-separator"})
	require.Error(t, err)

	_, err = parseToolArgs("[1,2]", nil)
	require.Error(t, err)

	empty, err := parseToolArgs("", nil)
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestExitWithCodeStderrReportsEnvelope(t *testing.T) {
	var code int
	previous := osExit
	osExit = func(c int) { code = c }
	t.Cleanup(func() { osExit = previous })

	ExitWithCodeStderr(foundry.ExitConfigInvalid, "Config load failed", errwrap.NewConfigInvalidError("window must be positive"))
	require.Equal(t, int(foundry.ExitConfigInvalid), code)
}

func TestWriteFailureFormats(t *testing.T) {
	var buf bytes.Buffer
	writeFailure(&buf, foundry.ExitFailure, "Tool call failed", nil)
	require.Contains(t, buf.String(), "FATAL: Tool call failed\n")
	require.Contains(t, buf.String(), "Exit Code: 1")

	buf.Reset()
	writeFailure(&buf, foundry.ExitConfigInvalid, "Config load failed", errwrap.NewConfigInvalidError("window must be positive"))
	require.Contains(t, buf.String(), "["+errwrap.CodeConfigInvalid+"]: window must be positive")

	buf.Reset()
	writeFailure(&buf, foundry.ExitFailure, "Query failed", fmt.Errorf("boom"))
	require.Contains(t, buf.String(), "FATAL: Query failed: boom")
}

func TestExitCodeFor(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want foundry.ExitCode
	}{
		{"transport", &gateway.Error{Kind: gateway.KindTransport, Err: fmt.Errorf("dial")}, foundry.ExitExternalServiceUnavailable},
		{"upstream", &gateway.Error{Kind: gateway.KindUpstream, StatusCode: 500}, foundry.ExitExternalServiceUnavailable},
		{"configuration", &gateway.Error{Kind: gateway.KindConfiguration}, foundry.ExitConfigInvalid},
		{"cancelled", &gateway.Error{Kind: gateway.KindCancelled, Err: context.Canceled}, foundry.ExitExternalServiceUnavailable},
		{"invalid config", fmt.Errorf("load: %w", config.ErrInvalid), foundry.ExitConfigInvalid},
		{"envelope", errwrap.NewConfigInvalidError("bad"), foundry.ExitConfigInvalid},
		{"missing file", fmt.Errorf("read query: %w", os.ErrNotExist), foundry.ExitFileNotFound},
		{"other", fmt.Errorf("boom"), foundry.ExitFailure},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ExitCodeFor(tc.err))
		})
	}
}

func TestBuildInitConfigDecodes(t *testing.T) {
	raw := buildInitConfig("tarkov-mcp")

	var settings map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(raw), &settings))

	cfg, err := config.Decode(settings)
	require.NoError(t, err)
	require.Equal(t, "https://api.tarkov.dev/graphql", cfg.API.URL)
	require.Equal(t, 60, cfg.RateLimit.MaxRequests)
	require.False(t, cfg.Cache.Enabled)
}

func TestReadDocument(t *testing.T) {
	doc, err := readDocument(bytes.NewBufferString("\n query Maps { maps { name } }\n"), "-")
	require.NoError(t, err)
	require.Equal(t, "query Maps { maps { name } }", doc)

	_, err = readDocument(bytes.NewBufferString("   "), "-")
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "q.graphql")
	require.NoError(t, os.WriteFile(path, []byte("{ traders { name } }"), 0o600))
	doc, err = readDocument(nil, path)
	require.NoError(t, err)
	require.Equal(t, "{ traders { name } }", doc)

	_, err = readDocument(nil, filepath.Join(t.TempDir(), "missing.graphql"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestCallCommandRunsToolAgainstUpstream(t *testing.T) {
	observability.InitCLILogger("test", false)

	var requests atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		var body struct {
			Query string `json:"query"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"maps":[{"name":"Customs","normalizedName":"customs","raidDuration":40,"players":"8-12","bosses":[]}]}}`))
	}))
	defer upstream.Close()

	t.Setenv("TARKOV_MCP_API_URL", upstream.URL)
	t.Setenv("TARKOV_MCP_CACHE_ENABLED", "false")

	var out bytes.Buffer
	callCmd.SetOut(&out)
	t.Cleanup(func() {
		callCmd.SetOut(nil)
		callArgs = nil
		callArgsJSON = ""
	})
	callCmd.SetContext(context.Background())

	require.NoError(t, callCmd.RunE(callCmd, []string{"get_maps"}))
	require.Equal(t, int32(1), requests.Load())
	require.Contains(t, out.String(), "Customs")
}

func TestCallCommandUnknownTool(t *testing.T) {
	observability.InitCLILogger("test", false)
	t.Setenv("TARKOV_MCP_API_URL", "http://127.0.0.1:1/graphql")

	callCmd.SetContext(context.Background())
	err := callCmd.RunE(callCmd, []string{"no_such_tool"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown tool")
}

func TestCommandSinkTargets(t *testing.T) {
	newCmd := func(args ...string) *cobra.Command {
		c := &cobra.Command{Use: "query"}
		addOutputFlags(c)
		require.NoError(t, c.ParseFlags(args))
		return c
	}

	stdout := newCmd()
	var buf bytes.Buffer
	stdout.SetOut(&buf)
	sink, err := commandSink(stdout, "GetMaps", "json")
	require.NoError(t, err)
	require.Equal(t, "-", sink.path)
	_, _ = sink.writer.Write([]byte("{}"))
	require.Equal(t, "{}", buf.String())

	dir := t.TempDir()
	sink, err = commandSink(newCmd("--out-dir", dir), "GetItemsByIDs", "md")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "getitemsbyids.md"), sink.path)
	require.NoError(t, sink.close())

	_, err = commandSink(newCmd("--out", filepath.Join(dir, "a.json"), "--out-dir", dir), "x", "json")
	require.ErrorIs(t, err, errOutputFlagsConflict)
}

func TestOutputFileName(t *testing.T) {
	require.Equal(t, "cache.list.yaml", outputFileName("cache.list", "yaml"))
	require.Equal(t, "output.json", outputFileName("  ../  ", "json"))
	require.Equal(t, "tools", outputFileName("Tools", ""))
}
