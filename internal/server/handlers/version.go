package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/fulmenhq/gofulmen/appidentity"
	"github.com/fulmenhq/gofulmen/crucible"
)

var (
	versionMu   sync.RWMutex
	appVersion  = AppInfo{Version: "dev", Commit: "unknown", BuildDate: "unknown"}
	appIdentity *appidentity.Identity
	upstream    *UpstreamInfo
)

// SetVersionInfo records build metadata reported by /version.
func SetVersionInfo(version, commit, buildDate string) {
	versionMu.Lock()
	defer versionMu.Unlock()
	appVersion.Version = version
	appVersion.Commit = commit
	appVersion.BuildDate = buildDate
}

// SetAppIdentity sets the identity used for the reported app name.
func SetAppIdentity(identity *appidentity.Identity) {
	versionMu.Lock()
	defer versionMu.Unlock()
	appIdentity = identity
}

// SetUpstreamInfo records the GraphQL endpoint and limits the server runs with.
func SetUpstreamInfo(info UpstreamInfo) {
	versionMu.Lock()
	defer versionMu.Unlock()
	upstream = &info
}

// VersionResponse is the /version payload.
type VersionResponse struct {
	App          AppInfo       `json:"app"`
	Upstream     *UpstreamInfo `json:"upstream,omitempty"`
	Dependencies DepInfo       `json:"dependencies"`
	Runtime      RuntimeInfo   `json:"runtime"`
}

// AppInfo contains application version details.
type AppInfo struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Commit    string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version,omitempty"`
}

// UpstreamInfo describes the GraphQL API behind the tools.
type UpstreamInfo struct {
	Endpoint    string `json:"endpoint"`
	MaxRequests int    `json:"max_requests"`
	Window      string `json:"window"`
	Timeout     string `json:"timeout"`
	Tools       int    `json:"tools"`
}

// NewUpstreamInfo builds an UpstreamInfo from configured values.
func NewUpstreamInfo(endpoint string, maxRequests int, window, timeout time.Duration, tools int) UpstreamInfo {
	return UpstreamInfo{
		Endpoint:    endpoint,
		MaxRequests: maxRequests,
		Window:      window.String(),
		Timeout:     timeout.String(),
		Tools:       tools,
	}
}

// DepInfo contains dependency version information.
type DepInfo struct {
	Gofulmen string `json:"gofulmen"`
	Crucible string `json:"crucible"`
}

// RuntimeInfo contains runtime environment information.
type RuntimeInfo struct {
	Platform      string `json:"platform"`
	NumCPU        int    `json:"num_cpu"`
	NumGoroutines int    `json:"num_goroutines"`
}

// VersionHandler reports build, upstream and runtime metadata.
func VersionHandler(w http.ResponseWriter, r *http.Request) {
	deps := crucible.GetVersion()

	versionMu.RLock()
	app := appVersion
	app.Name = binaryName(appIdentity)
	var up *UpstreamInfo
	if upstream != nil {
		copied := *upstream
		up = &copied
	}
	versionMu.RUnlock()
	app.GoVersion = runtime.Version()

	response := VersionResponse{
		App:      app,
		Upstream: up,
		Dependencies: DepInfo{
			Gofulmen: deps.Gofulmen,
			Crucible: deps.Crucible,
		},
		Runtime: RuntimeInfo{
			Platform:      runtime.GOOS + "/" + runtime.GOARCH,
			NumCPU:        runtime.NumCPU(),
			NumGoroutines: runtime.NumGoroutine(),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}

func binaryName(identity *appidentity.Identity) string {
	if identity != nil && identity.BinaryName != "" {
		return identity.BinaryName
	}
	if len(os.Args) > 0 && os.Args[0] != "" {
		return filepath.Base(os.Args[0])
	}
	return "unknown"
}
