// Package version reports build metadata and the engine drivers linked into the binary.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sort"
	"strings"
)

// Set through -ldflags "-X github.com/andrew2loo/RethinkBI/internal/version.Version=...".
var (
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// driverModules maps engine and encoding modules to the names shown by `version`.
var driverModules = map[string]string{
	"github.com/marcboeker/go-duckdb": "duckdb",
	"github.com/mattn/go-sqlite3":     "sqlite",
	"github.com/lib/pq":               "postgres",
	"github.com/go-sql-driver/mysql":  "mysql",
	"github.com/microsoft/go-mssqldb": "mssql",
	"github.com/apache/arrow-go/v18":  "arrow",
}

// Info describes the running binary.
type Info struct {
	Version   string            `json:"version"`
	BuildDate string            `json:"buildDate"`
	GitCommit string            `json:"gitCommit"`
	GoVersion string            `json:"goVersion"`
	Platform  string            `json:"platform"`
	Drivers   map[string]string `json:"drivers,omitempty"`
}

// Get collects the build information. Values not set by -ldflags fall back to the module
// build info when the binary was built with `go install`.
func Get() Info {
	info := Info{
		Version:   Version,
		BuildDate: BuildDate,
		GitCommit: GitCommit,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = strings.TrimPrefix(bi.Main.Version, "v")
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.GitCommit == "unknown" {
				info.GitCommit = s.Value
			}
		case "vcs.time":
			if info.BuildDate == "unknown" {
				info.BuildDate = s.Value
			}
		}
	}
	info.Drivers = drivers(bi.Deps)
	return info
}

func drivers(deps []*debug.Module) map[string]string {
	out := map[string]string{}
	for _, dep := range deps {
		mod := dep
		if dep.Replace != nil {
			mod = dep.Replace
		}
		if name, ok := driverModules[dep.Path]; ok {
			out[name] = mod.Version
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// String returns the one-line form.
func (i Info) String() string {
	return fmt.Sprintf("rethinkbi version %s (%s %s)", i.Version, i.Platform, i.GoVersion)
}

// FullString lists every field, drivers sorted by name.
func (i Info) FullString() string {
	var b strings.Builder
	fmt.Fprintf(&b, "rethinkbi version %s\n", i.Version)
	fmt.Fprintf(&b, "Build Date: %s\n", i.BuildDate)
	fmt.Fprintf(&b, "Git Commit: %s\n", i.GitCommit)
	fmt.Fprintf(&b, "Platform: %s\n", i.Platform)
	fmt.Fprintf(&b, "Go Version: %s", i.GoVersion)

	names := make([]string, 0, len(i.Drivers))
	for name := range i.Drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, "\n  %s: %s", name, i.Drivers[name])
	}
	return b.String()
}
