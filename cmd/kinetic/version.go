package main

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/kinetic/internal/config"
)

// runtimeDeps are the modules whose versions shape rendering and telemetry.
var runtimeDeps = []string{
	"golang.org/x/net",
	"go.opentelemetry.io/otel",
	"github.com/prometheus/client_golang",
}

type buildInfo struct {
	Version       string            `json:"version"`
	Commit        string            `json:"commit"`
	Built         string            `json:"built"`
	Go            string            `json:"go"`
	Platform      string            `json:"platform"`
	FrameInterval string            `json:"frameInterval"`
	Deps          map[string]string `json:"deps,omitempty"`
}

func readBuildInfo() buildInfo {
	info := buildInfo{
		Version:       version,
		Commit:        commit,
		Built:         date,
		Go:            runtime.Version(),
		Platform:      runtime.GOOS + "/" + runtime.GOARCH,
		FrameInterval: config.DefaultFrameInterval.String(),
	}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, dep := range bi.Deps {
		for _, want := range runtimeDeps {
			if dep.Path == want {
				if info.Deps == nil {
					info.Deps = make(map[string]string)
				}
				info.Deps[dep.Path] = dep.Version
			}
		}
	}
	return info
}

func (b buildInfo) print(out io.Writer) {
	fmt.Fprint(out, banner)
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  kinetic %s (%s, built %s)\n", b.Version, b.Commit, b.Built)
	fmt.Fprintf(out, "  %s on %s, frame interval %s\n", b.Go, b.Platform, b.FrameInterval)
	for _, path := range runtimeDeps {
		if v, ok := b.Deps[path]; ok {
			fmt.Fprintf(out, "  %-40s %s\n", path, v)
		}
	}
	fmt.Fprintln(out)
}

func versionCmd() *cobra.Command {
	var short, asJSON bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long: strings.TrimSpace(`
Print the kinetic version, the Go toolchain it was built with, the default
frame interval, and the versions of the modules the runtime renders and
reports through.`),
		RunE: func(cmd *cobra.Command, args []string) error {
			info := readBuildInfo()
			out := cmd.OutOrStdout()
			switch {
			case short:
				fmt.Fprintln(out, info.Version)
			case asJSON:
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			default:
				info.print(out)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only the version")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print build information as JSON")

	return cmd
}
