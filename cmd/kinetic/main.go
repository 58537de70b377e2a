package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/kinetic/internal/config"
	"github.com/vango-dev/kinetic/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ╦╔═┬┌┐┌┌─┐┌┬┐┬┌─┐
  ╠╩╗││││├┤  │ ││
  ╩ ╩┴┘└┘└─┘ ┴ ┴└─┘
`

// globals holds the persistent flags.
type globals struct {
	configPath string
	logLevel   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.Print(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	rootCmd := &cobra.Command{
		Use:   "kinetic",
		Short: "A reactive component runtime for Go",
		Long: `Kinetic runs reactive UI components against a headless document.

Components declare reactive fields, re-render when they change, and have
their trees patched into the document in batched frames. This CLI renders
and serves the bundled demo application:

  • render   mount the demo headlessly and print the document
  • serve    run a live preview server with actions and metrics`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "Config file (default: kinetic.{toml,yaml,yml,json} in . or a parent)")
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Override log.level (debug, info, warn, error)")

	rootCmd.AddCommand(
		renderCmd(g),
		serveCmd(g),
		versionCmd(),
	)
	return rootCmd
}

// load resolves the configuration for a command.
func (g *globals) load() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if g.configPath != "" {
		cfg, err = config.Load(g.configPath)
	} else {
		cfg, err = config.Discover(".")
	}
	if err != nil {
		return nil, err
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// printBanner prints the ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "  %s\n", fmt.Sprintf(format, args...))
}
