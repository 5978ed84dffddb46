package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/vango-dev/cellgraph/internal/config"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// globals holds the persistent flags shared by every command.
type globals struct {
	configPath string
	logLevel   string
	logFormat  string
	driver     string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globals{}

	rootCmd := &cobra.Command{
		Use:   "todos",
		Short: "A todo list on an incremental computation graph",
		Long: `todos keeps a todo list in a cellgraph runtime.

Every command loads the list from the configured store, applies one
update and saves it back. The serve command keeps the runtime alive
and exposes it over HTTP and WebSocket.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", config.ConfigFileName, "Path to the config file")
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&g.logFormat, "log-format", "", "Log format: text or json")
	rootCmd.PersistentFlags().StringVar(&g.driver, "store", "", "Store driver: memory, sqlite, postgres, s3")

	rootCmd.AddCommand(
		addCmd(g),
		listCmd(g),
		toggleCmd(g),
		removeCmd(g),
		renameCmd(g),
		toggleAllCmd(g),
		clearCompletedCmd(g),
		serveCmd(g),
		versionCmd(),
	)

	return rootCmd
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}
