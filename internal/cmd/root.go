// Package cmd implements the godrives CLI.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/3leaps/godrives/internal/observability"
)

var rootCmd = &cobra.Command{
	Use:   "godrives",
	Short: "Drive content gateway for object storage",
	Long: `godrives serves a uniform contents API over object-store drives.

Drives are mounted by name and accessed through a single gateway that
resolves paths against S3, GCS, HTTP, or local file backends.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// versionInfo holds the build identity injected at link time.
var versionInfo = struct {
	Version   string
	Commit    string
	BuildDate string
}{
	Version:   "dev",
	Commit:    "HEAD",
	BuildDate: "unknown",
}

// SetVersionInfo records the build identity for the version command and
// the /version endpoint.
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
}

var rootLogLevel string

func init() {
	rootCmd.PersistentFlags().StringVar(&rootLogLevel, "log-level", "", "Override log level (debug|info|warn|error)")
}

// Execute runs the CLI and returns any command error.
func Execute() error {
	return rootCmd.Execute()
}

// exitError creates an error that will cause the CLI to exit with the given code.
func exitError(code int, message string, err error) error {
	return fmt.Errorf("%s: %w (exit code %d)", message, err, code)
}

// logCLI is a shorthand for commands writing user-facing output.
func logCLI(msg string) {
	observability.CLILogger.Info(msg)
}
