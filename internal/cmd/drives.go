package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"

	"github.com/3leaps/godrives/internal/config"
	"github.com/3leaps/godrives/pkg/gateway"
	"github.com/3leaps/godrives/pkg/provider"
	"github.com/3leaps/godrives/pkg/registry"
	"github.com/3leaps/godrives/pkg/restclient"
)

var drivesCmd = &cobra.Command{
	Use:   "drives",
	Short: "Drive discovery",
}

var drivesListCmd = &cobra.Command{
	Use:   "list [pattern]",
	Short: "List drives visible to the configured credentials",
	Long: `List the drives (buckets) visible to the configured credentials.

An optional glob pattern filters drive names.

Examples:
  godrives drives list
  godrives drives list 'data-*'
  godrives drives list --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDrivesList,
}

var drivesListJSON bool

func init() {
	rootCmd.AddCommand(drivesCmd)
	drivesCmd.AddCommand(drivesListCmd)

	drivesListCmd.Flags().BoolVar(&drivesListJSON, "json", false, "Emit JSON instead of a table")
}

func runDrivesList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load(ctx)
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid configuration", err)
	}

	kind, err := provider.ParseKind(cfg.Provider.Name)
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid provider", err)
	}

	rest := restclient.New(restclient.Config{
		BaseURL:         cfg.Provider.APIBaseURL,
		AccessKeyID:     cfg.Provider.AccessKeyID,
		SecretAccessKey: cfg.Provider.SecretAccessKey,
		SessionToken:    cfg.Provider.SessionToken,
		Timeout:         cfg.Client.Timeout,
	}, nil)

	lister, err := buildLister(ctx, cfg, rest)
	if err != nil {
		return exitError(foundry.ExitExternalServiceUnavailable, "Drive discovery unavailable", err)
	}
	if lister == nil {
		return exitError(foundry.ExitInvalidArgument, "Drive discovery unavailable", provider.ErrUnsupported)
	}

	reg := registry.New(registry.NewFactory(registry.FactoryConfig{FileRoot: cfg.Provider.FileRoot}, rest), nil)
	gw := gateway.New(reg, kind, nil, gateway.WithContainerLister(lister))

	pattern := ""
	if len(args) == 1 {
		pattern = args[0]
	}

	drives, err := gw.ListDrives(ctx, pattern)
	if err != nil {
		return exitError(foundry.ExitExternalServiceUnavailable, "Failed to list drives", err)
	}

	if drivesListJSON {
		out, err := json.MarshalIndent(drives, "", "  ")
		if err != nil {
			return exitError(foundry.ExitInvalidArgument, "Failed to encode drives", err)
		}
		fmt.Println(string(out))
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tREGION\tPROVIDER\tCREATED")
	for _, d := range drives {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.Name, d.Region, d.Provider, d.CreationDate)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	logCLI(fmt.Sprintf("%d drive(s)", len(drives)))
	return nil
}
