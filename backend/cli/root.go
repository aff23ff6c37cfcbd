package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand builds the pollhub command tree: serve, migrate, admin.
func NewRootCommand() *cobra.Command {
	var cfgPath string
	root := &cobra.Command{
		Use:           "pollhub",
		Short:         "Agent registration and command dispatch registry",
		Long:          "pollhub keeps clients by (domain, client_id); agents poll for commands and report results, admins queue commands and read results.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "Path to YAML configuration file")

	root.AddCommand(newServeCommand(&cfgPath), newMigrateCommand(&cfgPath), newAdminCommand())
	return root
}
