package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "importer",
		Short: "Import transaction CSV files into fortuna",
		Long: `importer reads a CSV export of transactions (title, type, value, category),
creates any categories that don't exist yet, stores the transactions and
removes the source file once everything is saved.

Connection settings are read from the environment (DATABASE_URL, S3_*), the
same way the API server reads them.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			} else {
				zerolog.SetGlobalLevel(zerolog.InfoLevel)
			}
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newImportCmd())
	root.AddCommand(newVersionCmd())
	return root
}
