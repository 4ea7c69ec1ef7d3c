package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long:  `Prints the configuration in INI format, with defaults filled in for anything the config file leaves out.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := cfg.WriteTo(os.Stdout)
		return err
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
