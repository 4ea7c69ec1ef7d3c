package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mobile-next/peekpop/commands"
	"github.com/mobile-next/peekpop/config"
	"github.com/mobile-next/peekpop/sim"
	"github.com/mobile-next/peekpop/utils"
	"github.com/spf13/cobra"
)

const version = "dev"

// cfg is the effective configuration, loaded before any command runs
var cfg = config.Default()

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "peekpop",
	Short: "A press-and-hold preview gesture simulator",
	Long:  `Drives the peek and pop preview gesture from scripts or a JSON-RPC server, without a device.`,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	Version:           version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

func initConfig() {
	utils.SetVerbose(verbose)
}

// loadConfig reads the config file and installs the session registry
func loadConfig(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg = loaded

	settings, err := sim.SettingsFromConfig(cfg)
	if err != nil {
		return err
	}

	registry, err := sim.NewRegistry(settings)
	if err != nil {
		return fmt.Errorf("failed to create session registry: %w", err)
	}
	commands.SetRegistry(registry)
	return nil
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to an INI configuration file")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// printJson is a helper function to print JSON responses
func printJson(data interface{}) {
	if err := writeJson(os.Stdout, data); err != nil {
		utils.Warn("Failed to encode response: %v", err)
		os.Exit(1)
	}
}

func writeJson(w io.Writer, data interface{}) error {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(jsonData))
	return err
}
