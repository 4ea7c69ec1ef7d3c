package cli

import (
	"fmt"

	"github.com/mobile-next/peekpop/commands"
	"github.com/spf13/cobra"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate [script.json]",
	Short: "Replay a touch script against a fresh session",
	Long: `Replays a JSON touch script (touch, surfaceTouch, wait, ticks, tap steps)
against a new preview session and prints the final state, the recorded
events and the steps the gesture rejected. Replays are deterministic unless
--realtime is given, in which case waits sleep and ticks follow the display
refresh interval.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := commands.SimulateRequest{
			ScriptPath: args[0],
			Realtime:   simulateRealtime,
		}

		response := commands.SimulateCommand(cmd.Context(), req)
		printJson(response)
		if response.Status == "error" {
			return fmt.Errorf("%s", response.Error)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().BoolVar(&simulateRealtime, "realtime", false, "replay on a real display clock instead of a manual one")
}
