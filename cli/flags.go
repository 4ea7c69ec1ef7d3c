package cli

var (
	verbose bool

	// all commands
	configPath string

	// for simulate command
	simulateRealtime bool
)
