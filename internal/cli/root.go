package cli

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var (
	registryFlag string
	locksFlag    string
	trailFlag    string
)

var rootCmd = &cobra.Command{
	Use:   "pacgate",
	Short: "Fail-closed admission gate for Protocol Acknowledgment Certificates",
	Long: "Validates PACs against the agent registry, color lanes, and the\n" +
		"constitutional lock registry before any agent work is admitted.\n" +
		"Denials are the default: anything unverifiable is refused.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&registryFlag, "registry", "", "Path to agent registry YAML (default ~/.pacgate/registry.yaml)")
	rootCmd.PersistentFlags().StringVar(&locksFlag, "locks", "", "Path to lock registry YAML (default ~/.pacgate/locks.yaml)")
	rootCmd.PersistentFlags().StringVar(&trailFlag, "audit-log", "", "Path to the append-only audit trail (default ~/.pacgate/trail.jsonl)")
}

// configDir is where init writes defaults and where unset path flags
// resolve.
func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".pacgate"), nil
}

func registryPath() string {
	if registryFlag != "" {
		return registryFlag
	}
	dir, err := configDir()
	if err != nil {
		return "registry.yaml"
	}
	return filepath.Join(dir, "registry.yaml")
}

func locksPath() string {
	if locksFlag != "" {
		return locksFlag
	}
	dir, err := configDir()
	if err != nil {
		return "locks.yaml"
	}
	return filepath.Join(dir, "locks.yaml")
}

func trailPath() string {
	if trailFlag != "" {
		return trailFlag
	}
	dir, err := configDir()
	if err != nil {
		return "trail.jsonl"
	}
	return filepath.Join(dir, "trail.jsonl")
}
