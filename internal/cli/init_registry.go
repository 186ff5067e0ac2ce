package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ppiankov/pacgate/internal/constitution"
	"github.com/ppiankov/pacgate/internal/registry"
)

var (
	initDir   string
	initForce bool
)

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVar(&initDir, "dir", "", "Config directory (default ~/.pacgate)")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing config files")
}

var initCmd = &cobra.Command{
	Use:   "init-registry",
	Short: "Bootstrap the agent and lock registries",
	Long: "Writes the starter agent registry and lock registry into the config\n" +
		"directory. Existing files are left alone unless --force is set.",
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := initDir
	if dir == "" {
		var err error
		dir, err = configDir()
		if err != nil {
			return fmt.Errorf("cannot determine config directory: %w", err)
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	var created []string
	files := []struct {
		name, content string
	}{
		{"registry.yaml", registry.DefaultRegistryYAML},
		{"locks.yaml", constitution.DefaultLockRegistryYAML},
	}
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		wrote, err := writeIfMissing(path, f.content)
		if err != nil {
			return err
		}
		if wrote {
			created = append(created, path)
		}
	}

	fmt.Println("pacgate init complete.")
	fmt.Println()
	if len(created) > 0 {
		fmt.Println("Created:")
		for _, path := range created {
			fmt.Printf("  %s\n", path)
		}
	} else {
		fmt.Println("All files already exist (use --force to overwrite).")
	}
	fmt.Println()
	fmt.Println("Validate:")
	fmt.Println("  pacgate registry validate")
	fmt.Println("  pacgate locks coverage")
	fmt.Println()
	fmt.Println("Admit a PAC:")
	fmt.Println("  pacgate admit <pac-file>")

	return nil
}

// writeIfMissing writes content to path unless it already exists and
// --force is unset. Returns true if the file was written.
func writeIfMissing(path, content string) (bool, error) {
	if !initForce {
		if _, err := os.Stat(path); err == nil {
			return false, nil
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return true, nil
}
