package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/pacgate/internal/registry"
)

var registryFormat string

func init() {
	rootCmd.AddCommand(registryCmd)
	registryCmd.AddCommand(registryValidateCmd)
	registryCmd.AddCommand(registryAgentsCmd)
	registryCmd.AddCommand(registryDiffCmd)
	registryAgentsCmd.Flags().StringVarP(&registryFormat, "format", "f", "text", "Output format (text|json)")
}

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Agent registry operations",
	Long:  "Commands for validating and inspecting the immutable agent registry.",
}

var registryValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the registry schema and invariants",
	Long: "Loads the registry and reports every schema problem and invariant\n" +
		"violation at once. Exits 0 when the registry is loadable, 1 otherwise.",
	RunE: runRegistryValidate,
}

var registryAgentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List registered agents",
	RunE:  runRegistryAgents,
}

var registryDiffCmd = &cobra.Command{
	Use:   "diff <old> <new>",
	Short: "Check a registry update for immutable-field changes",
	Long: "Compares two registry files and reports every immutable field that\n" +
		"changed without a version bump. Exits 0 when the update is admissible,\n" +
		"1 otherwise.",
	Args: cobra.ExactArgs(2),
	RunE: runRegistryDiff,
}

func runRegistryValidate(cmd *cobra.Command, args []string) error {
	reg, err := registry.Load(registryPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "INVALID: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("OK: registry %s, %d agents, %d color lanes\n",
		reg.Version(), len(reg.Agents()), len(reg.Colors()))
	return nil
}

func runRegistryAgents(cmd *cobra.Command, args []string) error {
	reg, err := registry.Load(registryPath())
	if err != nil {
		return fmt.Errorf("load agent registry: %w", err)
	}

	agents := reg.Agents()
	if registryFormat == "json" {
		type row struct {
			Name  string `json:"name"`
			GID   string `json:"gid"`
			Color string `json:"color"`
			Lane  string `json:"lane"`
			Level string `json:"level"`
			Role  string `json:"role"`
		}
		rows := make([]row, 0, len(agents))
		for _, a := range agents {
			rows = append(rows, row{
				Name: a.Name, GID: a.GID, Color: string(a.Color),
				Lane: a.Lane, Level: string(a.Level), Role: a.Role,
			})
		}
		out, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	fmt.Printf("%-10s %-8s %-10s %-4s %s\n", "AGENT", "GID", "COLOR", "LVL", "LANE")
	for _, a := range agents {
		fmt.Printf("%-10s %-8s %-10s %-4s %s\n", a.Name, a.GID, a.Color, a.Level, a.Lane)
	}
	return nil
}

func runRegistryDiff(cmd *cobra.Command, args []string) error {
	oldReg, err := registry.Load(args[0])
	if err != nil {
		return fmt.Errorf("load %s: %w", args[0], err)
	}
	newReg, err := registry.Load(args[1])
	if err != nil {
		return fmt.Errorf("load %s: %w", args[1], err)
	}

	violations := registry.ValidateMutability(oldReg, newReg)
	if len(violations) == 0 {
		fmt.Println("OK: update preserves all immutable fields")
		return nil
	}

	for _, v := range violations {
		if v.Field == "" {
			fmt.Fprintf(os.Stderr, "VIOLATION: agent %s removed without version bump\n", v.Record)
			continue
		}
		fmt.Fprintf(os.Stderr, "VIOLATION: %s.%s changed %q -> %q without version bump\n",
			v.Record, v.Field, v.Old, v.New)
	}
	os.Exit(1)
	return nil
}
