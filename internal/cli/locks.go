package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/pacgate/internal/constitution"
)

var lockScopes []string

func init() {
	rootCmd.AddCommand(locksCmd)
	locksCmd.AddCommand(locksCoverageCmd)
	locksCmd.AddCommand(locksRequiredCmd)
	locksRequiredCmd.Flags().StringSliceVar(&lockScopes, "scope", nil, "Scope a planned PAC will touch (repeatable)")
	locksRequiredCmd.MarkFlagRequired("scope")
}

var locksCmd = &cobra.Command{
	Use:   "locks",
	Short: "Lock registry operations",
	Long:  "Commands for inspecting the constitutional lock registry.",
}

var locksCoverageCmd = &cobra.Command{
	Use:   "coverage",
	Short: "Verify every active lock has an enforcement mechanism",
	Long: "Lists each lock with its mechanism count. An active lock with zero\n" +
		"mechanisms is advisory fiction; the registry refuses to load with one,\n" +
		"so this command parses without the coverage gate to show the gap.\n" +
		"Exits 0 when coverage is complete, 1 otherwise.",
	RunE: runLocksCoverage,
}

var locksRequiredCmd = &cobra.Command{
	Use:   "required",
	Short: "List the locks a scope set must acknowledge",
	RunE:  runLocksRequired,
}

func runLocksCoverage(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(locksPath())
	if err != nil {
		return fmt.Errorf("read lock registry: %w", err)
	}
	engine, err := constitution.Parse(data)
	if err != nil {
		return fmt.Errorf("parse lock registry: %w", err)
	}

	fmt.Printf("%-16s %-10s %-10s %-6s %s\n", "LOCK", "TYPE", "SEVERITY", "MECHS", "SCOPE")
	for _, lock := range engine.Locks() {
		status := ""
		if !lock.Active() {
			status = " (inactive)"
		}
		fmt.Printf("%-16s %-10s %-10s %-6d %s%s\n",
			lock.LockID, lock.Type, lock.Severity, lock.MechanismCount(),
			strings.Join(lock.Scope, ","), status)
	}

	if uncovered := engine.ValidateEnforcementCoverage(); len(uncovered) > 0 {
		fmt.Fprintf(os.Stderr, "UNCOVERED: %s\n", strings.Join(uncovered, ", "))
		os.Exit(1)
	}
	fmt.Println("OK: every active lock is enforced")
	return nil
}

func runLocksRequired(cmd *cobra.Command, args []string) error {
	engine, err := constitution.Load(locksPath())
	if err != nil {
		return fmt.Errorf("load lock registry: %w", err)
	}

	required := engine.RequiredLocks(lockScopes)
	if len(required) == 0 {
		fmt.Printf("No lock acknowledgments required for scopes: %s\n", strings.Join(lockScopes, ", "))
		return nil
	}
	for _, id := range required {
		fmt.Println(id)
	}
	return nil
}
