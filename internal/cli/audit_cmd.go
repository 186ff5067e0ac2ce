package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/pacgate/internal/audit"
)

var replayFormat string

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditVerifyCmd)
	auditCmd.AddCommand(auditReplayCmd)
	auditReplayCmd.Flags().StringVarP(&replayFormat, "format", "f", "timeline", "Output format (timeline|json)")
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit trail operations",
	Long:  "Commands for verifying and replaying the hash-chained audit trail.",
}

var auditVerifyCmd = &cobra.Command{
	Use:   "verify [path]",
	Short: "Verify hash chain integrity of the audit trail",
	Long: "Walks the JSONL trail and validates that every entry's prev_hash\n" +
		"matches the SHA-256 of the previous line. Exits 0 if valid, 1 if\n" +
		"tampered.",
	Args: cobra.MaximumNArgs(1),
	RunE: runAuditVerify,
}

var auditReplayCmd = &cobra.Command{
	Use:   "replay <pac-id> [path]",
	Short: "Reconstruct one PAC's admission history",
	Long: "Collects every attempt recorded for the given PAC and renders the\n" +
		"timeline: outcomes, reasons, and missing locks per attempt.",
	Args: cobra.RangeArgs(1, 2),
	RunE: runAuditReplay,
}

func runAuditVerify(cmd *cobra.Command, args []string) error {
	path := trailPath()
	if len(args) == 1 {
		path = args[0]
	}

	result := audit.Verify(path)
	if result.Valid {
		fmt.Printf("OK: %d entries verified\n", result.Lines)
		return nil
	}
	fmt.Fprintf(os.Stderr, "FAILED at line %d: %s\n", result.ErrorLine, result.Error)
	os.Exit(1)
	return nil
}

func runAuditReplay(cmd *cobra.Command, args []string) error {
	path := trailPath()
	if len(args) == 2 {
		path = args[1]
	}

	result, err := audit.Replay(path, args[0])
	if err != nil {
		return err
	}

	switch replayFormat {
	case "json":
		out, err := audit.FormatJSON(result)
		if err != nil {
			return err
		}
		fmt.Println(out)
	default:
		fmt.Print(audit.FormatTimeline(result))
	}
	return nil
}
