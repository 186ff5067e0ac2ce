package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	pacmcp "github.com/ppiankov/pacgate/internal/mcp"
)

var mcpNoTrail bool

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().BoolVar(&mcpNoTrail, "no-audit", false, "Skip writing attempts to the audit trail")
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP admission server for agent integration",
	Long: "Runs pacgate as an MCP (Model Context Protocol) server over stdio.\n" +
		"Exposes the admission tools: pacgate_admit, pacgate_check,\n" +
		"pacgate_required_locks, pacgate_agent. The registry file is watched\n" +
		"and reloaded on change.",
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg := pacmcp.Config{
		RegistryPath: registryPath(),
		LockPath:     locksPath(),
		Version:      version,
	}
	if !mcpNoTrail {
		cfg.TrailPath = trailPath()
	}

	srv, err := pacmcp.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down MCP server...")
		cancel()
	}()

	fmt.Fprintln(os.Stderr, "pacgate MCP server running on stdio")
	return srv.Run(ctx)
}
