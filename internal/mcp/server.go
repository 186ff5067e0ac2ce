// Package mcp exposes the admission pipeline over the Model Context
// Protocol, so agent runtimes can gate their own PACs before acting on
// them.
package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ppiankov/pacgate/internal/admission"
	"github.com/ppiankov/pacgate/internal/audit"
	"github.com/ppiankov/pacgate/internal/constitution"
	"github.com/ppiankov/pacgate/internal/registry"
)

// Config holds MCP server configuration.
type Config struct {
	RegistryPath string
	LockPath     string
	TrailPath    string
	Version      string
}

// Server wraps the MCP SDK server around the admission gate. The
// registry is held in a store so an out-of-band edit to the file is
// picked up without restarting the server.
type Server struct {
	mcpServer *mcpsdk.Server
	store     *registry.Store
	engine    *constitution.Engine
	gate      *admission.Gate
	trail     *audit.Trail
}

// New loads the registries and builds the server with all tools
// registered.
func New(cfg Config) (*Server, error) {
	store, err := registry.OpenStore(cfg.RegistryPath)
	if err != nil {
		return nil, fmt.Errorf("load agent registry: %w", err)
	}

	engine, err := constitution.Load(cfg.LockPath)
	if err != nil {
		return nil, fmt.Errorf("load lock registry: %w", err)
	}

	s := &Server{
		store:  store,
		engine: engine,
		gate:   admission.NewGate(store, engine),
	}

	if cfg.TrailPath != "" {
		trail, err := audit.Open(cfg.TrailPath)
		if err != nil {
			return nil, fmt.Errorf("open audit trail: %w", err)
		}
		s.trail = trail
		s.gate.SetTrail(trail)
	}

	version := cfg.Version
	if version == "" {
		version = "0.1.0"
	}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "pacgate",
			Version: version,
		},
		nil,
	)

	s.registerTools()
	return s, nil
}

// Run serves on stdio, watching the registry file for reloads in the
// background. Blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.store.Watch(watchCtx)

	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// Close closes the audit trail if one is configured.
func (s *Server) Close() error {
	if s.trail != nil {
		return s.trail.Close()
	}
	return nil
}

// registerTools adds the admission tools to the MCP server.
func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "pacgate_admit",
		Description: "Run a PAC declaration through the full admission gate. Denied PACs return the denial outcome and reason.",
	}, s.handleAdmit)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "pacgate_check",
		Description: "Run structural integrity checks over raw PAC text without admitting anything (dry-run).",
	}, s.handleCheck)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "pacgate_required_locks",
		Description: "List the lock ids a PAC touching the given scopes must acknowledge.",
	}, s.handleRequiredLocks)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "pacgate_agent",
		Description: "Look up an agent's canonical identity in the registry.",
	}, s.handleAgent)
}
