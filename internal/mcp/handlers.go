package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ppiankov/pacgate/internal/admission"
	"github.com/ppiankov/pacgate/internal/pacdoc"
	"github.com/ppiankov/pacgate/internal/structural"
)

// AdmitInput carries the PAC to admit, either as raw text or as
// pre-extracted declaration fields. Raw text wins when both are set.
type AdmitInput struct {
	Text              string   `json:"text,omitempty" jsonschema:"Raw PAC text to parse and admit"`
	PACID             string   `json:"pac_id,omitempty" jsonschema:"PAC identifier, e.g. PAC-SETTLE-API-01"`
	AcknowledgedLocks []string `json:"acknowledged_locks,omitempty" jsonschema:"Lock ids the PAC acknowledges"`
	AffectedScopes    []string `json:"affected_scopes,omitempty" jsonschema:"Scopes the PAC touches"`
	TouchedFiles      []string `json:"touched_files,omitempty" jsonschema:"File paths the PAC intends to touch"`
	Agent             string   `json:"agent,omitempty" jsonschema:"Executing agent name"`
	GID               string   `json:"gid,omitempty" jsonschema:"Executing agent GID"`
	Color             string   `json:"color,omitempty" jsonschema:"Executing color lane"`
}

// AdmitOutput is the verdict for one admission attempt.
type AdmitOutput struct {
	Admitted      bool     `json:"admitted" jsonschema:"Whether the PAC was admitted"`
	Outcome       string   `json:"outcome" jsonschema:"Terminal outcome code"`
	PACID         string   `json:"pac_id,omitempty" jsonschema:"PAC identifier"`
	EventID       string   `json:"event_id,omitempty" jsonschema:"Audit event id for this attempt"`
	Reason        string   `json:"reason,omitempty" jsonschema:"Denial reason, empty when admitted"`
	RequiredLocks []string `json:"required_locks,omitempty" jsonschema:"Lock ids the scopes require"`
	MissingLocks  []string `json:"missing_locks,omitempty" jsonschema:"Unsatisfied requirements"`
}

func (s *Server) handleAdmit(ctx context.Context, req *mcpsdk.CallToolRequest, input AdmitInput) (*mcpsdk.CallToolResult, AdmitOutput, error) {
	d, err := buildDeclaration(input)
	if err != nil {
		out := AdmitOutput{Outcome: string(admission.DeniedDeclaration), Reason: err.Error()}
		return &mcpsdk.CallToolResult{IsError: true}, out, nil
	}

	ev, err := s.gate.Admit(d)
	out := AdmitOutput{
		Admitted:      !ev.Outcome.Denied(),
		Outcome:       string(ev.Outcome),
		PACID:         ev.PACID,
		EventID:       ev.EventID,
		Reason:        ev.Reason,
		RequiredLocks: ev.RequiredLocks,
		MissingLocks:  ev.MissingLocks,
	}
	if err != nil {
		return &mcpsdk.CallToolResult{IsError: true}, out, nil
	}
	return nil, out, nil
}

// CheckInput is raw PAC text for a structural dry-run.
type CheckInput struct {
	Text string `json:"text" jsonschema:"Raw PAC text to check"`
}

// CheckViolation is one structural finding.
type CheckViolation struct {
	Code    string `json:"code" jsonschema:"Violation code"`
	Line    int    `json:"line,omitempty" jsonschema:"1-based line of the finding, 0 when not line-bound"`
	Message string `json:"message" jsonschema:"Human-readable description"`
}

// CheckOutput summarizes the structural integrity of the text.
type CheckOutput struct {
	Valid      bool             `json:"valid" jsonschema:"Whether the text passed every structural check"`
	MarkerLine int              `json:"marker_line,omitempty" jsonschema:"Line of the activation marker, 0 if absent"`
	BlockCount int              `json:"block_count" jsonschema:"Number of activation blocks detected"`
	Violations []CheckViolation `json:"violations,omitempty" jsonschema:"Findings in severity order"`
}

func (s *Server) handleCheck(ctx context.Context, req *mcpsdk.CallToolRequest, input CheckInput) (*mcpsdk.CallToolResult, CheckOutput, error) {
	res := structural.CheckIntegrity(input.Text)

	out := CheckOutput{
		Valid:      res.Valid,
		MarkerLine: res.MarkerLine,
		BlockCount: res.BlockCount,
	}
	for _, v := range res.Violations {
		out.Violations = append(out.Violations, CheckViolation{
			Code:    string(v.Code),
			Line:    v.Line,
			Message: v.Message,
		})
	}
	if !res.Valid {
		return &mcpsdk.CallToolResult{IsError: true}, out, nil
	}
	return nil, out, nil
}

// RequiredLocksInput names the scopes a planned PAC will touch.
type RequiredLocksInput struct {
	Scopes []string `json:"scopes" jsonschema:"Scopes the PAC will touch"`
}

// RequiredLocksOutput lists the locks those scopes require.
type RequiredLocksOutput struct {
	Locks       []string `json:"locks" jsonschema:"Lock ids requiring acknowledgment, sorted"`
	LockVersion string   `json:"lock_version" jsonschema:"Version of the loaded lock registry"`
}

func (s *Server) handleRequiredLocks(ctx context.Context, req *mcpsdk.CallToolRequest, input RequiredLocksInput) (*mcpsdk.CallToolResult, RequiredLocksOutput, error) {
	out := RequiredLocksOutput{
		Locks:       s.engine.RequiredLocks(input.Scopes),
		LockVersion: s.engine.Version(),
	}
	return nil, out, nil
}

// AgentInput names or identifies one agent.
type AgentInput struct {
	Name string `json:"name,omitempty" jsonschema:"Agent name or alias"`
	GID  string `json:"gid,omitempty" jsonschema:"Agent GID, used when name is empty"`
}

// AgentOutput is the canonical registry identity of one agent.
type AgentOutput struct {
	Found   bool     `json:"found" jsonschema:"Whether the agent exists in the registry"`
	Name    string   `json:"name,omitempty" jsonschema:"Canonical agent name"`
	GID     string   `json:"gid,omitempty" jsonschema:"Agent GID"`
	Role    string   `json:"role,omitempty" jsonschema:"Agent role"`
	Color   string   `json:"color,omitempty" jsonschema:"Assigned color lane"`
	Emoji   string   `json:"emoji,omitempty" jsonschema:"Primary identity emoji"`
	Lane    string   `json:"lane,omitempty" jsonschema:"Functional lane name"`
	Level   string   `json:"level,omitempty" jsonschema:"Agent level L0-L3"`
	Aliases []string `json:"aliases,omitempty" jsonschema:"Accepted aliases"`
}

func (s *Server) handleAgent(ctx context.Context, req *mcpsdk.CallToolRequest, input AgentInput) (*mcpsdk.CallToolResult, AgentOutput, error) {
	reg := s.store.Snapshot()

	agent := reg.AgentByName(input.Name)
	if agent == nil && input.GID != "" {
		agent = reg.AgentByGID(input.GID)
	}
	if agent == nil {
		return &mcpsdk.CallToolResult{IsError: true}, AgentOutput{Found: false}, nil
	}

	out := AgentOutput{
		Found:   true,
		Name:    agent.Name,
		GID:     agent.GID,
		Role:    agent.Role,
		Color:   string(agent.Color),
		Emoji:   agent.Emoji,
		Lane:    agent.Lane,
		Level:   string(agent.Level),
		Aliases: agent.Aliases,
	}
	return nil, out, nil
}

// buildDeclaration turns tool input into a validated declaration. Raw
// text goes through the document parser; field input is assembled
// directly.
func buildDeclaration(input AdmitInput) (*admission.Declaration, error) {
	if input.Text != "" {
		return pacdoc.Parse(input.Text)
	}
	return admission.NewDeclaration(admission.Declaration{
		PACID:             input.PACID,
		AcknowledgedLocks: input.AcknowledgedLocks,
		AffectedScopes:    input.AffectedScopes,
		TouchedFiles:      input.TouchedFiles,
		Executing: admission.Identity{
			Agent: input.Agent,
			GID:   input.GID,
			Color: input.Color,
		},
	})
}
