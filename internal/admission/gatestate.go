package admission

import "fmt"

// GateState tracks stage ordering within a single admission attempt.
// Each attempt gets its own state; nothing is shared across attempts or
// goroutines. A stage whose inputs were not declared is marked satisfied
// vacuously, so later stages keep their ordering guarantee either way.
type GateState struct {
	activationDone   bool
	colorGatewayDone bool
	admissionDone    bool
}

// ExecutionGateError reports a stage run out of order. Seeing one means
// a caller bypassed the gate sequence, which is itself a denial.
type ExecutionGateError struct {
	Gate   string
	Reason string
}

func (e *ExecutionGateError) Error() string {
	return fmt.Sprintf("execution gate %s: %s", e.Gate, e.Reason)
}

// NewGateState returns a fresh per-attempt state.
func NewGateState() *GateState {
	return &GateState{}
}

// MarkActivationValidated records stage one.
func (s *GateState) MarkActivationValidated() {
	s.activationDone = true
}

// MarkColorGatewayValidated records stage two. The activation stage
// must have completed first.
func (s *GateState) MarkColorGatewayValidated() error {
	if !s.activationDone {
		return &ExecutionGateError{
			Gate:   "COLOR_GATEWAY",
			Reason: "activation block not validated before the executing-lane check",
		}
	}
	s.colorGatewayDone = true
	return nil
}

// MarkAdmissionValidated records the final stage. The color gateway
// stage must have completed first.
func (s *GateState) MarkAdmissionValidated() error {
	if !s.colorGatewayDone {
		return &ExecutionGateError{
			Gate:   "ADMISSION",
			Reason: "executing lane not validated before lock admission",
		}
	}
	s.admissionDone = true
	return nil
}

// RequireFullChain verifies all three stages completed, in order.
func (s *GateState) RequireFullChain() error {
	switch {
	case !s.activationDone:
		return &ExecutionGateError{Gate: "ACTIVATION", Reason: "activation block never validated"}
	case !s.colorGatewayDone:
		return &ExecutionGateError{Gate: "COLOR_GATEWAY", Reason: "executing lane never validated"}
	case !s.admissionDone:
		return &ExecutionGateError{Gate: "ADMISSION", Reason: "lock admission never validated"}
	}
	return nil
}
