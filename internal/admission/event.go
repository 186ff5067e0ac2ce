package admission

import "fmt"

// Outcome is the terminal result of one admission attempt.
type Outcome string

const (
	Admitted            Outcome = "ADMITTED"
	DeniedActivation    Outcome = "DENIED_ACTIVATION_BLOCK"
	DeniedColorGateway  Outcome = "DENIED_COLOR_GATEWAY"
	DeniedEndBanner     Outcome = "DENIED_END_BANNER"
	DeniedForbiddenZone Outcome = "DENIED_FORBIDDEN_ZONE"
	DeniedMissingLocks  Outcome = "DENIED_MISSING_LOCKS"
	DeniedDeclaration   Outcome = "DENIED_DECLARATION"
)

// Denied reports whether the outcome is any denial.
func (o Outcome) Denied() bool { return o != Admitted }

// Event is the record of one admission attempt. Every attempt produces
// exactly one, denial or not.
type Event struct {
	EventID           string   `json:"event_id"`
	PACID             string   `json:"pac_id"`
	Outcome           Outcome  `json:"outcome"`
	Reason            string   `json:"reason,omitempty"`
	RequiredLocks     []string `json:"required_locks,omitempty"`
	AcknowledgedLocks []string `json:"acknowledged_locks,omitempty"`
	MissingLocks      []string `json:"missing_locks,omitempty"`
	AffectedScopes    []string `json:"affected_scopes,omitempty"`
	TouchedFiles      []string `json:"touched_files,omitempty"`
	Timestamp         string   `json:"ts"`
}

// AdmissionError is the denial for unacknowledged locks.
type AdmissionError struct {
	PACID   string
	Missing []string
}

func (e *AdmissionError) Error() string {
	return fmt.Sprintf("PAC %s denied: %d unsatisfied lock requirement(s): %v",
		e.PACID, len(e.Missing), e.Missing)
}

// ForbiddenZoneError is the denial for touching a forbidden zone. Zone
// entry takes precedence over every lock-acknowledgment concern.
type ForbiddenZoneError struct {
	PACID  string
	LockID string
	Zone   string
}

func (e *ForbiddenZoneError) Error() string {
	return fmt.Sprintf("PAC %s denied: forbidden zone %q (lock %s)", e.PACID, e.Zone, e.LockID)
}
