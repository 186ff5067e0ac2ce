// Package audit is the append-only admission trail: one JSONL line per
// admission attempt, SHA-256 hash-chained so any edit, insertion or
// deletion breaks every later line.
package audit

// TimestampFormat is the wire format for entry timestamps (UTC,
// millisecond precision).
const TimestampFormat = "2006-01-02T15:04:05.000Z"

// Entry is one admission attempt on the trail. All fields are scalars
// and slices (no map[string]any) so json.Marshal field order is
// deterministic and line hashes are reproducible.
type Entry struct {
	Timestamp         string   `json:"ts"`
	EventID           string   `json:"event_id"`
	PACID             string   `json:"pac_id"`
	Outcome           string   `json:"outcome"`
	Reason            string   `json:"reason,omitempty"`
	RequiredLocks     []string `json:"required_locks,omitempty"`
	AcknowledgedLocks []string `json:"acknowledged_locks,omitempty"`
	MissingLocks      []string `json:"missing_locks,omitempty"`
	AffectedScopes    []string `json:"affected_scopes,omitempty"`
	TouchedFiles      []string `json:"touched_files,omitempty"`
	RegistryVersion   string   `json:"registry_version,omitempty"`
	LockVersion       string   `json:"lock_version,omitempty"`
	PrevHash          string   `json:"prev_hash"`
}
