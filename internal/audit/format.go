package audit

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const separator = "──────────────────────────────────────────────────────────────────"

// FormatTimeline renders a PAC's attempt history as a text timeline.
func FormatTimeline(result *ReplayResult) string {
	if len(result.Entries) == 0 {
		return fmt.Sprintf("PAC: %s | No attempts found.\n", result.PACID)
	}

	var b strings.Builder

	b.WriteString(fmt.Sprintf("PAC: %s | %s–%s UTC\n",
		result.PACID,
		formatDate(result.Summary.FirstTimestamp),
		formatClock(result.Summary.LastTimestamp)))
	b.WriteString(separator + "\n")

	for _, e := range result.Entries {
		detail := e.Reason
		if len(e.MissingLocks) > 0 {
			detail = "missing: " + strings.Join(e.MissingLocks, ", ")
		}
		b.WriteString(fmt.Sprintf("%-10s %-22s %s\n",
			formatClock(e.Timestamp), e.Outcome, truncate(detail, 60)))
	}

	b.WriteString(separator + "\n")
	b.WriteString(fmt.Sprintf("Summary: %d attempt(s), %d admitted, %d denied | final: %s\n",
		result.Summary.Attempts, result.Summary.Admitted, result.Summary.Denied,
		result.Summary.FinalOutcome))

	return b.String()
}

// FormatJSON renders a replay as indented JSON.
func FormatJSON(result *ReplayResult) (string, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal replay result: %w", err)
	}
	return string(data), nil
}

func formatDate(ts string) string {
	t, err := time.Parse(TimestampFormat, ts)
	if err != nil {
		return ts
	}
	return t.Format("2006-01-02 15:04:05")
}

func formatClock(ts string) string {
	t, err := time.Parse(TimestampFormat, ts)
	if err != nil {
		return ts
	}
	return t.Format("15:04:05")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
