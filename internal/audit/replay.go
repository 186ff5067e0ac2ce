package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// ReplayResult is the attempt history of one PAC, in trail order.
type ReplayResult struct {
	PACID   string        `json:"pac_id"`
	Entries []Entry       `json:"entries"`
	Summary ReplaySummary `json:"summary"`
}

// ReplaySummary aggregates a replay.
type ReplaySummary struct {
	Attempts       int    `json:"attempts"`
	Admitted       int    `json:"admitted"`
	Denied         int    `json:"denied"`
	FirstTimestamp string `json:"first_timestamp,omitempty"`
	LastTimestamp  string `json:"last_timestamp,omitempty"`
	FinalOutcome   string `json:"final_outcome,omitempty"`
}

// Replay collects every entry for pacID from the trail at path. The
// chain is not verified here; run Verify first when tampering matters.
func Replay(path, pacID string) (*ReplayResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("audit: open trail: %w", err)
	}
	defer f.Close()

	result := &ReplayResult{PACID: pacID}

	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		var entry Entry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			return nil, fmt.Errorf("audit: parse line %d: %w", lineNum, err)
		}
		if !strings.EqualFold(entry.PACID, pacID) {
			continue
		}
		result.Entries = append(result.Entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("audit: scan trail: %w", err)
	}

	result.Summary = summarize(result.Entries)
	return result, nil
}

func summarize(entries []Entry) ReplaySummary {
	s := ReplaySummary{Attempts: len(entries)}
	for _, e := range entries {
		if e.Outcome == "ADMITTED" {
			s.Admitted++
		} else {
			s.Denied++
		}
	}
	if len(entries) > 0 {
		s.FirstTimestamp = entries[0].Timestamp
		s.LastTimestamp = entries[len(entries)-1].Timestamp
		s.FinalOutcome = entries[len(entries)-1].Outcome
	}
	return s
}
