package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
)

// VerifyResult is the outcome of walking a trail's hash chain.
type VerifyResult struct {
	Valid     bool   `json:"valid"`
	Lines     int    `json:"lines"`
	Error     string `json:"error,omitempty"`
	ErrorLine int    `json:"error_line,omitempty"`
}

// Verify walks the trail at path and checks every link: the first entry
// must reference the genesis hash, each later entry the hash of the
// line before it. The first broken link stops the walk.
func Verify(path string) VerifyResult {
	f, err := os.Open(path)
	if err != nil {
		return VerifyResult{Error: fmt.Sprintf("open: %v", err)}
	}
	defer f.Close()

	var (
		lineNum int
		prev    []byte
	)

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lineNum++
		line := append([]byte(nil), scanner.Bytes()...)

		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			return VerifyResult{
				Error:     fmt.Sprintf("parse: %v", err),
				ErrorLine: lineNum,
			}
		}

		want := GenesisHash
		if lineNum > 1 {
			want = HashLine(prev)
		}
		if entry.PrevHash != want {
			return VerifyResult{
				Error:     fmt.Sprintf("chain broken: prev_hash %q, expected %q", entry.PrevHash, want),
				ErrorLine: lineNum,
			}
		}
		prev = line
	}
	if err := scanner.Err(); err != nil {
		return VerifyResult{Error: fmt.Sprintf("scan: %v", err)}
	}

	return VerifyResult{Valid: true, Lines: lineNum}
}
