package audit

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// GenesisHash is the prev_hash of the first entry on a fresh trail.
const GenesisHash = "sha256:0000000000000000000000000000000000000000000000000000000000000000"

// Trail is the append-only admission log. Every entry's prev_hash is
// the hash of the previous line, so the file is tamper-evident end to
// end. Safe for concurrent Record calls.
type Trail struct {
	mu       sync.Mutex
	file     *os.File
	prevHash string
}

// Open opens or creates the trail at path. An existing file is scanned
// to recover the chain tail so appends continue the chain.
func Open(path string) (*Trail, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("audit: create directory: %w", err)
	}

	prevHash, err := chainTail(path)
	if err != nil {
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("audit: open trail: %w", err)
	}
	return &Trail{file: file, prevHash: prevHash}, nil
}

// chainTail returns the hash of the last line of an existing trail, or
// the genesis hash for an empty or absent one.
func chainTail(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return GenesisHash, nil
		}
		return "", fmt.Errorf("audit: read existing trail: %w", err)
	}
	defer f.Close()

	var last []byte
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		last = append(last[:0], scanner.Bytes()...)
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("audit: scan existing trail: %w", err)
	}
	if len(last) == 0 {
		return GenesisHash, nil
	}
	return HashLine(last), nil
}

// Record appends one entry, filling its timestamp (when empty) and
// prev_hash, and syncs the file before returning. An entry that failed
// to sync is not counted as recorded.
func (t *Trail) Record(entry Entry) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format(TimestampFormat)
	}
	entry.PrevHash = t.prevHash

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("audit: marshal entry: %w", err)
	}
	if _, err := t.file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("audit: append entry: %w", err)
	}
	if err := t.file.Sync(); err != nil {
		return fmt.Errorf("audit: sync: %w", err)
	}

	t.prevHash = HashLine(line)
	return nil
}

// Close closes the underlying file.
func (t *Trail) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.file.Close()
}

// HashLine returns "sha256:<hex>" of one trail line.
func HashLine(line []byte) string {
	sum := sha256.Sum256(line)
	return "sha256:" + hex.EncodeToString(sum[:])
}
