package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
)

// VerifyResult holds the outcome of a chain check.
type VerifyResult struct {
	Valid     bool   `json:"valid"`
	Lines     int    `json:"lines"`
	Error     string `json:"error,omitempty"`
	ErrorLine int    `json:"error_line,omitempty"`
}

// lineError marks a failure at a specific line.
type lineError struct {
	line int
	msg  string
}

func (e *lineError) Error() string { return fmt.Sprintf("line %d: %s", e.line, e.msg) }

// scan calls fn for every line of the journal with its parsed entry.
func scan(path string, fn func(n int, line []byte, e Entry) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	n := 0
	for scanner.Scan() {
		n++
		line := append([]byte(nil), scanner.Bytes()...)
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			return &lineError{line: n, msg: fmt.Sprintf("parse error: %v", err)}
		}
		if err := fn(n, line, e); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	return nil
}

// Verify walks the journal at path and checks every link of the chain.
// The result names the first broken line, if any.
func Verify(path string) VerifyResult {
	want := GenesisHash
	lines := 0
	err := scan(path, func(n int, line []byte, e Entry) error {
		if e.PrevHash != want {
			if n == 1 {
				return &lineError{line: n, msg: fmt.Sprintf("first entry prev_hash is %q, expected genesis hash", e.PrevHash)}
			}
			return &lineError{line: n, msg: fmt.Sprintf("hash mismatch: expected %s, got %s", want, e.PrevHash)}
		}
		want = HashLine(line)
		lines = n
		return nil
	})
	if err != nil {
		if le, ok := err.(*lineError); ok {
			return VerifyResult{Lines: lines, Error: le.msg, ErrorLine: le.line}
		}
		return VerifyResult{Lines: lines, Error: err.Error()}
	}
	return VerifyResult{Valid: true, Lines: lines}
}
