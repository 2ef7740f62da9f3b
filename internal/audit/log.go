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
	"sync/atomic"
	"time"

	"github.com/ppiankov/offhours/internal/logger"
	"github.com/ppiankov/offhours/internal/notify"
)

// GenesisHash is the prev_hash for the first entry in a new log.
const GenesisHash = "sha256:0000000000000000000000000000000000000000000000000000000000000000"

// QueueSize is how many events Notify buffers ahead of the writer.
const QueueSize = 256

// Log is an append-only JSONL journal with SHA-256 hash chaining.
// Each entry's prev_hash is the hash of the previous line.
type Log struct {
	path     string
	file     *os.File
	prevHash string
	mu       sync.Mutex
	log      *logger.Logger

	// qmu guards closed; queue is closed under its write lock.
	qmu     sync.RWMutex
	closed  bool
	queue   chan queued
	done    chan struct{}
	dropped atomic.Int64
}

// queued is one pending write, or a flush marker when flushed is set.
type queued struct {
	entry   Entry
	flushed chan struct{}
}

// Open opens (or creates) a journal for appending, recovering the chain
// tail from the last line of an existing file.
func Open(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("audit: create directory: %w", err)
	}

	prevHash := GenesisHash
	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		last, err := lastLine(path)
		if err != nil {
			return nil, err
		}
		if len(last) > 0 {
			prevHash = HashLine(last)
		}
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("audit: open file: %w", err)
	}
	l := &Log{
		path:     path,
		file:     file,
		prevHash: prevHash,
		log:      logger.Named("audit"),
		queue:    make(chan queued, QueueSize),
		done:     make(chan struct{}),
	}
	go l.writer()
	return l, nil
}

func (l *Log) writer() {
	defer close(l.done)
	for q := range l.queue {
		if q.flushed != nil {
			close(q.flushed)
			continue
		}
		if err := l.Record(q.entry); err != nil {
			l.log.Warn().Err(err).Str("kind", q.entry.Kind).Msg("audit record failed")
		}
	}
}

func lastLine(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("audit: read existing log: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var last []byte
	for scanner.Scan() {
		last = append(last[:0], scanner.Bytes()...)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("audit: scan existing log: %w", err)
	}
	return last, nil
}

// Path returns the journal file path.
func (l *Log) Path() string { return l.path }

// Record chains and appends entry, then syncs to disk. It blocks on the
// write; event paths use Notify instead.
func (l *Log) Record(entry Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format(TimestampFormat)
	}
	entry.PrevHash = l.prevHash

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("audit: marshal entry: %w", err)
	}
	if _, err := l.file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("audit: write entry: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("audit: sync: %w", err)
	}

	l.prevHash = HashLine(line)
	return nil
}

// Notify queues ev for the writer goroutine, making Log a notify.Sink.
// It never blocks: events are dropped when the queue is full or the log
// is closed. Write failures are logged.
func (l *Log) Notify(ev notify.Event) {
	e := EntryOf(ev)
	l.qmu.RLock()
	defer l.qmu.RUnlock()
	if l.closed {
		l.dropped.Add(1)
		return
	}
	select {
	case l.queue <- queued{entry: e}:
	default:
		l.dropped.Add(1)
		l.log.Warn().Str("kind", e.Kind).Msg("audit queue full, event dropped")
	}
}

// Dropped returns how many events Notify discarded.
func (l *Log) Dropped() int64 { return l.dropped.Load() }

// Flush waits until every event queued before the call is written.
func (l *Log) Flush() {
	l.qmu.RLock()
	if l.closed {
		l.qmu.RUnlock()
		return
	}
	ch := make(chan struct{})
	l.queue <- queued{flushed: ch}
	l.qmu.RUnlock()
	<-ch
}

// Close drains queued events and closes the file. Safe to call twice.
func (l *Log) Close() error {
	l.qmu.Lock()
	if l.closed {
		l.qmu.Unlock()
		return nil
	}
	l.closed = true
	close(l.queue)
	l.qmu.Unlock()
	<-l.done

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

// HashLine returns "sha256:<hex>" of line.
func HashLine(line []byte) string {
	h := sha256.Sum256(line)
	return "sha256:" + hex.EncodeToString(h[:])
}
