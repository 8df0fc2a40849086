// Package transcript records conversation history as append-only JSONL, one
// file per session.
package transcript

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"termagent/internal/llm"
)

const (
	fileExt          = ".jsonl"
	maxJSONLLineSize = 1024 * 1024
)

var (
	ErrDirRequired       = errors.New("transcript directory is required")
	ErrSessionIDRequired = errors.New("session id is required")
	ErrInvalidSessionID  = errors.New("invalid session id")
	ErrRoleRequired      = errors.New("entry role is required")
	ErrSessionNotFound   = errors.New("transcript not found")
)

// ToolCall is a tool request recorded on an assistant entry.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// Entry is one history item.
type Entry struct {
	Seq        int        `json:"seq"`
	Role       string     `json:"role"`
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolName   string     `json:"tool_name,omitempty"`
	IsError    bool       `json:"is_error,omitempty"`
	TS         int64      `json:"ts"`
}

// EntryFromMessage converts a history message into an entry.
func EntryFromMessage(seq int, msg llm.Message) Entry {
	entry := Entry{
		Seq:     seq,
		Role:    string(msg.Role),
		Content: msg.Text(),
	}
	for _, call := range msg.ToolCalls {
		entry.ToolCalls = append(entry.ToolCalls, ToolCall{
			ID:        call.ID,
			Name:      call.Name,
			Arguments: append(json.RawMessage(nil), call.Arguments...),
		})
	}
	if msg.ToolResult != nil {
		entry.ToolCallID = msg.ToolResult.ToolCallID
		entry.ToolName = msg.ToolResult.ToolName
		entry.Content = msg.ToolResult.Content
		entry.IsError = msg.ToolResult.IsError
	}
	return entry
}

// Info describes one transcript file on disk.
type Info struct {
	ID        string
	Path      string
	UpdatedAt time.Time
	SizeBytes int64
}

// Store persists transcripts as append-only JSONL files.
type Store struct {
	dir string
	mu  sync.Mutex
}

// NewStore constructs a store rooted at dir.
func NewStore(dir string) (*Store, error) {
	root := strings.TrimSpace(dir)
	if root == "" {
		return nil, ErrDirRequired
	}
	return &Store{dir: root}, nil
}

// Dir returns the directory transcripts are written to.
func (s *Store) Dir() string { return s.dir }

// Append appends entries to a session's transcript in one write.
func (s *Store) Append(ctx context.Context, sessionID string, entries ...Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	path, err := s.sessionPath(sessionID)
	if err != nil {
		return err
	}

	var buf []byte
	now := time.Now().Unix()
	for _, entry := range entries {
		entry.Role = strings.TrimSpace(entry.Role)
		if entry.Role == "" {
			return ErrRoleRequired
		}
		if entry.TS <= 0 {
			entry.TS = now
		}
		raw, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("marshal transcript entry: %w", err)
		}
		buf = append(buf, raw...)
		buf = append(buf, '\n')
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create transcript dir %s: %w", s.dir, err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open transcript %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	if _, err := file.Write(buf); err != nil {
		return fmt.Errorf("append transcript entries: %w", err)
	}
	return nil
}

// Load reads all entries of one transcript.
func (s *Store) Load(ctx context.Context, sessionID string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := s.sessionPath(sessionID)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, strings.TrimSpace(sessionID))
		}
		return nil, fmt.Errorf("open transcript %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), maxJSONLLineSize)

	var entries []Entry
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var entry Entry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return nil, fmt.Errorf("decode transcript line %d: %w", lineNum, err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, fmt.Errorf("transcript line too large (> %d bytes): %w", maxJSONLLineSize, err)
		}
		return nil, fmt.Errorf("scan transcript: %w", err)
	}
	return entries, nil
}

// List returns known transcripts sorted newest first.
func (s *Store) List(ctx context.Context) ([]Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	items, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read transcript dir %s: %w", s.dir, err)
	}

	out := make([]Info, 0, len(items))
	for _, item := range items {
		if item.IsDir() || filepath.Ext(item.Name()) != fileExt {
			continue
		}
		info, err := item.Info()
		if err != nil {
			return nil, fmt.Errorf("stat transcript %s: %w", item.Name(), err)
		}
		out = append(out, Info{
			ID:        strings.TrimSuffix(item.Name(), fileExt),
			Path:      filepath.Join(s.dir, item.Name()),
			UpdatedAt: info.ModTime(),
			SizeBytes: info.Size(),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (s *Store) sessionPath(sessionID string) (string, error) {
	id := strings.TrimSpace(sessionID)
	if id == "" {
		return "", ErrSessionIDRequired
	}
	if strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", fmt.Errorf("%w: %s", ErrInvalidSessionID, id)
	}
	return filepath.Join(s.dir, id+fileExt), nil
}
