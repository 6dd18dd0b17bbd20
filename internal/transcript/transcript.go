package transcript

import "sync"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleNotice    Role = "notice"
)

// Entry is a single transcript line.
type Entry struct {
	Role Role
	Text string
}

// Log is an in-memory conversation transcript. Consecutive assistant
// fragments are concatenated into a single entry until a user entry or a
// notice completes the turn. Safe for concurrent use.
type Log struct {
	mutex     sync.Mutex
	entries   []Entry
	streaming bool
}

func New() *Log {
	return &Log{}
}

// AddUserFinal appends a user entry and completes any open assistant entry.
func (l *Log) AddUserFinal(text string) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	l.streaming = false
	l.entries = append(l.entries, Entry{Role: RoleUser, Text: text})
}

// AppendAssistant adds text to the open assistant entry, opening a new
// entry if the previous assistant turn was completed.
func (l *Log) AppendAssistant(text string) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.streaming {
		l.entries[len(l.entries)-1].Text += text
		return
	}

	l.entries = append(l.entries, Entry{Role: RoleAssistant, Text: text})
	l.streaming = true
}

// AddNotice appends a notice entry and completes any open assistant entry.
func (l *Log) AddNotice(text string) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	l.streaming = false
	l.entries = append(l.entries, Entry{Role: RoleNotice, Text: text})
}

// Clear empties the transcript.
func (l *Log) Clear() {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	l.entries = nil
	l.streaming = false
}

// Entries returns a snapshot of the transcript.
func (l *Log) Entries() []Entry {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	snapshot := make([]Entry, len(l.entries))
	copy(snapshot, l.entries)

	return snapshot
}
