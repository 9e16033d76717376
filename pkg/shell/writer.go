package shell

import (
	"bytes"
	"strings"
	"sync"
)

// lineWriter captures everything written to it and hands each complete line to emit.
type lineWriter struct {
	mu      sync.Mutex
	emit    func(string)
	pending bytes.Buffer
	all     strings.Builder
}

func newLineWriter(emit func(string)) *lineWriter {
	return &lineWriter{emit: emit}
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending.Write(p)
	for {
		line, err := w.pending.ReadString('\n')
		if err != nil {
			// Incomplete line; keep it for the next write.
			w.pending.Reset()
			w.pending.WriteString(line)
			break
		}
		w.line(strings.TrimRight(line, "\r\n"))
	}
	return len(p), nil
}

func (w *lineWriter) line(line string) {
	w.all.WriteString(line)
	w.all.WriteByte('\n')
	w.emit(line)
}

// Flush emits a trailing line that had no newline.
func (w *lineWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending.Len() > 0 {
		w.line(strings.TrimRight(w.pending.String(), "\r\n"))
		w.pending.Reset()
	}
}

func (w *lineWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.all.String()
}
