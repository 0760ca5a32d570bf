package export

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"aniscan/internal/pipeline"
)

// ErrorWriter persists terminal failures to two artifacts: a plain list
// of failed source URLs (one per line, directly usable as retry input)
// and a timestamped, append-only diagnostic log of classified errors.
// The URL list holds each URL at most once, and Resolve removes URLs
// whose identifiers eventually produced a record, so the list always
// reflects the current set of outstanding failures.
type ErrorWriter struct {
	urlPath string
	urls    []string
	seen    map[string]bool

	logFile *os.File
	logger  *slog.Logger
}

// NewErrorWriter opens both artifacts. Existing URL-list content is
// loaded so a resumed run keeps earlier failures; the log is opened in
// append mode.
func NewErrorWriter(urlPath, logPath string) (*ErrorWriter, error) {
	w := &ErrorWriter{urlPath: urlPath, seen: make(map[string]bool)}

	if data, err := os.ReadFile(urlPath); err == nil {
		for _, line := range strings.Split(string(data), "\n") {
			if line = strings.TrimSpace(line); line == "" || w.seen[line] {
				continue
			}
			w.seen[line] = true
			w.urls = append(w.urls, line)
		}
	}

	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open error log: %w", err)
	}
	w.logFile = logFile
	w.logger = slog.New(slog.NewTextHandler(logFile, nil))

	return w, nil
}

// Append records a batch of error entries in both artifacts. Every
// entry is logged; a URL already on the list is not listed again.
func (w *ErrorWriter) Append(entries []pipeline.ErrorEntry) error {
	if len(entries) == 0 {
		return nil
	}

	for _, entry := range entries {
		if !w.seen[entry.URL] {
			w.seen[entry.URL] = true
			w.urls = append(w.urls, entry.URL)
		}
		w.logger.Error("identifier failed",
			"identifier", entry.Identifier,
			"url", entry.URL,
			"classification", string(entry.Class),
			"reason", entry.Reason,
			"at", entry.Timestamp)
	}

	return w.flushURLs()
}

// Resolve removes URLs from the list. Called with the URLs of
// identifiers that produced a record, so a retried failure that now
// succeeds leaves the retry list instead of being re-processed forever.
func (w *ErrorWriter) Resolve(urls []string) error {
	removed := false
	for _, url := range urls {
		if w.seen[url] {
			delete(w.seen, url)
			removed = true
		}
	}
	if !removed {
		return nil
	}

	kept := make([]string, 0, len(w.urls))
	for _, url := range w.urls {
		if w.seen[url] {
			kept = append(kept, url)
		}
	}
	w.urls = kept
	return w.flushURLs()
}

func (w *ErrorWriter) flushURLs() error {
	var data string
	if len(w.urls) > 0 {
		data = strings.Join(w.urls, "\n") + "\n"
	}
	if err := os.WriteFile(w.urlPath, []byte(data), 0644); err != nil {
		return fmt.Errorf("failed to write error URL list: %w", err)
	}
	return nil
}

// Close releases the log file handle.
func (w *ErrorWriter) Close() error {
	if w.logFile != nil {
		return w.logFile.Close()
	}
	return nil
}
