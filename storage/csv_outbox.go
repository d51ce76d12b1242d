package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"ski-forecast-mailer/models"
)

// Outbox is a mail transport that appends each message to a CSV file
// instead of delivering it. The file is created on the first Send. It is
// safe for concurrent use.
type Outbox struct {
	mu     sync.Mutex
	path   string
	runID  string
	file   *os.File
	writer *csv.Writer
}

// NewOutbox returns an Outbox writing to path.
func NewOutbox(path, runID string) *Outbox {
	return &Outbox{path: path, runID: runID}
}

// open creates (or truncates) the CSV file and writes the header row.
// Intermediate directories are created automatically.
func (o *Outbox) open() error {
	if err := os.MkdirAll(filepath.Dir(o.path), 0755); err != nil {
		return fmt.Errorf("outbox: create output dir: %w", err)
	}

	f, err := os.Create(o.path)
	if err != nil {
		return fmt.Errorf("outbox: create file %q: %w", o.path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write([]string{"run_id", "queued_at", "from", "to", "subject", "html"}); err != nil {
		_ = f.Close()
		return fmt.Errorf("outbox: write header: %w", err)
	}
	w.Flush()

	o.file, o.writer = f, w
	return nil
}

// Send records msg as one CSV row.
func (o *Outbox) Send(ctx context.Context, msg models.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.file == nil {
		if err := o.open(); err != nil {
			return err
		}
	}

	row := []string{
		o.runID,
		time.Now().UTC().Format(time.RFC3339),
		msg.From,
		strings.Join(msg.To, ";"),
		msg.Subject,
		msg.HTML,
	}
	if err := o.writer.Write(row); err != nil {
		return fmt.Errorf("outbox: write row: %w", err)
	}

	o.writer.Flush()
	return o.writer.Error()
}

// Close flushes and closes the underlying file, if one was opened.
func (o *Outbox) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.file == nil {
		return nil
	}
	o.writer.Flush()
	return o.file.Close()
}
