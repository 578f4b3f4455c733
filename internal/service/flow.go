package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spiffcs/evidence-collector/internal/log"
	"github.com/spiffcs/evidence-collector/internal/model"
	"github.com/spiffcs/evidence-collector/internal/output"
)

// PullRequestSource searches for pull requests and fetches their detail.
type PullRequestSource interface {
	Search(ctx context.Context, query string) (*model.SearchResult, error)
	FetchDetail(ctx context.Context, item model.SearchItem) (*model.PullRequestEvidence, error)
}

// IssueSource runs a JQL search.
type IssueSource interface {
	Search(ctx context.Context, jql string) (*model.IssueSearchResult, error)
}

// Uploader sends one evidence document to the collector.
type Uploader interface {
	Upload(ctx context.Context, doc *model.Document) (*model.UploadResult, error)
}

// Upload records what happened to one evidence document.
type Upload struct {
	Item      string
	Name      string
	LocalPath string
	Contents  string
	Bytes     int
	// Receipt is nil for dry runs.
	Receipt *model.UploadResult
}

// Result summarizes a flow run.
type Result struct {
	Total   int
	Skipped int
	Uploads []Upload
}

// Option configures a flow.
type Option func(*flow)

// WithDryRun builds and saves documents without uploading them.
func WithDryRun(dryRun bool) Option {
	return func(f *flow) {
		f.dryRun = dryRun
	}
}

// WithWriter saves every document through w before it is uploaded.
func WithWriter(w *output.Writer) Option {
	return func(f *flow) {
		f.writer = w
	}
}

// WithPreview renders every document table to out. Used for dry runs.
func WithPreview(formatter output.Formatter, out io.Writer) Option {
	return func(f *flow) {
		f.preview = formatter
		f.previewOut = out
	}
}

// WithObserver registers a callback for state transitions.
func WithObserver(o Observer) Option {
	return func(f *flow) {
		f.observer = o
	}
}

// WithClock overrides the clock used for generated timestamps.
func WithClock(now func() time.Time) Option {
	return func(f *flow) {
		f.now = now
	}
}

// flow holds the state machine and options shared by both flows.
type flow struct {
	name       string
	state      State
	dryRun     bool
	writer     *output.Writer
	preview    output.Formatter
	previewOut io.Writer
	observer   Observer
	now        func() time.Time
}

func newFlow(name string, opts []Option) flow {
	f := flow{
		name:       name,
		state:      StateIdle,
		previewOut: os.Stdout,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

// State returns the current state.
func (f *flow) State() State {
	return f.state
}

func (f *flow) transition(to State, t Transition) {
	t.From = f.state
	t.To = to
	f.state = to

	log.Trace("flow transition", "flow", f.name, "from", t.From, "to", t.To, "item", t.Item)
	if f.observer != nil {
		f.observer(t)
	}
}

// abort moves to StateAborted and returns err.
func (f *flow) abort(item string, err error) error {
	f.transition(StateAborted, Transition{Item: item, Err: err})
	return err
}

// deliver saves doc locally, previews it on dry runs and otherwise uploads
// it. The caller must be in StateFormatting.
func (f *flow) deliver(ctx context.Context, uploader Uploader, t output.Table, doc *model.Document, step Transition) (Upload, error) {
	record := Upload{
		Item:     step.Item,
		Name:     doc.Name,
		Contents: doc.Contents,
		Bytes:    doc.Size(),
	}

	path, err := f.writer.Save(doc)
	if err != nil {
		return record, err
	}
	record.LocalPath = path
	if path != "" {
		log.Info("saved evidence document", "path", path)
	}

	if f.dryRun {
		if f.preview != nil {
			if err := f.preview.Format(t, f.previewOut); err != nil {
				return record, fmt.Errorf("failed to render preview: %w", err)
			}
		}
		log.Info("dry run, skipping upload", "name", doc.Name, "contents", doc.Contents)
		return record, nil
	}

	if uploader == nil {
		return record, fmt.Errorf("%w: no collector configured", model.ErrConfiguration)
	}

	f.transition(StateUploading, step)
	receipt, err := uploader.Upload(ctx, doc)
	if err != nil {
		return record, fmt.Errorf("failed to upload %s: %w", doc.Name, err)
	}
	record.Receipt = receipt
	log.Info("evidence uploaded", "item", step.Item, "id", receipt.ID)
	return record, nil
}
