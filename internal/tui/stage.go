package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
)

// row is the rendered state of one stage.
type row struct {
	stage  Stage
	label  string
	verb   string // past participle shown after the count, e.g. "uploaded"
	status Status
	done   int
	of     int
	item   string
	err    error
}

// Plan is the ordered list of stages a flow reports.
type Plan []row

// GitHubPlan is the per pull request flow: every item is fetched, built
// and uploaded in turn.
func GitHubPlan() Plan {
	return Plan{
		{stage: StageQuery, label: "Searching pull requests", verb: "found"},
		{stage: StageDetail, label: "Fetching details", verb: "fetched"},
		{stage: StageFormat, label: "Building documents", verb: "built"},
		{stage: StageUpload, label: "Uploading evidence", verb: "uploaded"},
	}
}

// JiraPlan is the whole result set flow with a single document.
func JiraPlan() Plan {
	return Plan{
		{stage: StageQuery, label: "Running JQL search", verb: "found"},
		{stage: StageFormat, label: "Building document", verb: "built"},
		{stage: StageUpload, label: "Uploading evidence", verb: "uploaded"},
	}
}

// Stages lists the stages of p in display order.
func (p Plan) Stages() []Stage {
	stages := make([]Stage, len(p))
	for i, r := range p {
		stages[i] = r.stage
	}
	return stages
}

func (p Plan) apply(e StageEvent) {
	for i := range p {
		if p[i].stage != e.Stage {
			continue
		}
		p[i].status = e.Status
		p[i].done = e.Done
		p[i].of = e.Of
		p[i].item = e.Item
		p[i].err = e.Err
		return
	}
}

func (r row) view(spin string, bar progress.Model) string {
	line := fmt.Sprintf("  %s ", glyph(r.status, spin))

	switch r.status {
	case StatusPending:
		return line + mutedStyle.Render(r.label)
	case StatusSkipped:
		return line + mutedStyle.Render(r.label+" (skipped)")
	}

	line += labelStyle.Render(r.label)
	switch r.status {
	case StatusRunning:
		if r.of > 1 {
			line += " " + bar.ViewAs(float64(r.done)/float64(r.of))
			line += " " + noteStyle.Render(fmt.Sprintf("%d/%d %s", r.done, r.of, r.verb))
		}
		if r.item != "" {
			line += " " + mutedStyle.Render(r.item)
		}
	case StatusComplete:
		line += " " + noteStyle.Render(fmt.Sprintf("%d %s", r.done, r.verb))
	case StatusFailed:
		if r.item != "" {
			line += " " + mutedStyle.Render(r.item)
		}
		if r.err != nil {
			line += " " + failStyle.Render(r.err.Error())
		}
	}
	return line
}
