package workflow

import (
	"context"
	"fmt"

	"github.com/medhansh29/ia-agent/internal/model"
)

// AnalyzeImpact runs one reconciliation pass over the questionnaire: coverage
// scan, placeholder synthesis, and remediation. A clean pass clears errors
// accumulated by earlier steps; a dirty pass records the findings. The pass
// never re-scans after remediating; callers invoke the step again to verify.
func (e *Engine) AnalyzeImpact(ctx context.Context, snap model.Snapshot) model.Snapshot {
	if snap.Questionnaire == nil || len(snap.RawIndicators) == 0 {
		e.logger.Info("impact analysis skipped: nothing to analyze", "project_id", snap.ProjectID)
		return snap
	}
	e.logger.Info("analyzing questionnaire impact", "project_id", snap.ProjectID)

	result := e.rec.Run(ctx, snap.ProjectID, snap.RawIndicators, snap.Questionnaire)
	snap.RawIndicators = result.RawIndicators
	snap.Questionnaire = result.Questionnaire

	if result.Clean() {
		snap.ClearError()
		return snap
	}
	snap.RecordIssues(result.Issues)

	// Placeholders may have shifted the dependency picture; recompute.
	snap.DependencyGraph = e.buildGraph(&snap)
	return snap
}

// SaveQuestionnaire persists the full snapshot. A save failure is fatal for
// the step; rows already written stay written.
func (e *Engine) SaveQuestionnaire(ctx context.Context, snap model.Snapshot) model.Snapshot {
	if e.store == nil {
		recordFatal(&snap, "store_unavailable", fmt.Errorf("no store configured"))
		return snap
	}
	e.logger.Info("saving questionnaire", "project_id", snap.ProjectID)

	if err := e.store.SaveSnapshot(ctx, &snap); err != nil {
		recordFatal(&snap, "save_failed", err)
		return snap
	}

	snap.ClearError()
	return snap
}
