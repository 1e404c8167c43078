package rca

// ShouldRunDeepDiagnosis decides whether the evidence justifies an expensive
// deep-diagnosis pass. Line and error/warning counts come from the caller's
// raw scan of the collected log text.
func ShouldRunDeepDiagnosis(m *CallMetrics, lineCount, errorCount, warningCount int) bool {
	// Too little evidence to reason about; running anyway invites
	// hallucinated conclusions.
	if lineCount < GateMinLines && errorCount == 0 && warningCount == 0 {
		return false
	}

	// Explicit errors always merit an explanation.
	if errorCount > 0 {
		return true
	}

	if !HasEvidence(m) {
		return false
	}

	score, issues := ScoreCallQuality(m)
	if score < GateScoreThreshold || len(issues) > 0 {
		return true
	}

	// Healthy call; skip to save cost and latency. Warnings alone are too
	// noisy to trigger a deep pass.
	return false
}
