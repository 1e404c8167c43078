package rca

import "testing"

func TestGateTooLittleEvidence(t *testing.T) {
	t.Parallel()

	m := cleanMetrics()
	if ShouldRunDeepDiagnosis(m, 10, 0, 0) {
		t.Fatalf("short clean log must not gate in")
	}
	// Warnings lift the line-count bar but still do not force a run on a
	// healthy call.
	if ShouldRunDeepDiagnosis(m, 10, 0, 3) {
		t.Fatalf("healthy call with warnings only must not gate in")
	}
}

func TestGateErrorsAlwaysRun(t *testing.T) {
	t.Parallel()

	m := cleanMetrics()
	if !ShouldRunDeepDiagnosis(m, 100, 1, 0) {
		t.Fatalf("one error must gate in even at score 100")
	}
	// Errors dominate even under the line-count minimum.
	if !ShouldRunDeepDiagnosis(m, 10, 1, 0) {
		t.Fatalf("error in a short log must still gate in")
	}
}

func TestGateNoEvidence(t *testing.T) {
	t.Parallel()

	if ShouldRunDeepDiagnosis(&CallMetrics{}, 500, 0, 0) {
		t.Fatalf("no metric evidence, nothing to reason about")
	}
	if ShouldRunDeepDiagnosis(nil, 500, 0, 0) {
		t.Fatalf("nil metrics must not gate in")
	}
}

func TestGateUnhealthyScore(t *testing.T) {
	t.Parallel()

	m := cleanMetrics()
	m.GateFlutterDetected = true
	if !ShouldRunDeepDiagnosis(m, 100, 0, 0) {
		t.Fatalf("flutter drops the score below the gate threshold")
	}
}
