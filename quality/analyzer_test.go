package quality

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhull/fileops/internal/errors"
	"github.com/simonhull/fileops/operations"
)

func testEvent(path string, t operations.EventType, seq uint64, offset time.Duration) operations.Event {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return operations.Event{
		Path: path,
		Type: t,
		Metadata: operations.Metadata{
			Timestamp:      base.Add(offset),
			SequenceNumber: seq,
		},
	}
}

func testMove(path, dest string, seq uint64, offset time.Duration) operations.Event {
	e := testEvent(path, operations.EventMoved, seq, offset)
	e.DestPath = dest
	return e
}

func atomicSaveScenario(name string) Scenario {
	return Scenario{
		Name: name,
		Events: []operations.Event{
			testEvent("doc.txt.tmp.42", operations.EventCreated, 1, 0),
			testMove("doc.txt.tmp.42", "doc.txt", 2, 50*time.Millisecond),
		},
		Expected: []Expectation{{Type: operations.OpAtomicSave}},
	}
}

func TestAnalyzer_RunAnalysis_NoScenarios(t *testing.T) {
	analyzer := NewAnalyzer(nil)

	_, err := analyzer.RunAnalysis(nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))
	assert.Contains(t, err.Error(), "no scenarios available")
}

func TestAnalyzer_AddScenario(t *testing.T) {
	analyzer := NewAnalyzer(nil)
	assert.Empty(t, analyzer.Scenarios())

	analyzer.AddScenario(atomicSaveScenario("one"))
	assert.Len(t, analyzer.Scenarios(), 1)
	assert.Equal(t, "one", analyzer.Scenarios()[0].Name)
}

func TestAnalyzer_Accuracy_PerfectMatch(t *testing.T) {
	analyzer := NewAnalyzer(nil)
	analyzer.AddScenario(atomicSaveScenario("save"))

	results, err := analyzer.RunAnalysis([]Metric{MetricAccuracy})
	require.NoError(t, err)

	accuracy := results[MetricAccuracy]
	assert.Equal(t, 1.0, accuracy.Value)
	assert.Equal(t, 1, accuracy.Details["correct_detections"])
	assert.Equal(t, 1, accuracy.Details["total_detections"])
}

func TestAnalyzer_Recall_MissedExpectation(t *testing.T) {
	analyzer := NewAnalyzer(nil)
	// A lone create never produces an atomic save, so the expectation
	// goes unmatched.
	analyzer.AddScenario(Scenario{
		Name:     "missed",
		Events:   []operations.Event{testEvent("orphan.txt", operations.EventCreated, 1, 0)},
		Expected: []Expectation{{Type: operations.OpAtomicSave}},
	})

	results, err := analyzer.RunAnalysis([]Metric{
		MetricRecall, MetricFalseNegativeRate, MetricAccuracy,
	})
	require.NoError(t, err)

	assert.Equal(t, 0.0, results[MetricRecall].Value)
	assert.Greater(t, results[MetricFalseNegativeRate].Value, 0.0)
	assert.Equal(t, 0.0, results[MetricAccuracy].Value)
}

func TestAnalyzer_FalsePositiveRate_CleanNegatives(t *testing.T) {
	analyzer := NewAnalyzer(nil)
	analyzer.AddScenario(Scenario{
		Name:     "negative",
		Events:   []operations.Event{testEvent("lone.txt", operations.EventCreated, 1, 0)},
		Expected: nil,
	})

	results, err := analyzer.RunAnalysis([]Metric{MetricFalsePositiveRate})
	require.NoError(t, err)

	fpr := results[MetricFalsePositiveRate]
	assert.Equal(t, 0.0, fpr.Value)
	assert.Equal(t, 1, fpr.Details["negative_scenarios"])
}

func TestAnalyzer_PrecisionRecallF1(t *testing.T) {
	analyzer := NewAnalyzer(nil)
	analyzer.AddScenario(atomicSaveScenario("save"))

	results, err := analyzer.RunAnalysis([]Metric{
		MetricPrecision, MetricRecall, MetricF1Score,
	})
	require.NoError(t, err)

	assert.Equal(t, 1.0, results[MetricPrecision].Value)
	assert.Equal(t, 1.0, results[MetricRecall].Value)
	assert.Equal(t, 1.0, results[MetricF1Score].Value)
	assert.Equal(t, 1, results[MetricPrecision].Details["true_positives"])
	assert.Equal(t, 0, results[MetricPrecision].Details["false_positives"])
}

func TestAnalyzer_ExpectationMinConfidence(t *testing.T) {
	analyzer := NewAnalyzer(nil)
	scenario := atomicSaveScenario("high_bar")
	// An unreachable confidence bar turns the detection into a false
	// positive and the expectation into a false negative.
	scenario.Expected = []Expectation{{Type: operations.OpAtomicSave, MinConfidence: 0.999}}
	analyzer.AddScenario(scenario)

	results, err := analyzer.RunAnalysis([]Metric{MetricPrecision, MetricRecall})
	require.NoError(t, err)

	assert.Equal(t, 0.0, results[MetricPrecision].Value)
	assert.Equal(t, 0.0, results[MetricRecall].Value)
}

func TestAnalyzer_ConfidenceDistribution(t *testing.T) {
	analyzer := NewAnalyzer(nil)
	analyzer.AddScenario(atomicSaveScenario("save_a"))
	analyzer.AddScenario(atomicSaveScenario("save_b"))

	results, err := analyzer.RunAnalysis([]Metric{MetricConfidenceDistribution})
	require.NoError(t, err)

	dist := results[MetricConfidenceDistribution]
	assert.GreaterOrEqual(t, dist.Value, 0.0)
	assert.LessOrEqual(t, dist.Value, 1.0)
	assert.Equal(t, 2, dist.Details["total_operations"])

	byType, ok := dist.Details["by_type"].(map[string]typeStats)
	require.True(t, ok)
	stats, ok := byType["atomic_save"]
	require.True(t, ok)
	assert.Equal(t, 2, stats.Count)
	assert.GreaterOrEqual(t, stats.Min, 0.0)
	assert.LessOrEqual(t, stats.Max, 1.0)
}

func TestAnalyzer_ConfidenceDistribution_NoDetections(t *testing.T) {
	analyzer := NewAnalyzer(nil)
	analyzer.AddScenario(Scenario{
		Name:   "quiet",
		Events: []operations.Event{testEvent("lone.txt", operations.EventCreated, 1, 0)},
	})

	results, err := analyzer.RunAnalysis([]Metric{MetricConfidenceDistribution})
	require.NoError(t, err)

	dist := results[MetricConfidenceDistribution]
	assert.Equal(t, 0.0, dist.Value)
	assert.Equal(t, 0, dist.Details["total_operations"])
}

func TestAnalyzer_DetectionTime(t *testing.T) {
	analyzer := NewAnalyzer(nil)
	analyzer.AddScenario(atomicSaveScenario("save"))

	results, err := analyzer.RunAnalysis([]Metric{MetricDetectionTime})
	require.NoError(t, err)

	timing := results[MetricDetectionTime]
	assert.GreaterOrEqual(t, timing.Value, 0.0)
	assert.Contains(t, timing.Details, "average_ms")
	assert.Contains(t, timing.Details, "p95_ms")
}

func TestAnalyzer_UnsupportedMetric(t *testing.T) {
	analyzer := NewAnalyzer(nil)
	analyzer.AddScenario(atomicSaveScenario("save"))

	_, err := analyzer.RunAnalysis([]Metric{Metric("bogus")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestStandardScenarios_AllDetected(t *testing.T) {
	analyzer := NewAnalyzer(nil)
	for _, s := range StandardScenarios() {
		analyzer.AddScenario(s)
	}

	results, err := analyzer.RunAnalysis(nil)
	require.NoError(t, err)
	require.Len(t, results, len(AllMetrics()))

	assert.Equal(t, 1.0, results[MetricAccuracy].Value,
		"every standard scenario should classify as expected")
	assert.Equal(t, 1.0, results[MetricPrecision].Value)
	assert.Equal(t, 1.0, results[MetricRecall].Value)
	assert.Equal(t, 1.0, results[MetricF1Score].Value)
	assert.Equal(t, 0.0, results[MetricFalsePositiveRate].Value)
	assert.Equal(t, 0.0, results[MetricFalseNegativeRate].Value)
}

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty", nil, 0.95, 0},
		{"single", []float64{3.0}, 0.95, 3.0},
		{"p95 of ten", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.95, 10},
		{"p50 of four", []float64{1, 2, 3, 4}, 0.5, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, percentile(tt.sorted, tt.p))
		})
	}
}
