// Package quality provides an offline evaluation harness for the
// operation detector: hand-authored scenarios are run through the
// batch classifier and scored against their expected outcomes.
package quality

import (
	"sort"
	"time"

	"github.com/simonhull/fileops/internal/errors"
	"github.com/simonhull/fileops/operations"
)

// Metric identifies one quality measurement.
type Metric string

// Supported metrics.
const (
	MetricAccuracy               Metric = "accuracy"
	MetricPrecision              Metric = "precision"
	MetricRecall                 Metric = "recall"
	MetricF1Score                Metric = "f1_score"
	MetricFalsePositiveRate      Metric = "false_positive_rate"
	MetricFalseNegativeRate      Metric = "false_negative_rate"
	MetricConfidenceDistribution Metric = "confidence_distribution"
	MetricDetectionTime          Metric = "detection_time"
)

// AllMetrics lists every supported metric in report order.
func AllMetrics() []Metric {
	return []Metric{
		MetricAccuracy,
		MetricPrecision,
		MetricRecall,
		MetricF1Score,
		MetricFalsePositiveRate,
		MetricFalseNegativeRate,
		MetricConfidenceDistribution,
		MetricDetectionTime,
	}
}

// Expectation is a loose matcher for one operation a scenario should
// produce. MinConfidence of zero accepts any confidence.
type Expectation struct {
	Type          operations.OperationType
	MinConfidence float64
}

// Scenario is one fixture: a named event sequence plus the operations
// the detector is expected to infer from it. An empty Expected list
// marks a negative scenario where nothing should be detected.
type Scenario struct {
	Name        string
	Events      []operations.Event
	Expected    []Expectation
	Description string
	Tags        []string
}

// Result is the outcome of computing one metric across all scenarios.
type Result struct {
	Metric    Metric
	Value     float64
	Details   map[string]any
	Timestamp time.Time
}

// Analyzer runs scenarios through a detector and computes metrics.
// It is not safe for concurrent use.
type Analyzer struct {
	detector  *operations.Detector
	scenarios []Scenario
	results   map[Metric]Result
}

// NewAnalyzer creates an analyzer around the given detector. A nil
// detector gets a default-configured one.
func NewAnalyzer(detector *operations.Detector) *Analyzer {
	if detector == nil {
		// Zero config is always valid, error is impossible here.
		detector, _ = operations.NewDetector(operations.Config{})
	}
	return &Analyzer{
		detector: detector,
		results:  make(map[Metric]Result),
	}
}

// AddScenario registers a fixture for the next analysis run.
func (a *Analyzer) AddScenario(s Scenario) {
	a.scenarios = append(a.scenarios, s)
}

// Scenarios returns a copy of the registered fixtures.
func (a *Analyzer) Scenarios() []Scenario {
	out := make([]Scenario, len(a.scenarios))
	copy(out, a.scenarios)
	return out
}

// Results returns the results of the last analysis run.
func (a *Analyzer) Results() map[Metric]Result {
	out := make(map[Metric]Result, len(a.results))
	for m, r := range a.results {
		out[m] = r
	}
	return out
}

// scenarioRun captures one scenario's detections and timing.
type scenarioRun struct {
	scenario   Scenario
	detected   []operations.Operation
	durationMS float64
}

// RunAnalysis classifies every scenario exactly once in batch mode and
// computes each requested metric. An empty metric list selects all
// metrics. Returns an error if no scenarios have been added.
func (a *Analyzer) RunAnalysis(metrics []Metric) (map[Metric]Result, error) {
	if len(a.scenarios) == 0 {
		return nil, errors.Validation("no scenarios available for analysis")
	}
	if len(metrics) == 0 {
		metrics = AllMetrics()
	}

	runs := make([]scenarioRun, 0, len(a.scenarios))
	for _, s := range a.scenarios {
		start := time.Now()
		detected := a.detector.Detect(s.Events)
		runs = append(runs, scenarioRun{
			scenario:   s,
			detected:   detected,
			durationMS: float64(time.Since(start).Microseconds()) / 1000.0,
		})
	}

	counts := tallyMatches(runs)

	results := make(map[Metric]Result, len(metrics))
	for _, m := range metrics {
		var r Result
		switch m {
		case MetricAccuracy:
			r = computeAccuracy(runs)
		case MetricPrecision:
			r = computePrecision(counts)
		case MetricRecall:
			r = computeRecall(counts)
		case MetricF1Score:
			r = computeF1(counts)
		case MetricFalsePositiveRate:
			r = computeFalsePositiveRate(runs, counts)
		case MetricFalseNegativeRate:
			r = computeFalseNegativeRate(counts)
		case MetricConfidenceDistribution:
			r = computeConfidenceDistribution(runs)
		case MetricDetectionTime:
			r = computeDetectionTime(runs)
		default:
			return nil, errors.Validationf("unsupported metric: %s", m)
		}
		r.Metric = m
		r.Timestamp = time.Now()
		results[m] = r
	}

	a.results = results
	return results, nil
}

// matchCounts aggregates true/false positives and negatives across all
// scenarios.
type matchCounts struct {
	truePositives  int
	falsePositives int
	falseNegatives int
	totalExpected  int
}

// tallyMatches greedily matches each detection against the scenario's
// expectations by operation type. Each expectation is consumed at most
// once; unmatched detections are false positives, unmatched
// expectations are false negatives.
func tallyMatches(runs []scenarioRun) matchCounts {
	var c matchCounts
	for _, run := range runs {
		c.totalExpected += len(run.scenario.Expected)
		consumed := make([]bool, len(run.scenario.Expected))
		for _, op := range run.detected {
			matched := false
			for i, exp := range run.scenario.Expected {
				if consumed[i] || exp.Type != op.Type {
					continue
				}
				if exp.MinConfidence > 0 && op.Confidence < exp.MinConfidence {
					continue
				}
				consumed[i] = true
				matched = true
				break
			}
			if matched {
				c.truePositives++
			} else {
				c.falsePositives++
			}
		}
		for _, used := range consumed {
			if !used {
				c.falseNegatives++
			}
		}
	}
	return c
}

// computeAccuracy scores the fraction of scenarios whose detected
// operation types exactly match the expected types as multisets.
func computeAccuracy(runs []scenarioRun) Result {
	correct := 0
	for _, run := range runs {
		if typesMatch(run.detected, run.scenario.Expected) {
			correct++
		}
	}
	value := float64(correct) / float64(len(runs))
	return Result{
		Value: value,
		Details: map[string]any{
			"correct_detections": correct,
			"total_detections":   len(runs),
			"percentage":         value * 100,
		},
	}
}

func typesMatch(detected []operations.Operation, expected []Expectation) bool {
	if len(detected) != len(expected) {
		return false
	}
	want := make(map[operations.OperationType]int, len(expected))
	for _, exp := range expected {
		want[exp.Type]++
	}
	for _, op := range detected {
		if want[op.Type] == 0 {
			return false
		}
		want[op.Type]--
	}
	return true
}

func computePrecision(c matchCounts) Result {
	value := 0.0
	if c.truePositives+c.falsePositives > 0 {
		value = float64(c.truePositives) / float64(c.truePositives+c.falsePositives)
	}
	return Result{
		Value: value,
		Details: map[string]any{
			"true_positives":  c.truePositives,
			"false_positives": c.falsePositives,
		},
	}
}

func computeRecall(c matchCounts) Result {
	value := 0.0
	if c.truePositives+c.falseNegatives > 0 {
		value = float64(c.truePositives) / float64(c.truePositives+c.falseNegatives)
	}
	return Result{
		Value: value,
		Details: map[string]any{
			"true_positives":  c.truePositives,
			"false_negatives": c.falseNegatives,
		},
	}
}

func computeF1(c matchCounts) Result {
	precision := computePrecision(c).Value
	recall := computeRecall(c).Value
	value := 0.0
	if precision+recall > 0 {
		value = 2 * precision * recall / (precision + recall)
	}
	return Result{
		Value: value,
		Details: map[string]any{
			"precision": precision,
			"recall":    recall,
		},
	}
}

// computeFalsePositiveRate divides spurious detections by the number of
// negative scenarios (those expecting nothing).
func computeFalsePositiveRate(runs []scenarioRun, c matchCounts) Result {
	negatives := 0
	for _, run := range runs {
		if len(run.scenario.Expected) == 0 {
			negatives++
		}
	}
	value := 0.0
	if negatives > 0 {
		value = float64(c.falsePositives) / float64(negatives)
	}
	return Result{
		Value: value,
		Details: map[string]any{
			"false_positives":    c.falsePositives,
			"negative_scenarios": negatives,
		},
	}
}

func computeFalseNegativeRate(c matchCounts) Result {
	value := 0.0
	if c.totalExpected > 0 {
		value = float64(c.falseNegatives) / float64(c.totalExpected)
	}
	return Result{
		Value: value,
		Details: map[string]any{
			"false_negatives": c.falseNegatives,
			"total_expected":  c.totalExpected,
		},
	}
}

// typeStats accumulates confidence statistics per operation type.
type typeStats struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

func computeConfidenceDistribution(runs []scenarioRun) Result {
	var confidences []float64
	byType := make(map[string][]float64)
	for _, run := range runs {
		for _, op := range run.detected {
			confidences = append(confidences, op.Confidence)
			key := op.Type.String()
			byType[key] = append(byType[key], op.Confidence)
		}
	}

	if len(confidences) == 0 {
		return Result{
			Value: 0,
			Details: map[string]any{
				"total_operations": 0,
				"by_type":          map[string]typeStats{},
			},
		}
	}

	stats := make(map[string]typeStats, len(byType))
	for key, values := range byType {
		stats[key] = summarize(values)
	}
	overall := summarize(confidences)

	return Result{
		Value: overall.Mean,
		Details: map[string]any{
			"total_operations": len(confidences),
			"mean":             overall.Mean,
			"min":              overall.Min,
			"max":              overall.Max,
			"by_type":          stats,
		},
	}
}

func summarize(values []float64) typeStats {
	s := typeStats{Count: len(values), Min: values[0], Max: values[0]}
	sum := 0.0
	for _, v := range values {
		sum += v
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
	}
	s.Mean = sum / float64(len(values))
	return s
}

func computeDetectionTime(runs []scenarioRun) Result {
	durations := make([]float64, 0, len(runs))
	sum := 0.0
	for _, run := range runs {
		durations = append(durations, run.durationMS)
		sum += run.durationMS
	}
	sort.Float64s(durations)

	avg := sum / float64(len(durations))
	p95 := percentile(durations, 0.95)

	return Result{
		Value: avg,
		Details: map[string]any{
			"average_ms": avg,
			"p95_ms":     p95,
			"scenarios":  len(durations),
		},
	}
}

// percentile returns the nearest-rank percentile of sorted values.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(p*float64(len(sorted))+0.5) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
