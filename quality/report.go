package quality

import (
	"fmt"
	"sort"
	"strings"
)

// GenerateReport renders results as a readable multi-section text
// report. A nil results map falls back to the last analysis run; with
// no results at all an explicit "no results" message is returned
// instead of an error.
func (a *Analyzer) GenerateReport(results map[Metric]Result) string {
	if results == nil {
		results = a.results
	}
	if len(results) == 0 {
		return "No analysis results available. Run an analysis first."
	}

	var b strings.Builder
	b.WriteString("File Operation Detection Quality Report\n")
	b.WriteString(strings.Repeat("=", 40))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Scenarios: %d\n", len(a.scenarios))

	for _, m := range AllMetrics() {
		r, ok := results[m]
		if !ok {
			continue
		}
		b.WriteByte('\n')
		writeMetricSection(&b, r)
	}
	return b.String()
}

func writeMetricSection(b *strings.Builder, r Result) {
	fmt.Fprintf(b, "%s: %.4f\n", metricTitle(r.Metric), r.Value)

	switch r.Metric {
	case MetricAccuracy:
		correct, _ := r.Details["correct_detections"].(int)
		total, _ := r.Details["total_detections"].(int)
		pct, _ := r.Details["percentage"].(float64)
		fmt.Fprintf(b, "  %d/%d correct (%.1f%%)\n", correct, total, pct)
	case MetricPrecision:
		tp, _ := r.Details["true_positives"].(int)
		fp, _ := r.Details["false_positives"].(int)
		fmt.Fprintf(b, "  %d true positives, %d false positives\n", tp, fp)
	case MetricRecall:
		tp, _ := r.Details["true_positives"].(int)
		fn, _ := r.Details["false_negatives"].(int)
		fmt.Fprintf(b, "  %d true positives, %d false negatives\n", tp, fn)
	case MetricFalsePositiveRate:
		fp, _ := r.Details["false_positives"].(int)
		neg, _ := r.Details["negative_scenarios"].(int)
		fmt.Fprintf(b, "  %d false positives over %d negative scenarios\n", fp, neg)
	case MetricFalseNegativeRate:
		fn, _ := r.Details["false_negatives"].(int)
		total, _ := r.Details["total_expected"].(int)
		fmt.Fprintf(b, "  %d false negatives over %d expected operations\n", fn, total)
	case MetricConfidenceDistribution:
		total, _ := r.Details["total_operations"].(int)
		fmt.Fprintf(b, "  %d operations\n", total)
		if stats, ok := r.Details["by_type"].(map[string]typeStats); ok && len(stats) > 0 {
			b.WriteString("  By operation type:\n")
			keys := make([]string, 0, len(stats))
			for key := range stats {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			for _, key := range keys {
				s := stats[key]
				fmt.Fprintf(b, "    %s: mean %.3f, range %.3f-%.3f (n=%d)\n",
					key, s.Mean, s.Min, s.Max, s.Count)
			}
		}
	case MetricDetectionTime:
		avg, _ := r.Details["average_ms"].(float64)
		p95, _ := r.Details["p95_ms"].(float64)
		fmt.Fprintf(b, "  avg: %.2fms, p95: %.2fms\n", avg, p95)
	}
}

func metricTitle(m Metric) string {
	parts := strings.Split(string(m), "_")
	for i, part := range parts {
		switch part {
		case "f1":
			parts[i] = "F1"
		default:
			parts[i] = strings.ToUpper(part[:1]) + part[1:]
		}
	}
	return strings.Join(parts, " ")
}
