package helper

import "time"

// CalcElapsedTime returns the elapsed time in milliseconds, rounding any
// sub-millisecond duration up to 1 so a fast dummy-provider call never
// reports a zero InferenceRecord/AnalyticsRecord latency.
func CalcElapsedTime(start time.Time) int64 {
	elapsed := time.Since(start)
	ms := elapsed.Milliseconds()
	if ms == 0 && elapsed > 0 {
		return 1
	}
	return ms
}
