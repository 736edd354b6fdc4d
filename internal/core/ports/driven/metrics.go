package driven

import "time"

// MetricsRecorder receives search and ingestion observations (Prometheus)
type MetricsRecorder interface {
	ObserveSearch(mode, policy string, candidates, hits int, took time.Duration, err error)
	ObserveCache(hit bool)
	ObserveIngest(sourceType string, chunks int, took time.Duration, err error)
}
