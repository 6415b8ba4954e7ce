// Package metrics derives response metrics from a reply and its latency.
package metrics

import (
	"ai-nexus/internal/repository/db"
	"strings"
)

// TokensPerWord approximates model tokens from whitespace-delimited words.
const TokensPerWord = 1.3

// WordCount counts whitespace-delimited tokens. Blank text has zero words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// Calculate builds the metrics for a reply produced in elapsedMs milliseconds.
// Throughput is zero when no time elapsed.
func Calculate(elapsedMs int64, text string) db.Metrics {
	if elapsedMs < 0 {
		elapsedMs = 0
	}
	words := WordCount(text)

	tps := 0.0
	if elapsedMs > 0 {
		tps = float64(words) * TokensPerWord / (float64(elapsedMs) / 1000.0)
	}

	return db.Metrics{
		ResponseTimeMs:  elapsedMs,
		WordCount:       words,
		TokensPerSecond: tps,
	}
}
