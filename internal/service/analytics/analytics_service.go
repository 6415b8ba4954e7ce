package analytics

import (
	"ai-nexus/internal/app"
	"ai-nexus/internal/logger"
	"ai-nexus/internal/repository/db"
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
)

// LeaderboardSize is the length of each leaderboard list
const LeaderboardSize = 5

const dayLayout = "2006-01-02"

// ModelPerformanceStats summarises every measured reply of one model
type ModelPerformanceStats struct {
	ModelID            string  `json:"modelId"`
	DisplayName        string  `json:"displayName"`
	AvgResponseTime    float64 `json:"avgResponseTime"`
	AvgWordCount       float64 `json:"avgWordCount"`
	AvgTokensPerSecond float64 `json:"avgTokensPerSecond"`
	MessageCount       int64   `json:"messageCount"`
}

// DayMetrics is one day of a user's activity
type DayMetrics struct {
	Date            string  `json:"date"`
	MessageCount    int64   `json:"messageCount"`
	AvgResponseTime float64 `json:"avgResponseTime"`
}

// GlobalUsageTrend counts replies per model for one day across all users
type GlobalUsageTrend struct {
	Date        string           `json:"date"`
	ModelCounts map[string]int64 `json:"modelCounts"`
	TotalCount  int64            `json:"totalCount"`
}

type PersonalAnalytics struct {
	ModelStats    []ModelPerformanceStats `json:"modelStats"`
	ActivityTrend []DayMetrics            `json:"activityTrend"`
}

type GlobalLeaderboard struct {
	TopBySpeed      []ModelPerformanceStats `json:"topBySpeed"`
	TopByVolume     []ModelPerformanceStats `json:"topByVolume"`
	TopByEfficiency []ModelPerformanceStats `json:"topByEfficiency"`
	UsageTrends     []GlobalUsageTrend      `json:"usageTrends"`
}

// AnalyticsService reads assistant replies and aggregates their metrics.
// It holds no state of its own and takes no locks.
type AnalyticsService struct {
	db     db.Database
	config *app.Config
}

// NewAnalyticsService creates a new AnalyticsService
func NewAnalyticsService(database db.Database, config *app.Config) *AnalyticsService {
	return &AnalyticsService{db: database, config: config}
}

// PersonalAnalytics aggregates the replies in conversations owned by userEmail
func (s *AnalyticsService) PersonalAnalytics(ctx context.Context, userEmail string) (*PersonalAnalytics, error) {
	messages, err := s.db.GetAssistantMessagesByOwnerEmail(ctx, userEmail)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	measured := Measured(messages)

	logger.Log.WithFields(logrus.Fields{
		"email":    userEmail,
		"messages": len(measured),
	}).Debug("Computing personal analytics")

	return &PersonalAnalytics{
		ModelStats:    AggregateByModel(measured, s.displayName),
		ActivityTrend: AggregateByDate(measured),
	}, nil
}

// GlobalLeaderboard ranks models over every measured reply in the store
func (s *AnalyticsService) GlobalLeaderboard(ctx context.Context) (*GlobalLeaderboard, error) {
	messages, err := s.db.GetAllAssistantMessages(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	measured := Measured(messages)
	stats := AggregateByModel(measured, s.displayName)

	return &GlobalLeaderboard{
		TopBySpeed: TopN(stats, LeaderboardSize, func(a, b ModelPerformanceStats) bool {
			return a.AvgResponseTime < b.AvgResponseTime
		}),
		TopByVolume: TopN(stats, LeaderboardSize, func(a, b ModelPerformanceStats) bool {
			return a.MessageCount > b.MessageCount
		}),
		TopByEfficiency: TopN(stats, LeaderboardSize, func(a, b ModelPerformanceStats) bool {
			return a.AvgTokensPerSecond > b.AvgTokensPerSecond
		}),
		UsageTrends: AggregateGlobalTrends(measured),
	}, nil
}

func (s *AnalyticsService) displayName(modelID string) string {
	if s.config == nil || s.config.AppConfig == nil || s.config.ModelsConfig() == nil {
		return modelID
	}
	return s.config.ModelsConfig().DisplayName(modelID)
}

// Measured keeps assistant messages that carry metrics
func Measured(messages []db.Message) []db.Message {
	out := make([]db.Message, 0, len(messages))
	for _, msg := range messages {
		if msg.IsUser() || msg.Metrics() == nil {
			continue
		}
		out = append(out, msg)
	}
	return out
}

func withModel(messages []db.Message) []db.Message {
	out := make([]db.Message, 0, len(messages))
	for _, msg := range messages {
		if msg.Model() != "" {
			out = append(out, msg)
		}
	}
	return out
}

// groupBy buckets messages by key, returning keys in first-appearance order
func groupBy(messages []db.Message, key func(db.Message) string) ([]string, map[string][]db.Message) {
	var order []string
	groups := make(map[string][]db.Message)
	for _, msg := range messages {
		k := key(msg)
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], msg)
	}
	return order, groups
}

func dayKey(msg db.Message) string {
	return msg.Timestamp.UTC().Format(dayLayout)
}

// AggregateByModel averages latency, word count and throughput per model.
// Models are returned in the order they first appear in messages. Replies
// without a model id are skipped.
func AggregateByModel(messages []db.Message, displayName func(string) string) []ModelPerformanceStats {
	order, groups := groupBy(withModel(messages), db.Message.Model)

	stats := make([]ModelPerformanceStats, 0, len(order))
	for _, model := range order {
		msgs := groups[model]
		var totalTime, totalWords, totalTPS float64
		for _, msg := range msgs {
			m := msg.Metrics()
			totalTime += float64(m.ResponseTimeMs)
			totalWords += float64(m.WordCount)
			totalTPS += m.TokensPerSecond
		}
		n := float64(len(msgs))

		name := model
		if displayName != nil {
			name = displayName(model)
		}
		stats = append(stats, ModelPerformanceStats{
			ModelID:            model,
			DisplayName:        name,
			AvgResponseTime:    totalTime / n,
			AvgWordCount:       totalWords / n,
			AvgTokensPerSecond: totalTPS / n,
			MessageCount:       int64(len(msgs)),
		})
	}
	return stats
}

// AggregateByDate buckets messages per UTC day, ascending by date
func AggregateByDate(messages []db.Message) []DayMetrics {
	order, groups := groupBy(messages, dayKey)

	days := make([]DayMetrics, 0, len(order))
	for _, date := range order {
		msgs := groups[date]
		var total float64
		for _, msg := range msgs {
			total += float64(msg.Metrics().ResponseTimeMs)
		}
		days = append(days, DayMetrics{
			Date:            date,
			MessageCount:    int64(len(msgs)),
			AvgResponseTime: total / float64(len(msgs)),
		})
	}
	sort.SliceStable(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return days
}

// AggregateGlobalTrends counts replies per model for each UTC day. Replies
// without a model id are skipped.
func AggregateGlobalTrends(messages []db.Message) []GlobalUsageTrend {
	order, groups := groupBy(withModel(messages), dayKey)

	trends := make([]GlobalUsageTrend, 0, len(order))
	for _, date := range order {
		msgs := groups[date]
		counts := make(map[string]int64)
		for _, msg := range msgs {
			counts[msg.Model()]++
		}
		trends = append(trends, GlobalUsageTrend{
			Date:        date,
			ModelCounts: counts,
			TotalCount:  int64(len(msgs)),
		})
	}
	sort.SliceStable(trends, func(i, j int) bool { return trends[i].Date < trends[j].Date })
	return trends
}

// TopN returns up to n entries of stats ordered by less. The input is not
// modified and ties keep their input order.
func TopN(stats []ModelPerformanceStats, n int, less func(a, b ModelPerformanceStats) bool) []ModelPerformanceStats {
	sorted := make([]ModelPerformanceStats, len(stats))
	copy(sorted, stats)
	sort.SliceStable(sorted, func(i, j int) bool { return less(sorted[i], sorted[j]) })
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
