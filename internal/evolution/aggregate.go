// Package evolution closes the feedback loop: it rolls episode outcomes up
// into metrics, decides whether a topic's strategy should change, and
// materializes evolved configs as new candidate versions with an audit trail.
package evolution

import (
	"github.com/raphaelgruber/scout-go/internal/models"
)

// Aggregate rolls a strategy version's episode set up into metrics. Pure and
// deterministic. Episodes that returned no sources count as save rate 0
// rather than being excluded.
func Aggregate(episodes []models.Episode) models.AggregatedMetrics {
	m := models.AggregatedMetrics{TotalEpisodes: len(episodes)}
	if len(episodes) == 0 {
		return m
	}

	var saveRateSum, followupSum float64
	sensoUsers := 0
	for _, e := range episodes {
		saveRateSum += e.SaveRate()
		followupSum += float64(e.FollowupCount)
		if e.UsedTool(models.ToolSensoQuery) {
			sensoUsers++
		}
	}

	n := float64(len(episodes))
	m.AvgSaveRate = saveRateSum / n
	m.AvgFollowupCount = followupSum / n
	m.SensoUsageRate = float64(sensoUsers) / n
	return m
}
