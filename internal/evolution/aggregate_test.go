package evolution

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/raphaelgruber/scout-go/internal/models"
)

func episode(returned, saved, followups int, tools ...string) models.Episode {
	e := models.Episode{FollowupCount: followups}
	for i := 0; i < returned; i++ {
		e.SourcesReturned = append(e.SourcesReturned, "https://example.com")
	}
	for i := 0; i < saved; i++ {
		e.SourcesSaved = append(e.SourcesSaved, "https://example.com")
	}
	for _, tool := range tools {
		e.ToolUsage = append(e.ToolUsage, models.ToolUsage{Tool: tool})
	}
	return e
}

func TestAggregateEmpty(t *testing.T) {
	m := Aggregate(nil)
	assert.Equal(t, models.AggregatedMetrics{}, m)
}

func TestAggregate(t *testing.T) {
	m := Aggregate([]models.Episode{
		episode(4, 2, 1, models.ToolWebSearch, models.ToolSensoQuery), // save rate 0.5
		episode(2, 2, 3, models.ToolWebSearch),                        // save rate 1.0
		episode(0, 0, 2),                                              // zero returned counts as 0
	})

	assert.Equal(t, 3, m.TotalEpisodes)
	assert.InDelta(t, 0.5, m.AvgSaveRate, 1e-9)
	assert.InDelta(t, 2.0, m.AvgFollowupCount, 1e-9)
	assert.InDelta(t, 1.0/3.0, m.SensoUsageRate, 1e-9)
}

func TestAggregateZeroReturnedNotExcluded(t *testing.T) {
	// A single perfect episode next to a barren one averages to 0.5, not 1.0.
	m := Aggregate([]models.Episode{
		episode(5, 5, 0),
		episode(0, 0, 0),
	})
	assert.InDelta(t, 0.5, m.AvgSaveRate, 1e-9)
}
