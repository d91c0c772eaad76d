// Package insights runs the aggregate queries behind the Insights
// screen. Rendering is out of scope; this is only the data side.
package insights

import (
	"context"
	"time"

	"github.com/emberapp/ember-go/internal/db"
	"github.com/emberapp/ember-go/internal/fault"
)

// DayEnergy is the average energy for one calendar day.
type DayEnergy struct {
	Day    string  `json:"day"` // YYYY-MM-DD
	Energy float64 `json:"energy"`
}

// Overview is the aggregate view over the last N days. Row-level scoping
// applies to the aggregates the same as to row reads, so the numbers
// only ever cover the caller's own data.
type Overview struct {
	Days          int            `json:"days"`
	CheckIns      int            `json:"check_ins"`
	Events        int            `json:"events"`
	Reflections   int            `json:"reflections"`
	MoodBreakdown map[string]int `json:"mood_breakdown"`
	EnergyTrend   []DayEnergy    `json:"energy_trend"`
}

// Summarize builds the overview for the trailing window of `days` days.
// Assembled from per-concern queries the way the stats page does it;
// the gateways' one-round-trip rule applies to record operations, not
// to this report.
func Summarize(ctx context.Context, client *db.Client, days int) (*Overview, error) {
	pool, err := client.Session()
	if err != nil {
		return nil, err
	}
	if days <= 0 {
		days = 7
	}
	since := time.Now().AddDate(0, 0, -days)

	ov := &Overview{
		Days:          days,
		MoodBreakdown: make(map[string]int),
	}

	// 1) Row counts per entity.
	err = pool.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM check_ins WHERE "timestamp" >= $1),
			(SELECT COUNT(*) FROM events WHERE created_at >= $1),
			(SELECT COUNT(*) FROM reflections WHERE created_at >= $1)
	`, since).Scan(&ov.CheckIns, &ov.Events, &ov.Reflections)
	if err != nil {
		return nil, fault.FromPQ("summarize counts", err)
	}

	// 2) Check-in count per mood.
	moodRows, err := pool.QueryContext(ctx, `
		SELECT mood, COUNT(*)
		FROM check_ins
		WHERE "timestamp" >= $1
		GROUP BY mood
		ORDER BY mood
	`, since)
	if err != nil {
		return nil, fault.FromPQ("summarize moods", err)
	}
	defer moodRows.Close()
	for moodRows.Next() {
		var mood string
		var cnt int
		if err := moodRows.Scan(&mood, &cnt); err != nil {
			return nil, fault.FromPQ("summarize moods", err)
		}
		ov.MoodBreakdown[mood] = cnt
	}
	if err := moodRows.Err(); err != nil {
		return nil, fault.FromPQ("summarize moods", err)
	}

	// 3) Average energy per day.
	energyRows, err := pool.QueryContext(ctx, `
		SELECT DATE("timestamp") AS day, AVG(energy)
		FROM check_ins
		WHERE "timestamp" >= $1
		GROUP BY DATE("timestamp")
		ORDER BY day
	`, since)
	if err != nil {
		return nil, fault.FromPQ("summarize energy", err)
	}
	defer energyRows.Close()
	for energyRows.Next() {
		var day time.Time
		var avg float64
		if err := energyRows.Scan(&day, &avg); err != nil {
			return nil, fault.FromPQ("summarize energy", err)
		}
		ov.EnergyTrend = append(ov.EnergyTrend, DayEnergy{
			Day:    day.Format("2006-01-02"),
			Energy: avg,
		})
	}
	if err := energyRows.Err(); err != nil {
		return nil, fault.FromPQ("summarize energy", err)
	}

	return ov, nil
}
