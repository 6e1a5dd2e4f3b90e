// Package tabtest builds loaded results for tab tests.
package tabtest

import (
	"fmt"
	"time"

	"github.com/j-veylop/whoop-dashboard-tui/internal/metrics"
	"github.com/j-veylop/whoop-dashboard-tui/internal/models"
	"github.com/j-veylop/whoop-dashboard-tui/internal/services"
)

// Today is the reference time of every fixture: a Wednesday morning.
var Today = time.Date(2024, 5, 15, 9, 0, 0, 0, time.UTC)

func f(v float64) *float64 { return &v }

// Dataset returns one scored cycle, recovery and sleep per day for the given
// number of days ending today, and a workout every other day.
func Dataset(days int) *models.Dataset {
	ds := &models.Dataset{
		Start:     Today.AddDate(0, 0, -days),
		End:       Today,
		FetchedAt: Today,
	}
	sports := []string{"running", "cycling", "weightlifting"}
	for i := range days {
		day := time.Date(Today.Year(), Today.Month(), Today.Day()-days+1+i, 0, 0, 0, 0, time.UTC)
		wake := day.Add(7 * time.Hour)
		id := int64(i + 1)
		sleepID := fmt.Sprintf("s%d", id)
		load := float64(i % 7)

		ds.Cycles = append(ds.Cycles, models.Cycle{
			ID:             id,
			Start:          day.Add(-time.Hour),
			TimezoneOffset: "+00:00",
			ScoreState:     models.ScoreStateScored,
			Score:          &models.CycleScore{Strain: 8 + load, Kilojoule: 9000 + 100*load},
		})
		ds.Recovery = append(ds.Recovery, models.Recovery{
			CycleID:    id,
			SleepID:    sleepID,
			CreatedAt:  wake,
			ScoreState: models.ScoreStateScored,
			Score: &models.RecoveryScore{
				RecoveryScore:    40 + 5*load,
				RestingHeartRate: 60 - load,
				HRVRmssdMilli:    50 + 3*load,
				SpO2Percentage:   f(95),
				SkinTempCelsius:  f(33.5),
			},
		})
		ds.Sleep = append(ds.Sleep, models.Sleep{
			ID:             sleepID,
			CycleID:        id,
			Start:          wake.Add(-8 * time.Hour),
			End:            wake,
			TimezoneOffset: "+00:00",
			ScoreState:     models.ScoreStateScored,
			Score: &models.SleepScore{
				StageSummary: models.SleepStages{
					TotalInBedTimeMilli:      int64(7*time.Hour/time.Millisecond) + int64(load)*600_000,
					TotalAwakeTimeMilli:      int64(30 * time.Minute / time.Millisecond),
					TotalLightSleepTimeMilli: int64(3 * time.Hour / time.Millisecond),
					TotalREMSleepTimeMilli:   int64(90*time.Minute/time.Millisecond) + int64(load)*300_000,
					SleepCycleCount:          4,
					DisturbanceCount:         10 - int(load),
				},
				RespiratoryRate:            f(14 + load/10),
				SleepPerformancePercentage: f(80 + load),
				SleepConsistencyPercentage: f(70 + 2*load),
				SleepEfficiencyPercentage:  f(85 + load),
			},
		})
		if i%2 == 0 {
			ds.Workouts = append(ds.Workouts, models.Workout{
				ID:             fmt.Sprintf("w%d", id),
				Start:          day.Add(17 * time.Hour),
				End:            day.Add(18 * time.Hour),
				TimezoneOffset: "+00:00",
				SportName:      sports[(i/2)%len(sports)],
				ScoreState:     models.ScoreStateScored,
				Score: &models.WorkoutScore{
					Strain:           10 + load,
					AverageHeartRate: 130,
					MaxHeartRate:     170,
					Kilojoule:        1500 + 100*load,
					ZoneDurations: models.WorkoutZones{
						ZoneTwoMilli:   int64(20 * time.Minute / time.Millisecond),
						ZoneThreeMilli: int64(15 * time.Minute / time.Millisecond),
					},
				},
			})
		}
	}
	return ds
}

// Result wraps Dataset(days) the way a load returns it.
func Result(days int) *services.LoadResult {
	ds := Dataset(days)
	return &services.LoadResult{
		Dataset:      ds,
		Engine:       metrics.NewEngine(ds),
		Profile:      &models.UserProfile{UserID: 42, FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"},
		Today:        Today,
		BaselineDays: days,
		Key:          fmt.Sprintf("%dd@%s", days, Today.Format("2006-01-02T15:04")),
	}
}
