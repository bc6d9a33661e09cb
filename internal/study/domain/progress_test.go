package domain

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAddActivity(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	t.Run("appends in order", func(t *testing.T) {
		progress := NewProgress()
		progress.AddActivity("first", now)
		progress.AddActivity("second", now.Add(time.Minute))

		require.Len(t, progress.Activities, 2)
		require.Equal(t, "first", progress.Activities[0].Action)
		require.Equal(t, "second", progress.Activities[1].Action)
	})

	t.Run("evicts the oldest beyond the cap", func(t *testing.T) {
		progress := NewProgress()
		for i := 1; i <= MaxActivities+5; i++ {
			progress.AddActivity(fmt.Sprintf("entry %d", i), now)
		}

		require.Len(t, progress.Activities, MaxActivities)
		require.Equal(t, "entry 6", progress.Activities[0].Action)
		require.Equal(t, "entry 25", progress.Activities[MaxActivities-1].Action)
	})
}

func TestToggleRSVP(t *testing.T) {
	progress := NewProgress()

	require.True(t, progress.ToggleRSVP(3))
	require.True(t, progress.ToggleRSVP(7))
	require.Equal(t, []int{3, 7}, progress.RSVPs)

	require.False(t, progress.ToggleRSVP(3))
	require.Equal(t, []int{7}, progress.RSVPs)

	require.True(t, progress.ToggleRSVP(3))
	require.Equal(t, []int{7, 3}, progress.RSVPs)
}

func TestProgressJSON(t *testing.T) {
	t.Run("period keys encode as strings", func(t *testing.T) {
		progress := NewProgress()
		progress.Periods[3] = PeriodProgress{Mastery: 40}

		raw, err := json.Marshal(progress)
		require.NoError(t, err)
		require.Contains(t, string(raw), `"3":{"mastery":40`)
	})

	t.Run("normalize restores nil maps after decode", func(t *testing.T) {
		var progress Progress
		require.NoError(t, json.Unmarshal([]byte(`{"practiceQuestions":2}`), &progress))
		progress.Normalize()

		require.NotNil(t, progress.Periods)
		require.NotNil(t, progress.Skills)
		require.Equal(t, 2, progress.PracticeQuestions)
	})
}
