package stats_test

import (
	"testing"

	"github.com/dalemusser/clubreviews/internal/app/system/stats"
	"github.com/dalemusser/clubreviews/internal/domain/models"
)

func review(org string, rating float64, vibes ...int) models.Review {
	r := models.Review{OrganizationID: org, Rating: rating}
	if len(vibes) > 0 {
		r.VibeSocial = models.IntPtr(vibes[0])
	}
	if len(vibes) > 1 {
		r.VibeWorkload = models.IntPtr(vibes[1])
	}
	if len(vibes) > 2 {
		r.VibeValue = models.IntPtr(vibes[2])
	}
	return r
}

func TestReduce_Empty(t *testing.T) {
	if _, ok := stats.Reduce("1", nil); ok {
		t.Error("expected no stats for an organization without reviews")
	}
}

func TestReduce_OnlyFlagged(t *testing.T) {
	r := review("1", 5)
	r.Flagged = true
	if _, ok := stats.Reduce("1", []models.Review{r}); ok {
		t.Error("flagged reviews must not produce stats")
	}
}

func TestReduce_Averages(t *testing.T) {
	flagged := review("1", 0.5, 0, 0, 0)
	flagged.Flagged = true

	got, ok := stats.Reduce("1", []models.Review{
		review("1", 4.5, 75, 25, 60),
		review("1", 3.0, 50, 50, 51),
		review("1", 4.0),    // all vibes default to 50
		review("2", 1.0, 0), // other organization
		flagged,
	})
	if !ok {
		t.Fatal("expected stats")
	}
	want := models.OrganizationStats{
		OrganizationID:  "1",
		AverageRating:   3.8, // 11.5 / 3 = 3.833...
		AverageSocial:   58,  // 175 / 3 = 58.33
		AverageWorkload: 42,  // 125 / 3 = 41.67
		AverageValue:    54,  // 161 / 3 = 53.67
		ReviewCount:     3,
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestRoundRating(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{4.25, 4.3},
		{4.24, 4.2},
		{3.0, 3.0},
		{0.5, 0.5},
	}
	for _, tt := range tests {
		if got := stats.RoundRating(tt.in); got != tt.want {
			t.Errorf("RoundRating(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRoundVibe(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{50.5, 51},
		{50.49, 50},
		{0, 0},
		{99.5, 100},
	}
	for _, tt := range tests {
		if got := stats.RoundVibe(tt.in); got != tt.want {
			t.Errorf("RoundVibe(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
