package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pitchready/refexam-backend/internal/model"
)

func resultAt(createdAt time.Time, percentage int, passed bool) model.Result {
	return model.Result{
		ID:         uuid.New(),
		ExamType:   model.ExamTypePractice,
		Percentage: percentage,
		Passed:     passed,
		Score:      percentage / 10,
		Total:      10,
		CreatedAt:  createdAt,
	}
}

func TestSummarizeEmptyHistory(t *testing.T) {
	sum := summarize(nil)
	if sum.TotalExams != 0 || sum.AveragePercent != 0 || sum.PassRate != 0 {
		t.Errorf("empty history summary = %+v, want zeroes", sum)
	}
}

func TestSummarize(t *testing.T) {
	now := time.Now()
	results := []model.Result{
		resultAt(now, 80, true),
		resultAt(now.Add(-time.Hour), 90, true),
		resultAt(now.Add(-2*time.Hour), 40, false),
	}
	results[0].TimeTakenSeconds = 100
	results[1].TimeTakenSeconds = 200

	sum := summarize(results)
	if sum.TotalExams != 3 {
		t.Errorf("totalExams = %d, want 3", sum.TotalExams)
	}
	if sum.AveragePercent != 70.0 {
		t.Errorf("averagePercent = %v, want 70.0", sum.AveragePercent)
	}
	if sum.BestPercent != 90 {
		t.Errorf("bestPercent = %d, want 90", sum.BestPercent)
	}
	if sum.PassRate != 66.7 {
		t.Errorf("passRate = %v, want 66.7", sum.PassRate)
	}
	if sum.TotalTimeSeconds != 300 {
		t.Errorf("totalTimeSeconds = %d, want 300", sum.TotalTimeSeconds)
	}
}

func TestStreak(t *testing.T) {
	now := time.Now()
	day := func(n int) time.Time { return now.AddDate(0, 0, -n) }

	tests := []struct {
		name    string
		days    []int
		want    int
	}{
		{"no exams", nil, 0},
		{"today only", []int{0}, 1},
		{"three consecutive ending today", []int{0, 1, 2}, 3},
		{"alive via yesterday", []int{1, 2}, 2},
		{"broken two days ago", []int{2, 3}, 0},
		{"gap stops the count", []int{0, 1, 3, 4}, 2},
		{"multiple exams same day", []int{0, 0, 1}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var results []model.Result
			for _, d := range tt.days {
				results = append(results, resultAt(day(d), 80, true))
			}
			if got := streak(results, now); got != tt.want {
				t.Errorf("streak = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTrendChronologicalAndBounded(t *testing.T) {
	now := time.Now()
	// Newest first, as the repository returns them.
	var results []model.Result
	for i := 0; i < 30; i++ {
		results = append(results, resultAt(now.Add(-time.Duration(i)*time.Hour), i, false))
	}

	points := trend(results, 20)
	if len(points) != 20 {
		t.Fatalf("got %d points, want 20", len(points))
	}
	// Chart order is oldest to newest.
	for i := 1; i < len(points); i++ {
		if points[i].CreatedAt.Before(points[i-1].CreatedAt) {
			t.Fatal("trend points not in chronological order")
		}
	}
	if points[len(points)-1].Percentage != 0 {
		t.Errorf("last point percentage = %d, want the newest result (0)", points[len(points)-1].Percentage)
	}
}

func TestCategoryPerformanceAggregates(t *testing.T) {
	r1 := resultAt(time.Now(), 50, false)
	r1.CategoryBreakdown = map[model.Category]model.CategoryStats{
		model.CategoryLawsOfTheGame: {Correct: 2, Total: 4},
	}
	r2 := resultAt(time.Now(), 75, true)
	r2.CategoryBreakdown = map[model.Category]model.CategoryStats{
		model.CategoryLawsOfTheGame: {Correct: 3, Total: 4},
		model.CategoryVARTechnology: {Correct: 1, Total: 2},
	}

	perf := categoryPerformance([]model.Result{r1, r2})
	if len(perf) != len(model.Categories()) {
		t.Fatalf("got %d categories, want all %d", len(perf), len(model.Categories()))
	}

	byCat := make(map[model.Category]CategoryPerformance)
	for _, p := range perf {
		byCat[p.Category] = p
	}

	laws := byCat[model.CategoryLawsOfTheGame]
	if laws.Correct != 5 || laws.Total != 8 || laws.Percent != 62.5 {
		t.Errorf("laws = %+v, want 5/8 62.5%%", laws)
	}
	if fp := byCat[model.CategoryFitnessPositioning]; fp.Total != 0 || fp.Percent != 0 {
		t.Errorf("unattempted category = %+v, want zeroes", fp)
	}
}

func TestExtremes(t *testing.T) {
	perf := []CategoryPerformance{
		{Category: model.CategoryLawsOfTheGame, Correct: 9, Total: 10, Percent: 90},
		{Category: model.CategoryVARTechnology, Correct: 1, Total: 10, Percent: 10},
		{Category: model.CategoryMatchProcedures, Total: 0},
	}

	weakest, strongest := extremes(perf)
	if weakest == nil || weakest.Category != model.CategoryVARTechnology {
		t.Errorf("weakest = %+v, want VAR & Technology", weakest)
	}
	if strongest == nil || strongest.Category != model.CategoryLawsOfTheGame {
		t.Errorf("strongest = %+v, want Laws of the Game", strongest)
	}

	if w, s := extremes([]CategoryPerformance{{Total: 0}}); w != nil || s != nil {
		t.Error("extremes over unattempted categories should be nil")
	}
}

func TestDifficultyPerformance(t *testing.T) {
	r := resultAt(time.Now(), 50, false)
	r.Questions = []model.ScoredQuestion{
		{Difficulty: model.DifficultyEasy, IsCorrect: true},
		{Difficulty: model.DifficultyEasy, IsCorrect: false},
		{Difficulty: model.DifficultyHard, IsCorrect: true},
	}

	perf := difficultyPerformance([]model.Result{r})
	if len(perf) != 3 {
		t.Fatalf("got %d difficulty rows, want 3", len(perf))
	}
	if perf[0].Difficulty != model.DifficultyEasy || perf[0].Correct != 1 || perf[0].Total != 2 {
		t.Errorf("easy = %+v, want 1/2", perf[0])
	}
	if perf[1].Total != 0 {
		t.Errorf("medium = %+v, want 0 attempts", perf[1])
	}
	if perf[2].Correct != 1 || perf[2].Total != 1 || perf[2].Percent != 100 {
		t.Errorf("hard = %+v, want 1/1 100%%", perf[2])
	}
}
