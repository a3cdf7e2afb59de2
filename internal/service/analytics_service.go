package service

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pitchready/refexam-backend/internal/model"
	"github.com/pitchready/refexam-backend/internal/repository"
)

// AnalyticsService derives progress statistics from the user's result
// history. Everything is computed from the stored results; nothing here
// writes.
type AnalyticsService struct {
	results *repository.ResultRepository
}

// NewAnalyticsService creates a new AnalyticsService.
func NewAnalyticsService(results *repository.ResultRepository) *AnalyticsService {
	return &AnalyticsService{results: results}
}

// Summary is the headline card of the progress page.
type Summary struct {
	TotalExams       int     `json:"totalExams"`
	AveragePercent   float64 `json:"averagePercent"`
	BestPercent      int     `json:"bestPercent"`
	PassRate         float64 `json:"passRate"`
	TotalTimeSeconds int     `json:"totalTimeSeconds"`
	StreakDays       int     `json:"streakDays"`
}

// TrendPoint is one exam on the score-over-time chart.
type TrendPoint struct {
	ResultID   uuid.UUID      `json:"resultId"`
	ExamType   model.ExamType `json:"examType"`
	Percentage int            `json:"percentage"`
	Passed     bool           `json:"passed"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// CategoryPerformance aggregates a user's accuracy in one category across
// their whole history.
type CategoryPerformance struct {
	Category model.Category `json:"category"`
	Correct  int            `json:"correct"`
	Total    int            `json:"total"`
	Percent  float64        `json:"percent"`
}

// DifficultyPerformance aggregates accuracy per difficulty level.
type DifficultyPerformance struct {
	Difficulty model.Difficulty `json:"difficulty"`
	Correct    int              `json:"correct"`
	Total      int              `json:"total"`
	Percent    float64          `json:"percent"`
}

// Overview bundles everything the progress page needs in one response.
type Overview struct {
	Summary      Summary                 `json:"summary"`
	Trend        []TrendPoint            `json:"trend"`
	Categories   []CategoryPerformance   `json:"categories"`
	Difficulties []DifficultyPerformance `json:"difficulties"`
	Weakest      *CategoryPerformance    `json:"weakest"`
	Strongest    *CategoryPerformance    `json:"strongest"`
	Recent       []model.Result          `json:"recent"`
}

const (
	trendLimit  = 20
	recentLimit = 5
)

// Overview computes the full progress report for a user. An empty history
// yields zeroed aggregates, not an error.
func (s *AnalyticsService) Overview(ctx context.Context, userID uuid.UUID) (*Overview, error) {
	results, err := s.results.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	o := &Overview{
		Summary:      summarize(results),
		Trend:        trend(results, trendLimit),
		Categories:   categoryPerformance(results),
		Difficulties: difficultyPerformance(results),
		Recent:       results,
	}
	if len(o.Recent) > recentLimit {
		o.Recent = o.Recent[:recentLimit]
	}
	o.Weakest, o.Strongest = extremes(o.Categories)
	return o, nil
}

func summarize(results []model.Result) Summary {
	sum := Summary{TotalExams: len(results)}
	if len(results) == 0 {
		return sum
	}

	var pctSum, passed int
	for _, r := range results {
		pctSum += r.Percentage
		if r.Percentage > sum.BestPercent {
			sum.BestPercent = r.Percentage
		}
		if r.Passed {
			passed++
		}
		sum.TotalTimeSeconds += r.TimeTakenSeconds
	}
	sum.AveragePercent = round1(float64(pctSum) / float64(len(results)))
	sum.PassRate = round1(float64(passed) * 100 / float64(len(results)))
	sum.StreakDays = streak(results, time.Now())
	return sum
}

// streak counts consecutive calendar days with at least one exam, ending
// today or yesterday. Results must be newest first.
func streak(results []model.Result, now time.Time) int {
	days := make(map[string]struct{}, len(results))
	for _, r := range results {
		days[r.CreatedAt.Local().Format("2006-01-02")] = struct{}{}
	}

	day := now
	if _, ok := days[day.Format("2006-01-02")]; !ok {
		// A streak may still be alive if the last exam was yesterday.
		day = day.AddDate(0, 0, -1)
		if _, ok := days[day.Format("2006-01-02")]; !ok {
			return 0
		}
	}

	count := 0
	for {
		if _, ok := days[day.Format("2006-01-02")]; !ok {
			break
		}
		count++
		day = day.AddDate(0, 0, -1)
	}
	return count
}

// trend returns the last n results in chronological order for charting.
func trend(results []model.Result, n int) []TrendPoint {
	if len(results) > n {
		results = results[:n]
	}
	points := make([]TrendPoint, 0, len(results))
	for i := len(results) - 1; i >= 0; i-- {
		r := results[i]
		points = append(points, TrendPoint{
			ResultID:   r.ID,
			ExamType:   r.ExamType,
			Percentage: r.Percentage,
			Passed:     r.Passed,
			CreatedAt:  r.CreatedAt,
		})
	}
	return points
}

func categoryPerformance(results []model.Result) []CategoryPerformance {
	agg := make(map[model.Category]*CategoryPerformance)
	for _, c := range model.Categories() {
		agg[c] = &CategoryPerformance{Category: c}
	}
	for _, r := range results {
		for cat, stats := range r.CategoryBreakdown {
			p, ok := agg[cat]
			if !ok {
				p = &CategoryPerformance{Category: cat}
				agg[cat] = p
			}
			p.Correct += stats.Correct
			p.Total += stats.Total
		}
	}

	out := make([]CategoryPerformance, 0, len(agg))
	for _, p := range agg {
		if p.Total > 0 {
			p.Percent = round1(float64(p.Correct) * 100 / float64(p.Total))
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

func difficultyPerformance(results []model.Result) []DifficultyPerformance {
	agg := map[model.Difficulty]*DifficultyPerformance{
		model.DifficultyEasy:   {Difficulty: model.DifficultyEasy},
		model.DifficultyMedium: {Difficulty: model.DifficultyMedium},
		model.DifficultyHard:   {Difficulty: model.DifficultyHard},
	}
	for _, r := range results {
		for _, q := range r.Questions {
			p, ok := agg[q.Difficulty]
			if !ok {
				continue
			}
			p.Total++
			if q.IsCorrect {
				p.Correct++
			}
		}
	}

	out := make([]DifficultyPerformance, 0, 3)
	for _, d := range []model.Difficulty{model.DifficultyEasy, model.DifficultyMedium, model.DifficultyHard} {
		p := agg[d]
		if p.Total > 0 {
			p.Percent = round1(float64(p.Correct) * 100 / float64(p.Total))
		}
		out = append(out, *p)
	}
	return out
}

// extremes picks the weakest and strongest categories among those with any
// attempts. Nil when no category has been attempted yet.
func extremes(categories []CategoryPerformance) (weakest, strongest *CategoryPerformance) {
	for i := range categories {
		p := &categories[i]
		if p.Total == 0 {
			continue
		}
		if weakest == nil || p.Percent < weakest.Percent {
			weakest = p
		}
		if strongest == nil || p.Percent > strongest.Percent {
			strongest = p
		}
	}
	return weakest, strongest
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
