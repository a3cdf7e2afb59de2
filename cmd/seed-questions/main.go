package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/pitchready/refexam-backend/internal/config"
	"github.com/pitchready/refexam-backend/internal/database"
	"github.com/pitchready/refexam-backend/internal/logger"
	"github.com/pitchready/refexam-backend/internal/model"
	"github.com/pitchready/refexam-backend/internal/repository"
)

// seedQuestion is the JSON shape of one corpus entry in the seed file.
type seedQuestion struct {
	QuestionText  string         `json:"questionText"`
	Options       []model.Option `json:"options"`
	CorrectAnswer string         `json:"correctAnswer"`
	Category      string         `json:"category"`
	Difficulty    string         `json:"difficulty"`
	Explanation   string         `json:"explanation"`
	LawReference  string         `json:"lawReference"`
}

func main() {
	var file string
	flag.StringVar(&file, "file", "seed/questions.json", "Path to the question corpus JSON file")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	questionRepo := repository.NewQuestionRepository(pool)

	raw, err := os.ReadFile(file)
	if err != nil {
		log.Fatal().Err(err).Str("file", file).Msg("Failed to read seed file")
	}

	var seeds []seedQuestion
	if err := json.Unmarshal(raw, &seeds); err != nil {
		log.Fatal().Err(err).Msg("Failed to parse seed file")
	}

	fmt.Printf("=== Seeding %d Questions ===\n", len(seeds))

	inserted, skipped := 0, 0
	for i, s := range seeds {
		q := &model.Question{
			QuestionText:  s.QuestionText,
			Options:       s.Options,
			CorrectAnswer: s.CorrectAnswer,
			Category:      model.Category(s.Category),
			Difficulty:    model.Difficulty(s.Difficulty),
			Explanation:   s.Explanation,
			LawReference:  s.LawReference,
			IsActive:      true,
		}
		if err := q.Validate(); err != nil {
			log.Warn().Err(err).Int("index", i).Msg("Skipping invalid question")
			skipped++
			continue
		}
		if err := questionRepo.Create(ctx, q); err != nil {
			log.Fatal().Err(err).Int("index", i).Msg("Failed to insert question")
		}
		inserted++
	}

	fmt.Printf("Done: %d inserted, %d skipped\n", inserted, skipped)
}
