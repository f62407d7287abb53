package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"skill-platform/internal/config"
	"skill-platform/internal/domain"
	"skill-platform/internal/domain/model"
	pg "skill-platform/internal/infra/db/postgres"
	"skill-platform/internal/infra/logging"
	"skill-platform/internal/usecase"
)

// Seeds a demo user and a couple of skills so the API has something to serve
// right after the schema is applied. Safe to re-run.
func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.New(cfg.Log, true)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	tm := pg.NewTxManager(pool)
	userRepo := pg.NewUserRepo(pool)
	skillRepo := pg.NewSkillRepo(pool)

	userUC := usecase.NewUserUseCase(userRepo, logger)
	skillUC := usecase.NewSkillUseCase(skillRepo, userRepo, tm, logger)

	demo, err := userUC.Register(ctx, "demo@example.com", "demo-password")
	if err != nil {
		if !errors.Is(err, domain.ErrAlreadyExists) {
			log.Fatalf("seed user: %v", err)
		}
		demo, err = userUC.GetByEmail(ctx, "demo@example.com")
		if err != nil {
			log.Fatalf("find demo user: %v", err)
		}
		fmt.Println("demo user already present")
	} else {
		fmt.Printf("seeded user: %s (id=%d)\n", demo.Email, demo.ID)
	}

	seed := []struct {
		Name        string
		Description string
		Visibility  model.SkillVisibility
		SkillMD     string
	}{
		{"summarizer", "Summarizes long text into bullet points.", model.SkillVisibilityPublic,
			"# Summarizer\n\nCondense the input into at most five bullet points."},
		{"translator", "Translates input text to English.", model.SkillVisibilityPrivate,
			"# Translator\n\nTranslate the input into English, keeping tone."},
	}

	for _, s := range seed {
		detail, err := skillUC.Create(ctx, demo.ID, s.Name, s.Description, s.Visibility,
			s.SkillMD, "openapi: 3.0.0\ninfo:\n  title: "+s.Name+"\n  version: 1.0.0\n")
		if err != nil {
			if errors.Is(err, domain.ErrAlreadyExists) {
				fmt.Printf("skill %q already present\n", s.Name)
				continue
			}
			log.Fatalf("create skill %q: %v", s.Name, err)
		}
		fmt.Printf("seeded: %s (id=%d, v%d, %s)\n",
			detail.Skill.Name, detail.Skill.ID, detail.LatestVersion.Version, detail.Skill.Visibility)
	}

	fmt.Println("Seeding complete.")
}
