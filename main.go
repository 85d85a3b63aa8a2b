// main.go
//
// Entry point for the anagram server.
// Loads .env, sets the log level, loads the dictionary, opens and migrates
// SQLite, then serves the HTTP API while sweeping idle state in the background.

package main

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/anagram/internal/auth"
	"github.com/robalobadob/anagram/internal/db"
	"github.com/robalobadob/anagram/internal/httpserver"
	"github.com/robalobadob/anagram/internal/results"
	"github.com/robalobadob/anagram/internal/store"
	"github.com/robalobadob/anagram/internal/words"
)

func main() {
	_ = godotenv.Load()
	cfg := loadConfig()
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	if err := words.Init(); err != nil {
		log.Fatal().Err(err).Msg("failed to load word list")
	}
	dict := words.Default()
	counts := dict.CountByLength()
	log.Info().Int("words", dict.Len()).Int("six", counts[6]).Int("seven", counts[7]).Msg("dictionary loaded")

	sqlDB, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	defer sqlDB.Close()
	if err := db.Migrate(sqlDB); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	rounds := store.NewMemoryStore()
	srv := httpserver.New(httpserver.Config{
		ClientOrigin:   cfg.ClientOrigin,
		DailySalt:      cfg.DailySalt,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		Production:     cfg.Production,
	}, httpserver.Deps{
		Dict:    dict,
		Rounds:  rounds,
		Results: results.NewStore(sqlDB),
		Auth: auth.NewService(auth.Config{
			Secret:      cfg.JWTSecret,
			ExpiresDays: cfg.JWTExpiresDays,
			CookieName:  cfg.CookieName,
			Production:  cfg.Production,
		}, auth.NewUsers(sqlDB)),
	})

	go prune(rounds, srv, cfg.RoundTTL)

	log.Info().Str("port", cfg.Port).Msg("starting anagram server")
	if err := srv.Start(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

// prune drops finished rounds older than ttl from memory, along with the
// server's idle rate limiters and past daily bookkeeping.
func prune(m *store.Memory, srv *httpserver.Server, ttl time.Duration) {
	if ttl <= 0 {
		ttl = time.Hour
	}
	t := time.NewTicker(ttl / 4)
	defer t.Stop()
	for range t.C {
		cutoff := time.Now().Add(-ttl)
		n := m.Prune(cutoff)
		lims, dailies := srv.Prune(cutoff)
		if n+lims+dailies > 0 {
			log.Debug().Int("rounds", n).Int("limiters", lims).Int("daily", dailies).Msg("pruned idle state")
		}
	}
}
