package main

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/thphuccoder/wordsearch/internal/httpserver"
	"github.com/thphuccoder/wordsearch/internal/store"
	"github.com/thphuccoder/wordsearch/internal/words"
)

func main() {
	_ = godotenv.Load()
	if lvl, err := zerolog.ParseLevel(envStr("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	if err := words.Init(); err != nil {
		log.Fatal().Err(err).Msg("failed to load word list")
	}

	db, err := openDB(envStr("DB_PATH", "./data/wordsearch.db"))
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	if err := migrate(db); err != nil {
		log.Fatal().Err(err).Msg("run migrations")
	}

	mem := store.NewMemoryStore()
	srv := httpserver.New(mem, db, httpserver.WithDelays(
		time.Duration(envInt("WRONG_DELAY_MS", 1000))*time.Millisecond,
		time.Duration(envInt("MATCH_DELAY_MS", 500))*time.Millisecond,
	))
	port := envStr("PORT", "5175")
	log.Info().Str("port", port).Int("words", words.Stats()).Msg("starting wordsearch server")
	if err := srv.Start(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func envStr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
