package main

import (
	"log"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/streamgate/streamgate/adapters/catalog"
	"github.com/streamgate/streamgate/adapters/directory"
	"github.com/streamgate/streamgate/adapters/events"
	"github.com/streamgate/streamgate/adapters/store"
	"github.com/streamgate/streamgate/adapters/tokenizer"
	"github.com/streamgate/streamgate/config"
	"github.com/streamgate/streamgate/ports"
	"github.com/streamgate/streamgate/service"
	"github.com/streamgate/streamgate/transport/http"
)

func main() {
	// Local development convenience; a missing .env is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	var (
		sessions  ports.SessionStore
		publisher ports.EventPublisher = events.NopPublisher{}
	)

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to parse Redis URL: %v", err)
		}
		redisClient := redis.NewClient(opts)
		sessions = store.NewRedisStore(redisClient)

		wmLogger := watermill.NewStdLogger(false, false)
		redisPublisher, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{Client: redisClient},
			wmLogger,
		)
		if err != nil {
			log.Fatalf("failed to create Redis publisher: %v", err)
		}
		publisher = events.NewWatermillPublisher(redisPublisher)
	} else {
		log.Println("REDIS_URL not set, using in-memory session store")
		sessions = store.NewMemoryStore()
	}

	// The user directory and video catalog are external collaborators;
	// the in-memory adapters stand in until real ones are wired.
	users := directory.NewMemoryDirectory()
	videos := catalog.NewMemoryCatalog()

	tk := tokenizer.NewJWTTokenizer(cfg.TokenSecret)

	authService := service.NewAuthService(users, sessions, publisher, service.AuthConfig{
		SessionTTL: cfg.SessionTTL,
		FailFloor:  cfg.LoginFailFloor,
	})
	streamService := service.NewStreamService(tk, videos, publisher, service.StreamConfig{
		TokenTTL:    cfg.TokenTTL,
		MaxTokenTTL: cfg.MaxTokenTTL,
		StrictIP:    cfg.StrictIPBinding,
	})

	router := http.SetupRouter(authService, streamService, cfg.SecureCookies)

	if err := router.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
