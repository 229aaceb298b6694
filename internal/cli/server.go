package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"flashdeck-service/internal/app"
	"flashdeck-service/internal/config"
	"flashdeck-service/internal/domain"
	"flashdeck-service/internal/gateway"
	"flashdeck-service/internal/identity"
	"flashdeck-service/internal/infra/memory"
	pggateway "flashdeck-service/internal/infra/postgres"
	redisdeck "flashdeck-service/internal/infra/redis"
	transport "flashdeck-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the flashcard server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// deckCache is what both cache implementations provide: reads for quiz
// sessions and invalidation after card edits.
type deckCache interface {
	GetCards(ctx context.Context, token, setID string) ([]domain.Flashcard, error)
	Invalidate(setID string)
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Gateway.PostgresURL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	provider := identity.NewStaticProvider(identity.Identity{
		UserID:      cfg.Identity.UserID,
		DisplayName: cfg.Identity.DisplayName,
	}, cfg.Identity.Secret)

	gw, err := buildGateway(ctx, cfg)
	if err != nil {
		return err
	}

	deckTTL := config.TTLDuration(cfg.Deck.TTL, 5*time.Minute)
	var decks deckCache
	if cfg.Redis.Addr != "" {
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		decks = redisdeck.NewDeckCache(client, gw, config.TTLDuration(cfg.Redis.TTL, deckTTL))
	} else {
		decks = memory.NewDeckCache(gw, deckTTL)
	}

	registry := app.NewSetRegistry(gw, provider)
	defer registry.Close()
	study := app.NewStudyService(decks, provider)

	restHandler := transport.NewRESTHandler(registry, gw, provider, decks)
	studyHandler := transport.NewStudyHandler(study)

	router := mux.NewRouter()
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	router.HandleFunc("/study", studyHandler.ServeStudy)
	restHandler.Register(router)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting flashdeck service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildGateway picks the card backend: a hosted remote API when
// remote_url is set, the built-in Postgres gateway when postgres_url is
// set, and an in-memory gateway seeded with a sample deck otherwise.
func buildGateway(ctx context.Context, cfg config.Config) (gateway.Gateway, error) {
	if cfg.Gateway.RemoteURL != "" {
		return gateway.NewHTTPClient(cfg.Gateway.RemoteURL), nil
	}

	if cfg.Gateway.PostgresURL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Gateway.PostgresURL)
		if err != nil {
			return nil, err
		}
		secret := cfg.Identity.Secret
		return pggateway.NewGateway(pool, func(token string) (string, error) {
			return identity.SubjectFromToken(token, secret)
		}), nil
	}

	gw := memory.NewGateway()
	gw.Seed(cfg.Identity.UserID, "Getting Started", sampleDeck())
	return gw, nil
}

// sampleDeck gives a fresh install something to study before the user
// creates their own sets.
func sampleDeck() []domain.Flashcard {
	return []domain.Flashcard{
		{Question: "What is the capital of France?", Answer: "Paris"},
		{Question: "What is 7 x 8?", Answer: "56"},
		{Question: "Who wrote 1984?", Answer: "George Orwell"},
		{Question: "What is the chemical symbol for gold?", Answer: "Au"},
	}
}
