package integration

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"flashdeck-service/internal/app"
	"flashdeck-service/internal/domain"
	"flashdeck-service/internal/identity"
	pggateway "flashdeck-service/internal/infra/postgres"
	pgmigrations "flashdeck-service/internal/infra/postgres/migrations"
	infraredis "flashdeck-service/internal/infra/redis"
)

const testSecret = "integration-secret"

func TestFlashcardFlowEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	applyMigrations(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	gw := pggateway.NewGateway(pool, func(token string) (string, error) {
		return identity.SubjectFromToken(token, testSecret)
	})

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	decks := infraredis.NewDeckCache(redisClient, gw, 5*time.Minute)

	provider := identity.NewStaticProvider(identity.Identity{UserID: "u1", DisplayName: "Alice"}, testSecret)
	registry := app.NewSetRegistry(gw, provider)
	defer registry.Close()

	set, err := registry.Create(ctx, "Biology",
		domain.Flashcard{Question: "H2O?", Answer: "Water"},
		domain.Flashcard{Question: "CO2?", Answer: "Carbon Dioxide"},
	)
	if err != nil {
		t.Fatalf("create set: %v", err)
	}

	store := app.NewCardStore(gw, provider, decks, set.ID)
	if err := store.Load(ctx); err != nil {
		t.Fatalf("load cards: %v", err)
	}
	if len(store.Cards()) != 2 {
		t.Fatalf("expected 2 cards, got %+v", store.Cards())
	}

	study := app.NewStudyServiceWithRand(decks, provider, rand.New(rand.NewSource(1)))
	session, err := study.Start(ctx, set.ID)
	if err != nil {
		t.Fatalf("start quiz: %v", err)
	}
	if len(session.Questions()) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(session.Questions()))
	}

	// Editing a card invalidates the cached deck; the next quiz sees the
	// new question.
	var waterCard domain.Flashcard
	for _, card := range store.Cards() {
		if card.Question == "H2O?" {
			waterCard = card
		}
	}
	if err := store.Update(ctx, waterCard.ID, "NaCl?", "Salt"); err != nil {
		t.Fatalf("update card: %v", err)
	}

	session, err = study.Start(ctx, set.ID)
	if err != nil {
		t.Fatalf("restart quiz: %v", err)
	}
	questions := make(map[string]bool)
	for _, card := range session.Questions() {
		questions[card.Question] = true
	}
	if questions["H2O?"] || !questions["NaCl?"] {
		t.Fatalf("quiz did not pick up edited card: %v", questions)
	}

	// Card removal needs the question retyped exactly.
	if err := store.BeginRemove(waterCard.ID); err != nil {
		t.Fatalf("begin remove: %v", err)
	}
	store.OfferRemoveInput("NaCl?")
	if err := store.ConfirmRemove(ctx); err != nil {
		t.Fatalf("confirm remove: %v", err)
	}

	session, err = study.Start(ctx, set.ID)
	if err != nil {
		t.Fatalf("quiz after removal: %v", err)
	}
	if len(session.Questions()) != 1 {
		t.Fatalf("expected 1 question after removal, got %d", len(session.Questions()))
	}

	// Set deletion needs the title retyped exactly.
	if err := registry.BeginDelete(set.ID); err != nil {
		t.Fatalf("begin delete: %v", err)
	}
	registry.OfferConfirmation("Biology")
	if !registry.ConfirmArmed() {
		t.Fatalf("exact title must arm deletion")
	}
	if err := registry.ConfirmDelete(ctx); err != nil {
		t.Fatalf("confirm delete: %v", err)
	}

	sets, err := registry.List(ctx)
	if err != nil {
		t.Fatalf("list sets: %v", err)
	}
	if len(sets) != 0 {
		t.Fatalf("deleted set still listed: %+v", sets)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "flashdeck", "POSTGRES_PASSWORD": "flashpass", "POSTGRES_DB": "flashdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://flashdeck:flashpass@%s:%s/flashdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func applyMigrations(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
