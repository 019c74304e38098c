// Package main seeds the database with an owner account and a set of events
// read from a YAML file.
//
// The command is idempotent: an existing owner is reused and events whose
// title and date already exist are skipped.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"geoevents.io/geoevents/internal/config"
	"geoevents.io/geoevents/internal/domain"
	"geoevents.io/geoevents/internal/infrastructure"
	apperrors "geoevents.io/geoevents/internal/pkg/errors"
	"geoevents.io/geoevents/internal/pkg/logger"
	"geoevents.io/geoevents/internal/repository"
	"geoevents.io/geoevents/internal/service"
)

const (
	defaultSeedFile      = "cmd/seed/events.yaml"
	defaultOwnerName     = "Owner"
	defaultOwnerEmail    = "owner@geoevents.local"
	defaultOwnerPassword = "change-me-now"
)

type seedConfig struct {
	File          string
	OwnerName     string
	OwnerEmail    string
	OwnerPassword string
}

// seedFile is the YAML document layout.
type seedFile struct {
	Events []seedEvent `yaml:"events"`
}

type seedEvent struct {
	Title          string    `yaml:"title"`
	Description    string    `yaml:"description"`
	Category       string    `yaml:"category"`
	Subcategories  []string  `yaml:"subcategories"`
	Tags           []string  `yaml:"tags"`
	EventDate      time.Time `yaml:"eventDate"`
	Latitude       string    `yaml:"latitude"`
	Longitude      string    `yaml:"longitude"`
	LocationName   string    `yaml:"locationName"`
	Borough        string    `yaml:"borough"`
	VideoURL       string    `yaml:"videoUrl"`
	SourceURL      string    `yaml:"sourceUrl"`
	PeopleInvolved string    `yaml:"peopleInvolved"`
	BackgroundInfo string    `yaml:"backgroundInfo"`
	Details        string    `yaml:"details"`
	IsCrime        bool      `yaml:"isCrime"`
	IsVerified     bool      `yaml:"isVerified"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "seed error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	sc := loadSeedConfig(cfg.Auth.OwnerEmail)

	f, err := os.Open(sc.File)
	if err != nil {
		return fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	events, err := parseSeedFile(f)
	if err != nil {
		return fmt.Errorf("parse %s: %w", sc.File, err)
	}

	ctx := context.Background()
	db, err := infrastructure.NewDatabaseClients(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer db.Close()

	if err := db.AutoMigrate(ctx); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	users := repository.NewUserRepository(db.Pool)
	owner, err := ensureOwner(ctx, users, sc)
	if err != nil {
		return fmt.Errorf("ensure owner: %w", err)
	}

	repo := repository.NewEventRepository(db.Pool)
	created, skipped, err := seedEvents(ctx, repo, service.NewEventService(repo), owner.ID, events)
	if err != nil {
		return fmt.Errorf("seed events: %w", err)
	}

	logger.Info("Data seeding completed",
		zap.String("owner", owner.Email),
		zap.Int("created", created),
		zap.Int("skipped", skipped),
	)
	return nil
}

func loadSeedConfig(ownerEmail string) seedConfig {
	if ownerEmail == "" {
		ownerEmail = defaultOwnerEmail
	}
	return seedConfig{
		File:          envOrDefault("SEED_FILE", defaultSeedFile),
		OwnerName:     envOrDefault("SEED_OWNER_NAME", defaultOwnerName),
		OwnerEmail:    envOrDefault("SEED_OWNER_EMAIL", ownerEmail),
		OwnerPassword: envOrDefault("SEED_OWNER_PASSWORD", defaultOwnerPassword),
	}
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func parseSeedFile(r io.Reader) ([]seedEvent, error) {
	var doc seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	return doc.Events, nil
}

func (e seedEvent) toInput() domain.EventInput {
	return domain.EventInput{
		Title:          e.Title,
		Description:    e.Description,
		Category:       e.Category,
		Subcategories:  e.Subcategories,
		Tags:           e.Tags,
		EventDate:      e.EventDate.UTC(),
		Latitude:       e.Latitude,
		Longitude:      e.Longitude,
		LocationName:   e.LocationName,
		Borough:        optional(e.Borough),
		VideoURL:       optional(e.VideoURL),
		SourceURL:      optional(e.SourceURL),
		PeopleInvolved: optional(e.PeopleInvolved),
		BackgroundInfo: optional(e.BackgroundInfo),
		Details:        optional(e.Details),
		IsCrime:        e.IsCrime,
		IsVerified:     e.IsVerified,
	}
}

func optional(s string) *string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}

// ensureOwner signs the owner up, or returns the existing account.
func ensureOwner(ctx context.Context, users service.UserStore, sc seedConfig) (*domain.User, error) {
	auth := service.NewAuthService(users, nil, sc.OwnerEmail)
	owner, err := auth.Signup(ctx, service.SignupRequest{
		Name:     sc.OwnerName,
		Email:    sc.OwnerEmail,
		Password: sc.OwnerPassword,
	})
	if err == nil {
		logger.Info("Seeded owner account", zap.String("email", owner.Email))
		return owner, nil
	}
	if apperrors.KindOf(err) != apperrors.KindConflict {
		return nil, err
	}
	logger.Info("Owner account already exists, skipping", zap.String("email", sc.OwnerEmail))
	return users.GetByEmail(ctx, strings.ToLower(sc.OwnerEmail))
}

type eventLister interface {
	List(ctx context.Context, f domain.EventFilter) ([]*domain.Event, error)
}

type eventCreator interface {
	Create(ctx context.Context, createdBy int64, in domain.EventInput) (*domain.Event, error)
}

// seedEvents creates every event not already present, keyed by title and date.
func seedEvents(ctx context.Context, existing eventLister, events eventCreator, ownerID int64, seeds []seedEvent) (created, skipped int, err error) {
	current, err := existing.List(ctx, domain.EventFilter{})
	if err != nil {
		return 0, 0, fmt.Errorf("list existing events: %w", err)
	}
	seen := make(map[string]struct{}, len(current))
	for _, e := range current {
		seen[seedKey(e.Title, e.EventDate)] = struct{}{}
	}

	for i, s := range seeds {
		key := seedKey(s.Title, s.EventDate)
		if _, ok := seen[key]; ok {
			skipped++
			continue
		}
		if _, err := events.Create(ctx, ownerID, s.toInput()); err != nil {
			return created, skipped, fmt.Errorf("event %d (%q): %w", i+1, s.Title, err)
		}
		seen[key] = struct{}{}
		created++
	}
	return created, skipped, nil
}

func seedKey(title string, at time.Time) string {
	return strings.TrimSpace(title) + "|" + at.UTC().Format(time.RFC3339)
}
