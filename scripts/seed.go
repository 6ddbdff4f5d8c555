package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/zatekoja/propertymarket/backend/internal/adapters/database"
	"github.com/zatekoja/propertymarket/backend/internal/api/middleware"
	"github.com/zatekoja/propertymarket/backend/internal/application/services"
	"github.com/zatekoja/propertymarket/backend/internal/domain/entities"
	"github.com/zatekoja/propertymarket/backend/internal/domain/repositories"
	"github.com/zatekoja/propertymarket/backend/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/propertymarket/backend/internal/infrastructure/observability"
	"github.com/zatekoja/propertymarket/backend/pkg/config"
)

type seedListing struct {
	title, city, state string
	category           entities.ListingCategory
	listingType        entities.ListingType
	price, area        float64
	bedrooms           int
	features           []string
	agent              string
	status             entities.ApprovalStatus
}

func intPtr(n int) *int { return &n }

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	observability.InitLogger("seed", cfg.Environment, cfg.LogLevel)

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to DB")
	}
	defer pgClient.Close()

	if err := pgClient.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply migrations")
	}

	ctx := context.Background()

	if os.Getenv("RESET_DB") == "true" {
		log.Info().Msg("RESET_DB=true detected, truncating tables before seeding")
		if _, err := pgClient.DB().ExecContext(ctx, `TRUNCATE TABLE ratings, listings, users`); err != nil {
			log.Fatal().Err(err).Msg("Failed to truncate tables")
		}
	}

	users := database.NewUserAdapter(pgClient)
	listings := database.NewListingAdapter(pgClient)
	ratings := database.NewRatingAdapter(pgClient)

	people := []*entities.User{
		{ID: uuid.NewString(), Name: "Ada Okafor", Email: "ada@propertymarket.test", Phone: "+234 801 000 0001", Role: entities.RoleAgent, IsActive: true},
		{ID: uuid.NewString(), Name: "Bola Adeyemi", Email: "bola@propertymarket.test", Role: entities.RoleAgent, IsActive: true},
		{ID: uuid.NewString(), Name: "Chidi Eze", Email: "chidi@propertymarket.test", Role: entities.RoleUser, IsActive: true},
		{ID: uuid.NewString(), Name: "Site Admin", Email: "admin@propertymarket.test", Role: entities.RoleAdmin, IsActive: true},
	}
	byEmail := map[string]*entities.User{}
	for _, u := range people {
		now := time.Now().UTC()
		u.CreatedAt, u.UpdatedAt = now, now
		if err := users.Create(ctx, u); err != nil {
			log.Fatal().Err(err).Str("email", u.Email).Msg("Failed to create user")
		}
		byEmail[u.Email] = u
	}
	ada, bola, chidi := byEmail["ada@propertymarket.test"], byEmail["bola@propertymarket.test"], byEmail["chidi@propertymarket.test"]

	seeds := []seedListing{
		{"Four bedroom duplex", "Lekki", "Lagos", entities.CategoryHouse, entities.ListingTypeSale, 250000, 320, 4, []string{"pool", "garden"}, ada.ID, entities.ApprovalApproved},
		{"Serviced two bedroom flat", "Ikoyi", "Lagos", entities.CategoryFlat, entities.ListingTypeRent, 12000, 110, 2, []string{"generator"}, ada.ID, entities.ApprovalApproved},
		{"Corner shop on high street", "Wuse", "Abuja", entities.CategoryShop, entities.ListingTypeRent, 8000, 45, 0, nil, bola.ID, entities.ApprovalApproved},
		{"Half plot with C of O", "Ibeju", "Lagos", entities.CategoryLand, entities.ListingTypeSale, 40000, 300, 0, nil, bola.ID, entities.ApprovalPending},
		{"Terrace house near the lagoon", "Yaba", "Lagos", entities.CategoryHouse, entities.ListingTypeSale, 349000, 210, 3, []string{"garage"}, bola.ID, entities.ApprovalApproved},
	}

	var created []*entities.Listing
	for i, s := range seeds {
		agent := ada
		if s.agent == bola.ID {
			agent = bola
		}
		now := time.Now().UTC().Add(time.Duration(i) * time.Minute)
		l := &entities.Listing{
			ID:             uuid.NewString(),
			Title:          s.title,
			Description:    fmt.Sprintf("%s in %s, %s.", s.title, s.city, s.state),
			Price:          s.price,
			Category:       s.category,
			ListingType:    s.listingType,
			Area:           s.area,
			Location:       s.city + ", " + s.state,
			Address:        fmt.Sprintf("%d Example Road", 10+i),
			City:           s.city,
			State:          s.state,
			Images:         []string{},
			Features:       append([]string{}, s.features...),
			AgentID:        agent.ID,
			AgentName:      agent.Name,
			AgentPhone:     agent.Phone,
			IsActive:       true,
			ApprovalStatus: s.status,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if s.bedrooms > 0 {
			l.Bedrooms = intPtr(s.bedrooms)
			l.Bathrooms = intPtr(s.bedrooms - 1)
		}
		if agent.Phone == "" {
			l.AgentPhone = agent.Email
		}
		if err := listings.Create(ctx, l); err != nil {
			log.Fatal().Err(err).Str("title", l.Title).Msg("Failed to create listing")
		}
		created = append(created, l)
	}

	// Ratings go through the service so aggregates are computed
	ratingService := services.NewRatingService(ratings, map[entities.SubjectType]repositories.RatingSubjectRepository{
		entities.SubjectListing: listings,
		entities.SubjectAgent:   users,
	}, nil, nil, nil)

	votes := []services.RatingInput{
		{Subject: entities.SubjectRef{Type: entities.SubjectListing, ID: created[0].ID}, RaterID: chidi.ID, RaterName: chidi.Name, Score: 5, Review: "Lovely compound"},
		{Subject: entities.SubjectRef{Type: entities.SubjectListing, ID: created[0].ID}, RaterID: bola.ID, RaterName: bola.Name, Score: 4},
		{Subject: entities.SubjectRef{Type: entities.SubjectListing, ID: created[1].ID}, RaterID: chidi.ID, RaterName: chidi.Name, Score: 3, Review: "Noisy street"},
		{Subject: entities.SubjectRef{Type: entities.SubjectAgent, ID: ada.ID}, RaterID: chidi.ID, RaterName: chidi.Name, Score: 5, Review: "Very responsive"},
		{Subject: entities.SubjectRef{Type: entities.SubjectAgent, ID: bola.ID}, RaterID: ada.ID, RaterName: ada.Name, Score: 4},
	}
	for _, v := range votes {
		if _, err := ratingService.Submit(ctx, v); err != nil {
			log.Fatal().Err(err).Str("subject", v.Subject.String()).Msg("Failed to submit rating")
		}
	}

	log.Info().Int("users", len(people)).Int("listings", len(created)).Int("ratings", len(votes)).Msg("Seed complete")

	if cfg.Auth.JWTSecret == "" {
		return
	}
	auth := middleware.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	for _, u := range people {
		token, err := auth.Issue(u.ID, u.Name, u.Role, 24*time.Hour)
		if err != nil {
			log.Error().Err(err).Str("email", u.Email).Msg("Failed to issue token")
			continue
		}
		fmt.Printf("%-28s %-6s %s\n", u.Email, u.Role, token)
	}
}
