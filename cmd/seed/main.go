package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"ticketd/internal/events"
	"ticketd/internal/inventory"
	"ticketd/internal/shared/config"
	"ticketd/internal/shared/database"

	"github.com/google/uuid"
)

type Seeder struct {
	db *database.DB
}

func main() {
	fmt.Println("🌱 Starting ticketd Database Seeder...")

	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	seeder := &Seeder{db: db}

	// Clean database
	fmt.Println("\n🧹 Cleaning database...")
	if err := seeder.CleanDatabase(); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}
	fmt.Println("✅ Database cleaned successfully")

	// Seed data
	fmt.Println("\n🌱 Seeding database...")
	if err := seeder.SeedEvents(); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}
	fmt.Println("✅ Database seeded successfully")

	fmt.Println("\n🎉 Seeding completed! Database is ready for testing.")
}

// CleanDatabase truncates all tables in the correct order (respecting foreign key constraints)
func (s *Seeder) CleanDatabase() error {
	tables := []string{
		"booking_units",
		"bookings",
		"units",
		"events",
	}

	for _, table := range tables {
		if err := s.db.GetPostgreSQL().Exec("TRUNCATE TABLE " + table + " RESTART IDENTITY CASCADE").Error; err != nil {
			return fmt.Errorf("failed to truncate %s: %w", table, err)
		}
		fmt.Printf("   Cleaned table: %s\n", table)
	}
	return nil
}

// SeedEvents creates a reserved-seating event and a general admission event,
// generates their inventory, and publishes both.
func (s *Seeder) SeedEvents() error {
	ctx := context.Background()
	adminID := uuid.New()

	inventoryRepo := inventory.NewRepository(s.db.GetPostgreSQL())
	inventoryService := inventory.NewService(inventoryRepo)

	eventRepo := events.NewRepository(s.db.GetPostgreSQL())
	eventService := events.NewService(eventRepo)
	eventService.SetInventoryGenerator(inventoryService)

	seedEvents := []events.CreateEventRequest{
		{
			Name:        "Symphony Under the Stars",
			Description: "An open-air orchestral evening with full seat selection.",
			Venue:       "Riverside Amphitheater",
			StartsAt:    time.Now().AddDate(0, 1, 0),
			SeatingType: string(events.SeatingReserved),
			Capacity:    1, // derived from sections for reserved seating
			BasePrice:   45.00,
			Sections: []events.SectionRequest{
				{Name: "A", Rows: 10, SeatsPerRow: 20, PriceMultiplier: 2.0},
				{Name: "B", Rows: 15, SeatsPerRow: 25, PriceMultiplier: 1.5},
				{Name: "C", Rows: 20, SeatsPerRow: 30, PriceMultiplier: 1.0},
			},
		},
		{
			Name:        "Midnight Warehouse Sessions",
			Description: "Standing-room electronic showcase, first come first served.",
			Venue:       "Dock 9 Warehouse",
			StartsAt:    time.Now().AddDate(0, 0, 14),
			SeatingType: string(events.SeatingGeneral),
			Capacity:    500,
			BasePrice:   25.00,
		},
	}

	published := "published"
	for _, req := range seedEvents {
		created, err := eventService.CreateEvent(ctx, adminID, req)
		if err != nil {
			return fmt.Errorf("failed to create event %q: %w", req.Name, err)
		}

		eventID, err := uuid.Parse(created.ID)
		if err != nil {
			return fmt.Errorf("failed to parse event id: %w", err)
		}

		if _, err := eventService.UpdateEventAsAdmin(ctx, eventID, adminID,
			events.UpdateEventRequest{Status: &published}); err != nil {
			return fmt.Errorf("failed to publish event %q: %w", req.Name, err)
		}

		fmt.Printf("   Seeded event: %s (%s, %d units)\n", created.Name, created.SeatingType, created.Capacity)
	}

	return nil
}
