package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"crm-reporting/internal/config"
	"crm-reporting/internal/database"
	"crm-reporting/internal/features/report"
	"crm-reporting/internal/registry"
	"crm-reporting/internal/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Seeds one demo tenant with enough records to exercise every standard
// report and a couple of saved definitions.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal(err)
	}
	defer client.Disconnect(context.Background())

	mongoDB := &database.MongodbDB{DB: client.Database(cfg.DBName)}
	records := store.NewMongoStore(mongoDB)

	tenantID := primitive.NewObjectID()
	ownerID := primitive.NewObjectID()
	fmt.Printf("Seeding demo tenant %s\n", tenantID.Hex())

	insert := func(entity string, data map[string]any) primitive.ObjectID {
		id, err := records.Insert(ctx, tenantID, entity, data)
		if err != nil {
			log.Fatalf("failed to insert %s: %v", entity, err)
		}
		return id
	}

	// Pipeline stages
	stageNames := []string{"Qualification", "Proposal", "Negotiation", "Closed"}
	stageIDs := make([]primitive.ObjectID, 0, len(stageNames))
	for i, name := range stageNames {
		stageIDs = append(stageIDs, insert("pipeline_stages", map[string]any{
			"name":  name,
			"order": i + 1,
		}))
	}
	fmt.Printf("Created %d pipeline stages\n", len(stageIDs))

	// Teams and users
	eastTeam := insert("teams", map[string]any{"name": "East"})
	westTeam := insert("teams", map[string]any{"name": "West"})

	type rep struct {
		first, last string
		team        primitive.ObjectID
	}
	reps := []rep{
		{"Alice", "Nguyen", eastTeam},
		{"Bruno", "Costa", eastTeam},
		{"Carla", "Meyer", westTeam},
	}
	userIDs := make([]primitive.ObjectID, 0, len(reps))
	for _, r := range reps {
		userIDs = append(userIDs, insert("users", map[string]any{
			"first_name": r.first,
			"last_name":  r.last,
			"email":      fmt.Sprintf("%s@example.com", r.first),
			"role":       "sales",
			"team_id":    r.team,
		}))
	}
	fmt.Printf("Created %d users in 2 teams\n", len(userIDs))

	// Deals: a mix of open, won and lost
	now := time.Now()
	for i := 0; i < 30; i++ {
		owner := userIDs[i%len(userIDs)]
		deal := map[string]any{
			"name":     fmt.Sprintf("Deal %02d", i+1),
			"value":    float64(500 + rand.Intn(20)*250),
			"stage_id": stageIDs[i%len(stageIDs)],
			"owner_id": owner,
			"won":      false,
		}
		switch i % 3 {
		case 0: // won
			deal["won"] = true
			deal["closed_at"] = now.AddDate(0, 0, -rand.Intn(25))
		case 1: // lost
			deal["closed_at"] = now.AddDate(0, 0, -rand.Intn(25))
		default: // still open
			deal["closed_at"] = nil
		}
		insert("deals", deal)
	}
	fmt.Println("Created 30 deals")

	// Leads
	statuses := []string{"new", "contacted", "converted", "lost"}
	for i := 0; i < 40; i++ {
		insert("leads", map[string]any{
			"first_name": fmt.Sprintf("Lead%02d", i+1),
			"last_name":  "Demo",
			"email":      fmt.Sprintf("lead%02d@example.com", i+1),
			"company":    fmt.Sprintf("Company %d", i%10),
			"status":     statuses[i%len(statuses)],
			"source":     "seed",
		})
	}
	fmt.Println("Created 40 leads")

	// Activities
	activityTypes := []string{"call", "email", "meeting", "task"}
	for i := 0; i < 60; i++ {
		insert("activities", map[string]any{
			"subject":       fmt.Sprintf("Activity %02d", i+1),
			"activity_type": activityTypes[i%len(activityTypes)],
			"user_id":       userIDs[i%len(userIDs)],
			"completed":     i%2 == 0,
		})
	}
	fmt.Println("Created 60 activities")

	// One forecast entry covering this month
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	insert("forecasts", map[string]any{
		"amount":       float64(50000),
		"period_start": monthStart,
		"period_end":   monthStart.AddDate(0, 1, 0).Add(-time.Second),
	})
	fmt.Println("Created forecast entry")

	// A couple of saved definitions
	defs := []report.ReportDefinition{
		{
			TenantID:   tenantID,
			OwnerID:    ownerID,
			Name:       "Won deals over 1000",
			ObjectType: registry.ObjectDeals,
			Fields:     []string{"name", "value", "closed_at"},
			Filters: []report.ReportFilter{
				{Field: "won", Operator: report.OperatorEquals, Value: true},
				{Field: "value", Operator: report.OperatorGreaterThan, Value: 1000},
			},
			SortField:     "value",
			SortDirection: report.SortDesc,
		},
		{
			TenantID:   tenantID,
			OwnerID:    ownerID,
			Name:       "Leads by status",
			ObjectType: registry.ObjectLeads,
			Grouping:   "status",
		},
	}

	defCol := mongoDB.DB.Collection("report_definitions")
	for i := range defs {
		defs[i].ID = primitive.NewObjectID()
		defs[i].CreatedAt = time.Now()
		defs[i].UpdatedAt = time.Now()
		if _, err := defCol.InsertOne(ctx, defs[i]); err != nil {
			log.Fatalf("failed to insert definition %s: %v", defs[i].Name, err)
		}
		fmt.Printf("Created definition: %s (%s)\n", defs[i].Name, defs[i].ID.Hex())
	}

	fmt.Println("Seeding complete")
}
