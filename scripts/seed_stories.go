package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/90n9/talepick/internal/config"
	"github.com/90n9/talepick/internal/logging"
	"github.com/90n9/talepick/internal/models"
	"go.mongodb.org/mongo-driver/bson"
)

// SeedStories contains a small demo catalog so a fresh deployment has
// something to play
var SeedStories = []models.Story{
	{
		Title:       "The Lighthouse Keeper",
		Synopsis:    "A storm, a dying lamp, and a ship too close to the rocks.",
		Status:      models.StoryStatusPublished,
		Tags:        []string{"mystery", "short"},
		StartNodeID: "start",
		Nodes: []models.StoryNode{
			{
				NodeID: "start",
				Text:   "The lamp gutters as the storm closes in. Below, a freighter drifts toward the shoals.",
				Choices: []models.Choice{
					{Label: "Climb the tower and relight the lamp", NextNodeID: "tower"},
					{Label: "Run down to the beach and signal by hand", NextNodeID: "beach"},
				},
			},
			{
				NodeID: "tower",
				Text:   "The stairs are slick with spray. At the top, the wick is soaked through.",
				Choices: []models.Choice{
					{Label: "Sacrifice your coat to dry the wick", NextNodeID: "saved"},
					{Label: "Search the store room for spare oil", NextNodeID: "wreck"},
				},
			},
			{
				NodeID: "beach",
				Text:   "Your lantern is a firefly against the gale. The freighter does not turn.",
				Choices: []models.Choice{
					{Label: "Light the old signal pyre", NextNodeID: "saved"},
				},
			},
			{
				NodeID: "saved",
				Text:   "The beam cuts the dark and the freighter heels away from the rocks. You watch her lights fade safely north.",
			},
			{
				NodeID: "wreck",
				Text:   "By the time you find the oil, the grinding of steel on stone has already begun.",
			},
		},
	},
	{
		Title:       "Null Pointer",
		Synopsis:    "Your pager goes off at 3 a.m. Production is down and the logs make no sense.",
		Status:      models.StoryStatusPublished,
		Tags:        []string{"comedy", "tech"},
		StartNodeID: "start",
		Nodes: []models.StoryNode{
			{
				NodeID: "start",
				Text:   "PagerDuty screams. The dashboard is a wall of red. Yesterday's deploy looked so innocent.",
				Choices: []models.Choice{
					{Label: "Roll back immediately", NextNodeID: "rollback"},
					{Label: "Read the logs first", NextNodeID: "logs"},
				},
			},
			{
				NodeID: "logs",
				Text:   "Every line is the same stack trace. The commit that introduced it is yours.",
				Choices: []models.Choice{
					{Label: "Hotfix it live", NextNodeID: "hotfix"},
					{Label: "Roll back and fix it in the morning", NextNodeID: "rollback"},
				},
			},
			{
				NodeID: "rollback",
				Text:   "Green across the board by 3:20. You leave yourself a note and go back to bed a hero.",
			},
			{
				NodeID: "hotfix",
				Text:   "The fix ships. The fix has its own bug. Somewhere, a second pager begins to scream.",
			},
		},
	},
	{
		Title:       "The Cartographer's Debt",
		Synopsis:    "An unfinished map, a borrowed compass, and a coastline that keeps moving.",
		Status:      models.StoryStatusDraft,
		Tags:        []string{"fantasy"},
		StartNodeID: "start",
		Nodes: []models.StoryNode{
			{
				NodeID: "start",
				Text:   "The guild wants its compass back. The map is three bays short of complete.",
				Choices: []models.Choice{
					{Label: "Return the compass unfinished", NextNodeID: "end"},
				},
			},
			{
				NodeID: "end",
				Text:   "Some maps are better left with ragged edges.",
			},
		},
	},
}

func main() {
	fmt.Println("🌱 Seeding demo stories...")

	if err := logging.InitLogger(); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// Load configuration
	if err := config.LoadConfig(); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize MongoDB
	config.InitMongoDB()
	if config.MongoDB == nil {
		log.Fatal("Failed to initialize MongoDB")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	collection := config.MongoDB.Collection(config.AppConfig.StoryCollection)

	// Check if stories already exist
	count, err := collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		log.Fatalf("Failed to count existing stories: %v", err)
	}

	if count > 0 {
		fmt.Printf("⚠️  Found %d existing stories. Do you want to replace them? (y/N): ", count)
		var response string
		_, err := fmt.Scanln(&response)
		if err != nil {
			fmt.Println("❌ Error reading input")
			return
		}
		if response != "y" && response != "Y" {
			fmt.Println("❌ Seeding cancelled")
			return
		}

		result, err := collection.DeleteMany(ctx, bson.M{})
		if err != nil {
			log.Fatalf("Failed to delete existing stories: %v", err)
		}
		fmt.Printf("🗑️  Deleted %d existing stories\n", result.DeletedCount)
	}

	now := time.Now()
	docs := make([]interface{}, len(SeedStories))
	for i, story := range SeedStories {
		story.CreatedAt = now
		story.UpdatedAt = now
		docs[i] = story
	}

	result, err := collection.InsertMany(ctx, docs)
	if err != nil {
		log.Fatalf("Failed to insert stories: %v", err)
	}

	fmt.Printf("✅ Successfully seeded %d stories:\n", len(result.InsertedIDs))
	for _, story := range SeedStories {
		status := "✓"
		if story.Status != models.StoryStatusPublished {
			status = "✗"
		}
		fmt.Printf("  %s [%s] %s - %d nodes\n", status, story.Status, story.Title, len(story.Nodes))
	}

	fmt.Println("\n🎉 Seeding completed successfully!")
}
