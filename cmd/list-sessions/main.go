package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/KirkDiggler/narrative-service/internal/repositories/wizard_sessions"
)

func main() {
	_ = godotenv.Load()
	ctx := context.Background()

	// Set up Redis
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Fatalf("Failed to parse Redis URL: %v", err)
	}

	client := redis.NewClient(opts)
	defer client.Close()

	// Test connection
	if _, pingErr := client.Ping(ctx).Result(); pingErr != nil {
		log.Fatalf("Failed to connect to Redis: %v", pingErr)
	}

	// TTL is only applied on writes, listing never extends it
	repo := wizard_sessions.NewRedis(client, 0)
	sessions, err := repo.List(ctx)
	if err != nil {
		log.Fatalf("Failed to list wizard sessions: %v", err)
	}

	fmt.Printf("Found %d wizard sessions:\n", len(sessions))
	if len(sessions) == 0 {
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTEP\tLOCKED\tUPDATED")
	for _, session := range sessions {
		locked := 0
		for _, isLocked := range session.Locked {
			if isLocked {
				locked++
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
			session.ID,
			session.CurrentStepID,
			locked,
			session.UpdatedAt.Format(time.RFC3339))
	}
	_ = w.Flush()
}
