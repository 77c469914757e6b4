package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/replypilot/replypilot/platform"
)

// Manual diagnostic: post a single reply through the platform API.
func main() {
	_ = godotenv.Load()

	token := os.Getenv("PLATFORM_TOKEN")
	baseURL := os.Getenv("PLATFORM_BASE_URL")

	if token == "" || baseURL == "" {
		fmt.Println("Error: PLATFORM_TOKEN and PLATFORM_BASE_URL must be set")
		os.Exit(1)
	}

	if len(os.Args) < 4 {
		fmt.Println("Usage: send-reply <post_id> <parent_reply_id> <text>")
		os.Exit(1)
	}

	postID := os.Args[1]
	parentID := os.Args[2]
	text := os.Args[3]

	client := platform.NewClient(baseURL, token, 10*time.Second)

	if err := client.CreateReply(context.Background(), postID, parentID, text); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Reply sent successfully!")
}
