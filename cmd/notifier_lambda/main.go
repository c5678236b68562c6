package main

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/joho/godotenv"
	"github.com/sokoni/marketplace-escrow/pkg/models"
	"github.com/sokoni/marketplace-escrow/pkg/storage"
	dydbstore "github.com/sokoni/marketplace-escrow/pkg/storage/dynamodb"
)

var store storage.Storage

func init() {
	// Load environment variables from .env file (useful for local testing).
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize dependencies once.
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	dbClient := dynamodb.NewFromConfig(cfg)
	notificationsTable := os.Getenv("DYNAMODB_NOTIFICATIONS_TABLE_NAME")
	if notificationsTable == "" {
		log.Fatal("DYNAMODB_NOTIFICATIONS_TABLE_NAME environment variable not set")
	}

	// Only the notifications table is used by this consumer.
	store = dydbstore.New(dbClient, "", "", "", "", notificationsTable, "")
}

// HandleRequest persists queued notifications. Notification IDs are assigned
// by the producer, so SQS redeliveries store nothing twice.
func HandleRequest(ctx context.Context, sqsEvent events.SQSEvent) error {
	for _, message := range sqsEvent.Records {
		log.Printf("Processing message %s", message.MessageId)

		var notification models.Notification
		if err := json.Unmarshal([]byte(message.Body), &notification); err != nil {
			log.Printf("ERROR: failed to unmarshal notification from SQS message %s: %v", message.MessageId, err)
			// Returning an error will cause SQS to retry the message, which is appropriate here.
			return err
		}

		if err := store.CreateNotification(ctx, &notification); err != nil {
			log.Printf("ERROR: failed to store notification %s: %v", notification.Id, err)
			// In a production system, persistent failures would be sent to a DLQ.
			return err
		}

		log.Printf("Stored notification %s for user %s", notification.Id, notification.UserId)
	}

	return nil
}

func main() {
	lambda.Start(HandleRequest)
}
