package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	wshandlers "github.com/sokoni/marketplace-escrow/pkg/handlers/websockets"
	custommw "github.com/sokoni/marketplace-escrow/pkg/middleware"
	"github.com/sokoni/marketplace-escrow/pkg/notify"
	dydbstore "github.com/sokoni/marketplace-escrow/pkg/storage/dynamodb"
	"github.com/sokoni/marketplace-escrow/pkg/websockets"

	"github.com/sokoni/marketplace-escrow/pkg/handlers"
)

func main() {
	// Load environment variables from .env file
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, using environment variables")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// AWS Session
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	dbClient := dynamodb.NewFromConfig(cfg)
	walletsTable := os.Getenv("DYNAMODB_WALLETS_TABLE_NAME")
	listingsTable := os.Getenv("DYNAMODB_LISTINGS_TABLE_NAME")
	purchasesTable := os.Getenv("DYNAMODB_PURCHASES_TABLE_NAME")
	topUpsTable := os.Getenv("DYNAMODB_TOPUPS_TABLE_NAME")
	notificationsTable := os.Getenv("DYNAMODB_NOTIFICATIONS_TABLE_NAME")
	connectionsTable := os.Getenv("DYNAMODB_WS_CONNECTIONS_TABLE_NAME")

	if walletsTable == "" || listingsTable == "" || purchasesTable == "" || topUpsTable == "" || notificationsTable == "" {
		log.Fatal("One or more DynamoDB table name environment variables are not set")
	}

	// Create our storage implementation
	store := dydbstore.New(dbClient, walletsTable, listingsTable, purchasesTable, topUpsTable, notificationsTable, connectionsTable)

	// Notification dispatch is optional; without a queue the service runs
	// with notifications disabled.
	var notifier notify.Notifier = &notify.NoOpNotifier{}
	if queueURL := os.Getenv("SQS_NOTIFICATIONS_QUEUE_URL"); queueURL != "" {
		notifier = notify.NewSQSNotifier(sqs.NewFromConfig(cfg), queueURL)
	} else {
		log.Println("SQS_NOTIFICATIONS_QUEUE_URL not set, notifications disabled")
	}

	// Realtime order updates, likewise optional.
	var publisher websockets.Publisher = &websockets.NoOpPublisher{}
	if wsEndpoint := os.Getenv("WEBSOCKET_API_ENDPOINT"); wsEndpoint != "" {
		publisher, err = websockets.NewPublisher(store, store, wsEndpoint)
		if err != nil {
			log.Fatalf("failed to create websocket publisher: %v", err)
		}
	}

	// Create our handler
	handler := handlers.NewApiHandler(store, notifier, publisher)

	// Create a new Chi router
	router := chi.NewRouter()
	router.Use(custommw.NewStructuredLogger(logger))
	router.Mount("/", handler.Routes())

	// WebSocket endpoint for local development; in AWS the WebSocket API
	// Gateway invokes cmd/ws_lambda instead.
	router.Handle("/ws", wshandlers.NewHandler(store))

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080" // Default port if not specified
	}

	log.Printf("Starting server on port %s", port)

	// Start the server
	err = http.ListenAndServe(":"+port, router)
	if err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
