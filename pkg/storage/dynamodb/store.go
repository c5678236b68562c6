package dynamodb

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/sokoni/marketplace-escrow/pkg/storage"
)

// DynamoDBAPI captures the subset of the DynamoDB client used by the Store.
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// Store implements the storage.Storage interface using AWS DynamoDB.
// Every money-moving operation is a single TransactWriteItems call guarded by
// condition expressions, with per-wallet and per-listing version attributes
// providing optimistic concurrency control.
type Store struct {
	Client                 DynamoDBAPI
	WalletsTableName       string
	ListingsTableName      string
	PurchasesTableName     string
	TopUpsTableName        string
	NotificationsTableName string
	ConnectionsTableName   string

	// TxTimeout bounds each transactional operation. Zero means defaultTxTimeout.
	TxTimeout time.Duration
}

const (
	// maxTxAttempts bounds retries on optimistic-concurrency conflicts.
	maxTxAttempts = 3

	defaultTxTimeout = 10 * time.Second
)

// New creates a new Store.
func New(client DynamoDBAPI, walletsTable, listingsTable, purchasesTable, topUpsTable, notificationsTable, connectionsTable string) *Store {
	return &Store{
		Client:                 client,
		WalletsTableName:       walletsTable,
		ListingsTableName:      listingsTable,
		PurchasesTableName:     purchasesTable,
		TopUpsTableName:        topUpsTable,
		NotificationsTableName: notificationsTable,
		ConnectionsTableName:   connectionsTable,
	}
}

// Make sure we conform to the interface
var _ storage.Storage = (*Store)(nil)
