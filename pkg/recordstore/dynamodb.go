package recordstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/your-org/imagemeta/pkg/awsconf"
)

// dynamoAPI is the subset of *dynamodb.Client used here.
type dynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// DynamoDBStore writes one item per record, keyed by the "id" attribute.
type DynamoDBStore struct {
	api   dynamoAPI
	table string
}

// NewDynamoDB builds a store from the default AWS credential chain.
func NewDynamoDB(ctx context.Context, cfg Config) (*DynamoDBStore, error) {
	awsCfg, err := awsconf.Load(ctx, awsconf.Options{Region: cfg.Region})
	if err != nil {
		return nil, err
	}
	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		o.BaseEndpoint = awsconf.BaseEndpoint(cfg.Endpoint)
	})
	return &DynamoDBStore{api: client, table: cfg.Table}, nil
}

// Put writes rec, refusing to replace an existing item with the same id.
func (s *DynamoDBStore) Put(ctx context.Context, rec Record) error {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal record %s: %w", rec.ID, err)
	}

	_, err = s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return fmt.Errorf("put item %s: %w", rec.ID, ErrDuplicateID)
		}
		return fmt.Errorf("put item %s: %w", rec.ID, err)
	}
	return nil
}

func (s *DynamoDBStore) Close() error {
	return nil
}
