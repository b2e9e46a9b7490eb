package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/enthub-api/internal/domain"
)

// AuthCodeRepo manages pending login codes.
// PK: email. expires_at is the table's TTL attribute.
type AuthCodeRepo struct {
	client    API
	tableName string
}

func NewAuthCodeRepo(client API, tableName string) *AuthCodeRepo {
	return &AuthCodeRepo{client: client, tableName: tableName}
}

func (r *AuthCodeRepo) Put(ctx context.Context, rec *domain.OtpRecord) error {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal auth code: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *AuthCodeRepo) Get(ctx context.Context, email string) (*domain.OtpRecord, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey("email", email),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("auth code not found: %w", domain.ErrNotFound)
	}
	var rec domain.OtpRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Delete removes the record for email. Deleting a missing record is not an error.
func (r *AuthCodeRepo) Delete(ctx context.Context, email string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("email", email),
	})
	return err
}

// IncrementAttempts atomically adds one to the attempt counter of an existing record.
func (r *AuthCodeRepo) IncrementAttempts(ctx context.Context, email string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("email", email),
		UpdateExpression:    aws.String("ADD attempts :one"),
		ConditionExpression: aws.String("attribute_exists(email)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
	})
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return fmt.Errorf("auth code not found: %w", domain.ErrNotFound)
	}
	return err
}
