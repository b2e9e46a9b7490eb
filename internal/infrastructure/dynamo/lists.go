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

// ListRepo stores one per-user media list (watchlist or watched).
// PK: user_id, SK: tmdb_id, so each (user, item) pair has at most one row.
type ListRepo struct {
	client    API
	tableName string
}

func NewListRepo(client API, tableName string) *ListRepo {
	return &ListRepo{client: client, tableName: tableName}
}

func (r *ListRepo) Get(ctx context.Context, userID string, tmdbID int64) (*domain.ListEntry, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            userMediaKey(userID, tmdbID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("list entry not found: %w", domain.ErrNotFound)
	}
	var e domain.ListEntry
	if err := attributevalue.UnmarshalMap(out.Item, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *ListRepo) Put(ctx context.Context, e *domain.ListEntry) error {
	item, err := attributevalue.MarshalMap(e)
	if err != nil {
		return fmt.Errorf("marshal list entry: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *ListRepo) Delete(ctx context.Context, userID string, tmdbID int64) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       userMediaKey(userID, tmdbID),
	})
	return err
}

func (r *ListRepo) Update(ctx context.Context, userID string, tmdbID int64, updates map[string]interface{}) error {
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       userMediaKey(userID, tmdbID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(user_id)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return fmt.Errorf("list entry not found: %w", domain.ErrNotFound)
	}
	return err
}

// ListByUser returns every entry owned by userID, following pagination.
func (r *ListRepo) ListByUser(ctx context.Context, userID string) ([]domain.ListEntry, error) {
	entries := []domain.ListEntry{}
	var start map[string]types.AttributeValue
	for {
		out, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(r.tableName),
			KeyConditionExpression: aws.String("user_id = :uid"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":uid": &types.AttributeValueMemberS{Value: userID},
			},
			ExclusiveStartKey: start,
		})
		if err != nil {
			return nil, err
		}
		var page []domain.ListEntry
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		entries = append(entries, page...)
		if len(out.LastEvaluatedKey) == 0 {
			return entries, nil
		}
		start = out.LastEvaluatedKey
	}
}

// SetRating sets the user's rating on an existing entry.
func (r *ListRepo) SetRating(ctx context.Context, userID string, tmdbID int64, rating float64) error {
	return r.Update(ctx, userID, tmdbID, map[string]interface{}{fieldRating: rating})
}
