// SPDX-FileCopyrightText: 2026 The npcusync Authors
// SPDX-License-Identifier: Apache-2.0

package dynamodb

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/partnerops/npcusync/cache"
	"github.com/xmidt-org/httpaux/erraux"
)

// client captures the DynamoDB API methods of interest. It also keeps the
// executor mockable in tests.
type client interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// executor adapts the DynamoDB API to the cache tier contract. Middleware
// such as instrumentation stays orthogonal in DynamoDB (db.go).
type executor struct {
	c         client
	tableName string
	now       func() time.Time
}

type storableEntry struct {
	Namespace string `dynamodbav:"namespace" json:"namespace"`
	ID        string `dynamodbav:"id" json:"id"`
	Data      []byte `dynamodbav:"data" json:"data"`
	Expires   *int64 `dynamodbav:"expires,omitempty" json:"expires,omitempty"`
}

// DynamoDB attribute keys
const (
	namespaceAttributeKey  = "namespace"
	idAttributeKey         = "id"
	expirationAttributeKey = "expires"
)

var errDefaultDynamoDBFailure = erraux.Error{
	Err:  errors.New("dynamodb operation failed"),
	Code: http.StatusInternalServerError,
}

func sanitizeClientError(err error) error {
	var throughput *types.ProvisionedThroughputExceededException
	var collection *types.ItemCollectionSizeLimitExceededException
	if errors.As(err, &throughput) || errors.As(err, &collection) {
		return cache.ErrTierCapacity
	}
	return cache.SanitizedError{Err: err, ErrHTTP: errDefaultDynamoDBFailure}
}

func (d *executor) Push(ctx context.Context, e cache.Entry) error {
	storing := storableEntry{
		Namespace: e.Key.Namespace,
		ID:        e.Key.ID,
		Data:      e.Data,
	}
	if e.TTL > 0 {
		unixExpSeconds := d.now().Unix() + e.TTL
		storing.Expires = &unixExpSeconds
	}

	av, err := attributevalue.MarshalMap(storing)
	if err != nil {
		return err
	}
	_, err = d.c.PutItem(ctx, &dynamodb.PutItemInput{
		Item:      av,
		TableName: aws.String(d.tableName),
	})
	if err != nil {
		return sanitizeClientError(err)
	}
	return nil
}

func entryKeyAttributes(key cache.Key) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		namespaceAttributeKey: &types.AttributeValueMemberS{Value: key.Namespace},
		idAttributeKey:        &types.AttributeValueMemberS{Value: key.ID},
	}
}

func (d *executor) Get(ctx context.Context, key cache.Key) (cache.Entry, error) {
	out, err := d.c.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.tableName),
		Key:       entryKeyAttributes(key),
	})
	if err != nil {
		return cache.Entry{}, sanitizeClientError(err)
	}
	return d.decodeEntry(key, out.Item)
}

func (d *executor) Delete(ctx context.Context, key cache.Key) (cache.Entry, error) {
	out, err := d.c.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:    aws.String(d.tableName),
		Key:          entryKeyAttributes(key),
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return cache.Entry{}, sanitizeClientError(err)
	}
	return d.decodeEntry(key, out.Attributes)
}

func (d *executor) decodeEntry(key cache.Key, attributes map[string]types.AttributeValue) (cache.Entry, error) {
	if len(attributes) == 0 {
		return cache.Entry{}, cache.KeyNotFoundError{Key: key}
	}
	stored := new(storableEntry)
	if err := attributevalue.UnmarshalMap(attributes, stored); err != nil {
		return cache.Entry{}, err
	}

	entry := cache.Entry{
		Key:  cache.Key{Namespace: stored.Namespace, ID: stored.ID},
		Data: stored.Data,
	}
	if stored.Expires != nil {
		remaining := int64(time.Unix(*stored.Expires, 0).Sub(d.now()).Seconds())
		if remaining < 1 {
			return cache.Entry{}, cache.KeyNotFoundError{Key: key}
		}
		entry.TTL = remaining
	}
	// the namespace attribute is the partition key; on DeleteItem responses
	// it is always present, but keep the request key authoritative
	entry.Key = key
	return entry, nil
}

func (d *executor) GetAll(ctx context.Context, namespace string) (map[string]cache.Entry, error) {
	result := map[string]cache.Entry{}
	var startKey map[string]types.AttributeValue
	for {
		out, err := d.c.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(d.tableName),
			KeyConditionExpression:    aws.String("#ns = :ns"),
			ExpressionAttributeNames:  map[string]string{"#ns": namespaceAttributeKey},
			ExpressionAttributeValues: map[string]types.AttributeValue{":ns": &types.AttributeValueMemberS{Value: namespace}},
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return nil, sanitizeClientError(err)
		}
		for _, attributes := range out.Items {
			stored := new(storableEntry)
			if err := attributevalue.UnmarshalMap(attributes, stored); err != nil {
				continue
			}
			key := cache.Key{Namespace: namespace, ID: stored.ID}
			entry, err := d.decodeEntry(key, attributes)
			if err != nil {
				continue
			}
			result[stored.ID] = entry
		}
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}
	return result, nil
}

func (d *executor) DropNamespace(ctx context.Context, namespace string) error {
	entries, err := d.GetAll(ctx, namespace)
	if err != nil {
		return err
	}
	for id := range entries {
		if _, err := d.Delete(ctx, cache.Key{Namespace: namespace, ID: id}); err != nil {
			if errors.Is(err, cache.ErrEntryNotFound) {
				continue
			}
			return err
		}
	}
	return nil
}

func (d *executor) PurgeExpired(ctx context.Context) (int, error) {
	purged := 0
	nowUnix := d.now().Unix()
	var startKey map[string]types.AttributeValue
	for {
		out, err := d.c.Scan(ctx, &dynamodb.ScanInput{
			TableName:        aws.String(d.tableName),
			FilterExpression: aws.String("#exp <= :now"),
			ExpressionAttributeNames: map[string]string{
				"#exp": expirationAttributeKey,
				"#ns":  namespaceAttributeKey,
				"#id":  idAttributeKey,
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{":now": &types.AttributeValueMemberN{Value: strconv.FormatInt(nowUnix, 10)}},
			ProjectionExpression:      aws.String("#ns, #id"),
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return purged, sanitizeClientError(err)
		}
		for _, attributes := range out.Items {
			stored := new(storableEntry)
			if err := attributevalue.UnmarshalMap(attributes, stored); err != nil {
				continue
			}
			_, err := d.c.DeleteItem(ctx, &dynamodb.DeleteItemInput{
				TableName: aws.String(d.tableName),
				Key:       entryKeyAttributes(cache.Key{Namespace: stored.Namespace, ID: stored.ID}),
			})
			if err == nil {
				purged++
			}
		}
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}
	return purged, nil
}
