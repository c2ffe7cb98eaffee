package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/skybridge-ai/chat-client/internal/model"
	"github.com/skybridge-ai/chat-client/pkg/logger"
	"github.com/skybridge-ai/chat-client/pkg/metrics"
)

// batchDeleteSize is DynamoDB's BatchWriteItem limit.
const batchDeleteSize = 25

// DynamoAPI is the subset of the DynamoDB client we depend on.
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// Dynamo is the remote store backend. The history table is keyed by
// (conversationId, timestamp); the conversations table by conversationId.
type Dynamo struct {
	api          DynamoAPI
	historyTable string
	convTable    string
	logger       *logger.Logger
}

// NewDynamo creates the DynamoDB backend.
func NewDynamo(api DynamoAPI, historyTable, conversationsTable string, log *logger.Logger) *Dynamo {
	return &Dynamo{
		api:          api,
		historyTable: historyTable,
		convTable:    conversationsTable,
		logger:       log,
	}
}

// PutMessage upserts one message into the history table.
func (d *Dynamo) PutMessage(ctx context.Context, msg model.Message) error {
	start := time.Now()

	item, err := attributevalue.MarshalMap(msg)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}

	_, err = d.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.historyTable),
		Item:      item,
	})
	metrics.RecordStoreOp("put_message", resultLabel(err), time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	return nil
}

// QueryMessages pages through the history partition and returns the aggregate
// sorted ascending by timestamp.
func (d *Dynamo) QueryMessages(ctx context.Context, conversationID string) ([]model.Message, error) {
	start := time.Now()

	expr, err := expression.NewBuilder().
		WithKeyCondition(expression.Key("conversationId").Equal(expression.Value(conversationID))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadFailed, err)
	}

	var messages []model.Message
	var lastKey map[string]types.AttributeValue
	for {
		out, err := d.api.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(d.historyTable),
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         lastKey,
		})
		if err != nil {
			metrics.RecordStoreOp("query_messages", "error", time.Since(start).Seconds())
			return nil, fmt.Errorf("%w: %v", ErrReadFailed, err)
		}

		var page []model.Message
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			metrics.RecordStoreOp("query_messages", "error", time.Since(start).Seconds())
			return nil, fmt.Errorf("%w: %v", ErrReadFailed, err)
		}
		messages = append(messages, page...)

		lastKey = out.LastEvaluatedKey
		if len(lastKey) == 0 {
			break
		}
	}

	sortMessages(messages)
	metrics.RecordStoreOp("query_messages", "success", time.Since(start).Seconds())
	return messages, nil
}

// CreateConversation writes a fresh metadata item.
func (d *Dynamo) CreateConversation(ctx context.Context, conversationID string) (model.Conversation, error) {
	start := time.Now()
	now := time.Now().UnixMilli()

	conv := model.Conversation{
		ConversationID: conversationID,
		Title:          model.DefaultConversationTitle,
		CreatedAt:      now,
		LastMessageAt:  now,
		MessageCount:   0,
	}

	item, err := attributevalue.MarshalMap(conv)
	if err != nil {
		return model.Conversation{}, fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}

	_, err = d.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.convTable),
		Item:      item,
	})
	metrics.RecordStoreOp("create_conversation", resultLabel(err), time.Since(start).Seconds())
	if err != nil {
		return model.Conversation{}, fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	return conv, nil
}

// ListConversations scans the whole metadata table. Unordered and unbounded;
// acceptable only while the table is small.
func (d *Dynamo) ListConversations(ctx context.Context) ([]model.Conversation, error) {
	start := time.Now()

	var conversations []model.Conversation
	var lastKey map[string]types.AttributeValue
	for {
		out, err := d.api.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(d.convTable),
			ExclusiveStartKey: lastKey,
		})
		if err != nil {
			metrics.RecordStoreOp("list_conversations", "error", time.Since(start).Seconds())
			return nil, fmt.Errorf("%w: %v", ErrReadFailed, err)
		}

		var page []model.Conversation
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			metrics.RecordStoreOp("list_conversations", "error", time.Since(start).Seconds())
			return nil, fmt.Errorf("%w: %v", ErrReadFailed, err)
		}
		conversations = append(conversations, page...)

		lastKey = out.LastEvaluatedKey
		if len(lastKey) == 0 {
			break
		}
	}

	sortConversations(conversations)
	metrics.RecordStoreOp("list_conversations", "success", time.Since(start).Seconds())
	return conversations, nil
}

// UpdateConversation builds a sparse update expression touching only the
// provided fields. AddMessages maps to an ADD so concurrent sends cannot lose
// count increments.
func (d *Dynamo) UpdateConversation(ctx context.Context, conversationID string, update model.ConversationUpdate) error {
	if update.IsZero() {
		return nil
	}

	start := time.Now()

	upd := expression.UpdateBuilder{}
	if update.Title != nil {
		upd = upd.Set(expression.Name("title"), expression.Value(*update.Title))
	}
	if update.LastMessageAt != nil {
		upd = upd.Set(expression.Name("lastMessageAt"), expression.Value(*update.LastMessageAt))
	}
	switch {
	case update.MessageCount != nil:
		upd = upd.Set(expression.Name("messageCount"), expression.Value(*update.MessageCount))
	case update.AddMessages != 0:
		upd = upd.Add(expression.Name("messageCount"), expression.Value(update.AddMessages))
	}

	expr, err := expression.NewBuilder().WithUpdate(upd).Build()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}

	_, err = d.api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(d.convTable),
		Key:                       conversationKey(conversationID),
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	metrics.RecordStoreOp("update_conversation", resultLabel(err), time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	return nil
}

// DeleteConversation deletes all messages in batches of 25, then the metadata
// item. A mid-flight failure leaves the conversation partially deleted.
func (d *Dynamo) DeleteConversation(ctx context.Context, conversationID string) error {
	start := time.Now()

	messages, err := d.QueryMessages(ctx, conversationID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
	}

	for i := 0; i < len(messages); i += batchDeleteSize {
		end := i + batchDeleteSize
		if end > len(messages) {
			end = len(messages)
		}

		requests := make([]types.WriteRequest, 0, end-i)
		for _, msg := range messages[i:end] {
			requests = append(requests, types.WriteRequest{
				DeleteRequest: &types.DeleteRequest{
					Key: map[string]types.AttributeValue{
						"conversationId": &types.AttributeValueMemberS{Value: msg.ConversationID},
						"timestamp":      &types.AttributeValueMemberN{Value: strconv.FormatInt(msg.Timestamp, 10)},
					},
				},
			})
		}

		out, err := d.api.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{
				d.historyTable: requests,
			},
		})
		if err != nil {
			metrics.RecordStoreOp("delete_conversation", "error", time.Since(start).Seconds())
			return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
		}
		if len(out.UnprocessedItems) > 0 {
			metrics.RecordStoreOp("delete_conversation", "error", time.Since(start).Seconds())
			return fmt.Errorf("%w: %d unprocessed delete requests", ErrDeleteFailed, len(out.UnprocessedItems[d.historyTable]))
		}
	}

	_, err = d.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(d.convTable),
		Key:       conversationKey(conversationID),
	})
	metrics.RecordStoreOp("delete_conversation", resultLabel(err), time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
	}
	return nil
}

func conversationKey(conversationID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"conversationId": &types.AttributeValueMemberS{Value: conversationID},
	}
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
