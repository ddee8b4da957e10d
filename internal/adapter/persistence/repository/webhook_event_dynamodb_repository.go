package repository

import (
	"context"

	"payment_gateway/internal/domain/entities"
	"payment_gateway/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const defaultWebhookEventsTableName = "webhook_events"

type webhookEventItem struct {
	Provider   string `dynamodbav:"provider"`
	ID         string `dynamodbav:"id"`
	Type       string `dynamodbav:"type"`
	PaymentRef string `dynamodbav:"payment_ref,omitempty"`
	RefundRef  string `dynamodbav:"refund_ref,omitempty"`
	Amount     int64  `dynamodbav:"amount"`
	Payload    string `dynamodbav:"payload,omitempty"`
	Signature  string `dynamodbav:"signature,omitempty"`
	Outcome    string `dynamodbav:"outcome"`
	Reason     string `dynamodbav:"reason,omitempty"`
	ReceivedAt string `dynamodbav:"received_at"`
}

// WebhookEventDynamoRepository stores the webhook event log.
//
// Table requirements:
//   - PK: provider (string), SK: id (string)
//
// An accepted event is never overwritten.
type WebhookEventDynamoRepository struct {
	ddb       DynamoAPI
	tableName string
}

var _ interfaces.IWebhookEventRepository = (*WebhookEventDynamoRepository)(nil)

func NewWebhookEventDynamoRepository(ddb DynamoAPI) *WebhookEventDynamoRepository {
	return &WebhookEventDynamoRepository{
		ddb:       ddb,
		tableName: getenvDefault("WEBHOOK_EVENTS_TABLE", defaultWebhookEventsTableName),
	}
}

func (r *WebhookEventDynamoRepository) Save(ctx context.Context, e entities.WebhookEvent) error {
	av, err := attributevalue.MarshalMap(toWebhookEventItem(e))
	if err != nil {
		return err
	}
	_, err = r.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(#id) OR #outcome <> :accepted"),
		ExpressionAttributeNames: map[string]string{
			"#id":      "id",
			"#outcome": "outcome",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":accepted": &types.AttributeValueMemberS{Value: string(entities.WebhookOutcomeAccepted)},
		},
	})
	if err != nil && !isConditionalCheckFailed(err) {
		return err
	}
	return nil
}

func (r *WebhookEventDynamoRepository) Get(ctx context.Context, provider, id string) (entities.WebhookEvent, error) {
	out, err := r.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"provider": &types.AttributeValueMemberS{Value: provider},
			"id":       &types.AttributeValueMemberS{Value: id},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return entities.WebhookEvent{}, err
	}
	if len(out.Item) == 0 {
		return entities.WebhookEvent{}, nil
	}
	var it webhookEventItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return entities.WebhookEvent{}, err
	}
	return fromWebhookEventItem(it), nil
}

func toWebhookEventItem(e entities.WebhookEvent) webhookEventItem {
	return webhookEventItem{
		Provider:   e.Provider,
		ID:         e.ID,
		Type:       string(e.Type),
		PaymentRef: e.PaymentRef,
		RefundRef:  e.RefundRef,
		Amount:     e.Amount,
		Payload:    string(e.Payload),
		Signature:  e.Signature,
		Outcome:    string(e.Outcome),
		Reason:     e.Reason,
		ReceivedAt: formatTime(e.ReceivedAt),
	}
}

func fromWebhookEventItem(it webhookEventItem) entities.WebhookEvent {
	var payload []byte
	if it.Payload != "" {
		payload = []byte(it.Payload)
	}
	return entities.WebhookEvent{
		ID:         it.ID,
		Provider:   it.Provider,
		Type:       entities.WebhookEventType(it.Type),
		PaymentRef: it.PaymentRef,
		RefundRef:  it.RefundRef,
		Amount:     it.Amount,
		Payload:    payload,
		Signature:  it.Signature,
		Outcome:    entities.WebhookOutcome(it.Outcome),
		Reason:     it.Reason,
		ReceivedAt: parseTime(it.ReceivedAt),
	}
}
