package repository

import (
	"context"
	"sort"
	"strconv"

	"payment_gateway/internal/domain/entities"
	"payment_gateway/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	defaultPaymentsTableName    = "payments"
	paymentsOrderIDIndex        = "order_id-index"
	paymentsIdempotencyKeyIndex = "idempotency_key-index"
	paymentsProviderRefKeyIndex = "provider_ref_key-index"
)

type transitionItem struct {
	From   string `dynamodbav:"from"`
	To     string `dynamodbav:"to"`
	Source string `dynamodbav:"source"`
	At     string `dynamodbav:"at"`
}

type paymentItem struct {
	ID                  string           `dynamodbav:"id"`
	OrderID             string           `dynamodbav:"order_id"`
	Provider            string           `dynamodbav:"provider"`
	ProviderRef         string           `dynamodbav:"provider_ref,omitempty"`
	ProviderRefKey      string           `dynamodbav:"provider_ref_key,omitempty"`
	IdempotencyKey      string           `dynamodbav:"idempotency_key,omitempty"`
	Amount              int64            `dynamodbav:"amount"`
	Currency            string           `dynamodbav:"currency"`
	CapturedAmount      int64            `dynamodbav:"captured_amount"`
	RefundedAmount      int64            `dynamodbav:"refunded_amount"`
	PendingRefundAmount int64            `dynamodbav:"pending_refund_amount"`
	State               string           `dynamodbav:"state"`
	Transitions         []transitionItem `dynamodbav:"transitions"`
	CreatedAt           string           `dynamodbav:"created_at"`
	UpdatedAt           string           `dynamodbav:"updated_at"`
	Version             int64            `dynamodbav:"version"`
}

// PaymentDynamoRepository persists payments in DynamoDB.
//
// Table requirements:
//   - PK: id (string)
//   - GSI: order_id-index (PK: order_id)
//   - GSI: idempotency_key-index (PK: idempotency_key)
//   - GSI: provider_ref_key-index (PK: provider_ref_key, "provider#ref")
//
// Update is conditional on the stored version.
type PaymentDynamoRepository struct {
	ddb       DynamoAPI
	tableName string
}

var _ interfaces.IPaymentRepository = (*PaymentDynamoRepository)(nil)

func NewPaymentDynamoRepository(ddb DynamoAPI) *PaymentDynamoRepository {
	return &PaymentDynamoRepository{
		ddb:       ddb,
		tableName: getenvDefault("PAYMENTS_TABLE", defaultPaymentsTableName),
	}
}

func (r *PaymentDynamoRepository) Create(ctx context.Context, p entities.Payment) (entities.Payment, error) {
	av, err := attributevalue.MarshalMap(toPaymentItem(p))
	if err != nil {
		return entities.Payment{}, err
	}

	_, err = r.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{
			"#id": "id",
		},
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return entities.Payment{}, ErrItemAlreadyExists
		}
		return entities.Payment{}, err
	}
	return p, nil
}

func (r *PaymentDynamoRepository) GetByID(ctx context.Context, id string) (entities.Payment, error) {
	out, err := r.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            stringKey("id", id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return entities.Payment{}, err
	}
	if len(out.Item) == 0 {
		return entities.Payment{}, nil
	}

	var it paymentItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return entities.Payment{}, err
	}
	return fromPaymentItem(it), nil
}

func (r *PaymentDynamoRepository) GetByIdempotencyKey(ctx context.Context, key string) (entities.Payment, error) {
	items, err := r.queryIndex(ctx, paymentsIdempotencyKeyIndex, "idempotency_key", key)
	if err != nil || len(items) == 0 {
		return entities.Payment{}, err
	}
	// GSIs are eventually consistent; read the item itself for the current version.
	return r.GetByID(ctx, items[0].ID)
}

func (r *PaymentDynamoRepository) GetByProviderRef(ctx context.Context, provider, ref string) (entities.Payment, error) {
	items, err := r.queryIndex(ctx, paymentsProviderRefKeyIndex, "provider_ref_key", providerRefKey(provider, ref))
	if err != nil || len(items) == 0 {
		return entities.Payment{}, err
	}
	return r.GetByID(ctx, items[0].ID)
}

func (r *PaymentDynamoRepository) ListByOrderID(ctx context.Context, orderID string) ([]entities.Payment, error) {
	items, err := r.queryIndex(ctx, paymentsOrderIDIndex, "order_id", orderID)
	if err != nil {
		return nil, err
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
	return items, nil
}

func (r *PaymentDynamoRepository) Update(ctx context.Context, p entities.Payment) (entities.Payment, error) {
	next := p.Clone()
	next.Version = p.Version + 1
	av, err := attributevalue.MarshalMap(toPaymentItem(next))
	if err != nil {
		return entities.Payment{}, err
	}

	_, err = r.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_exists(#id) AND #version = :expected"),
		ExpressionAttributeNames: map[string]string{
			"#id":      "id",
			"#version": "version",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":expected": &types.AttributeValueMemberN{Value: strconv.FormatInt(p.Version, 10)},
		},
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return entities.Payment{}, entities.ErrVersionConflict
		}
		return entities.Payment{}, err
	}
	return next, nil
}

func (r *PaymentDynamoRepository) queryIndex(ctx context.Context, index, attr, value string) ([]entities.Payment, error) {
	out, err := r.ddb.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(index),
		KeyConditionExpression: aws.String("#k = :v"),
		ExpressionAttributeNames: map[string]string{
			"#k": attr,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":v": &types.AttributeValueMemberS{Value: value},
		},
	})
	if err != nil {
		return nil, err
	}

	items := make([]entities.Payment, 0, len(out.Items))
	for _, raw := range out.Items {
		var it paymentItem
		if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
			return nil, err
		}
		items = append(items, fromPaymentItem(it))
	}
	return items, nil
}

func providerRefKey(provider, ref string) string {
	if ref == "" {
		return ""
	}
	return provider + "#" + ref
}

func toPaymentItem(p entities.Payment) paymentItem {
	transitions := make([]transitionItem, 0, len(p.Transitions))
	for _, tr := range p.Transitions {
		transitions = append(transitions, transitionItem{
			From:   string(tr.From),
			To:     string(tr.To),
			Source: tr.Source,
			At:     formatTime(tr.At),
		})
	}
	return paymentItem{
		ID:                  p.ID,
		OrderID:             p.OrderID,
		Provider:            p.Provider,
		ProviderRef:         p.ProviderRef,
		ProviderRefKey:      providerRefKey(p.Provider, p.ProviderRef),
		IdempotencyKey:      p.IdempotencyKey,
		Amount:              p.Amount.Amount,
		Currency:            p.Amount.Currency,
		CapturedAmount:      p.CapturedAmount,
		RefundedAmount:      p.RefundedAmount,
		PendingRefundAmount: p.PendingRefundAmount,
		State:               string(p.State),
		Transitions:         transitions,
		CreatedAt:           formatTime(p.CreatedAt),
		UpdatedAt:           formatTime(p.UpdatedAt),
		Version:             p.Version,
	}
}

func fromPaymentItem(it paymentItem) entities.Payment {
	var transitions []entities.StateTransition
	for _, tr := range it.Transitions {
		transitions = append(transitions, entities.StateTransition{
			From:   entities.PaymentState(tr.From),
			To:     entities.PaymentState(tr.To),
			Source: tr.Source,
			At:     parseTime(tr.At),
		})
	}
	return entities.Payment{
		ID:                  it.ID,
		OrderID:             it.OrderID,
		Provider:            it.Provider,
		ProviderRef:         it.ProviderRef,
		IdempotencyKey:      it.IdempotencyKey,
		Amount:              entities.Money{Amount: it.Amount, Currency: it.Currency},
		CapturedAmount:      it.CapturedAmount,
		RefundedAmount:      it.RefundedAmount,
		PendingRefundAmount: it.PendingRefundAmount,
		State:               entities.PaymentState(it.State),
		Transitions:         transitions,
		CreatedAt:           parseTime(it.CreatedAt),
		UpdatedAt:           parseTime(it.UpdatedAt),
		Version:             it.Version,
	}
}
