package repository

import (
	"context"
	"sort"

	"payment_gateway/internal/domain/entities"
	"payment_gateway/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	defaultRefundsTableName = "refunds"
	refundsPaymentIDIndex   = "payment_id-index"
)

type refundItem struct {
	ID             string `dynamodbav:"id"`
	PaymentID      string `dynamodbav:"payment_id"`
	ProviderRef    string `dynamodbav:"provider_ref,omitempty"`
	IdempotencyKey string `dynamodbav:"idempotency_key,omitempty"`
	Amount         int64  `dynamodbav:"amount"`
	Currency       string `dynamodbav:"currency"`
	State          string `dynamodbav:"state"`
	CreatedAt      string `dynamodbav:"created_at"`
	UpdatedAt      string `dynamodbav:"updated_at"`
}

// refundKeyItem claims an idempotency key for one refund. It carries no
// payment_id, so it stays out of the payment_id index.
type refundKeyItem struct {
	ID       string `dynamodbav:"id"`
	RefundID string `dynamodbav:"refund_id"`
}

func refundKeyID(paymentID, key string) string {
	return "refund-key#" + paymentID + "#" + key
}

// RefundDynamoRepository persists refund records in DynamoDB.
//
// Table requirements:
//   - PK: id (string)
//   - GSI: payment_id-index (PK: payment_id)
//
// Idempotency keys live in the same table as "refund-key#<payment>#<key>".
type RefundDynamoRepository struct {
	ddb       DynamoAPI
	tableName string
}

var _ interfaces.IRefundRepository = (*RefundDynamoRepository)(nil)

func NewRefundDynamoRepository(ddb DynamoAPI) *RefundDynamoRepository {
	return &RefundDynamoRepository{
		ddb:       ddb,
		tableName: getenvDefault("REFUNDS_TABLE", defaultRefundsTableName),
	}
}

// Create stores a refund. A keyed refund is written together with a guard
// item so a second record with the same (payment_id, idempotency_key) is
// rejected.
func (r *RefundDynamoRepository) Create(ctx context.Context, rec entities.RefundRecord) (entities.RefundRecord, error) {
	if rec.IdempotencyKey == "" {
		return r.put(ctx, rec, "attribute_not_exists(#id)", ErrItemAlreadyExists)
	}

	av, err := attributevalue.MarshalMap(toRefundItem(rec))
	if err != nil {
		return entities.RefundRecord{}, err
	}
	guard, err := attributevalue.MarshalMap(refundKeyItem{
		ID:       refundKeyID(rec.PaymentID, rec.IdempotencyKey),
		RefundID: rec.ID,
	})
	if err != nil {
		return entities.RefundRecord{}, err
	}
	names := map[string]string{"#id": "id"}
	_, err = r.ddb.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:                aws.String(r.tableName),
				Item:                     av,
				ConditionExpression:      aws.String("attribute_not_exists(#id)"),
				ExpressionAttributeNames: names,
			}},
			{Put: &types.Put{
				TableName:                aws.String(r.tableName),
				Item:                     guard,
				ConditionExpression:      aws.String("attribute_not_exists(#id)"),
				ExpressionAttributeNames: names,
			}},
		},
	})
	if err != nil {
		if isTransactionConditionFailed(err) {
			return entities.RefundRecord{}, ErrItemAlreadyExists
		}
		return entities.RefundRecord{}, err
	}
	return rec, nil
}

func (r *RefundDynamoRepository) Update(ctx context.Context, rec entities.RefundRecord) (entities.RefundRecord, error) {
	return r.put(ctx, rec, "attribute_exists(#id)", entities.ErrRefundNotFound)
}

func (r *RefundDynamoRepository) put(ctx context.Context, rec entities.RefundRecord, condition string, conditionErr error) (entities.RefundRecord, error) {
	av, err := attributevalue.MarshalMap(toRefundItem(rec))
	if err != nil {
		return entities.RefundRecord{}, err
	}
	_, err = r.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String(condition),
		ExpressionAttributeNames: map[string]string{
			"#id": "id",
		},
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return entities.RefundRecord{}, conditionErr
		}
		return entities.RefundRecord{}, err
	}
	return rec, nil
}

func (r *RefundDynamoRepository) GetByID(ctx context.Context, id string) (entities.RefundRecord, error) {
	out, err := r.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            stringKey("id", id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return entities.RefundRecord{}, err
	}
	if len(out.Item) == 0 {
		return entities.RefundRecord{}, nil
	}
	var it refundItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return entities.RefundRecord{}, err
	}
	return fromRefundItem(it), nil
}

// GetByIdempotencyKey reads the guard item, so a key stored by Create is seen
// immediately.
func (r *RefundDynamoRepository) GetByIdempotencyKey(ctx context.Context, paymentID, key string) (entities.RefundRecord, error) {
	if key == "" {
		return entities.RefundRecord{}, nil
	}
	out, err := r.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            stringKey("id", refundKeyID(paymentID, key)),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return entities.RefundRecord{}, err
	}
	if len(out.Item) == 0 {
		return entities.RefundRecord{}, nil
	}
	var guard refundKeyItem
	if err := attributevalue.UnmarshalMap(out.Item, &guard); err != nil {
		return entities.RefundRecord{}, err
	}
	if guard.RefundID == "" {
		return entities.RefundRecord{}, nil
	}
	return r.GetByID(ctx, guard.RefundID)
}

func (r *RefundDynamoRepository) GetByProviderRef(ctx context.Context, paymentID, ref string) (entities.RefundRecord, error) {
	if ref == "" {
		return entities.RefundRecord{}, nil
	}
	return r.findByPayment(ctx, paymentID, func(rec entities.RefundRecord) bool { return rec.ProviderRef == ref })
}

func (r *RefundDynamoRepository) ListByPaymentID(ctx context.Context, paymentID string) ([]entities.RefundRecord, error) {
	out, err := r.ddb.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(refundsPaymentIDIndex),
		KeyConditionExpression: aws.String("payment_id = :pid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pid": &types.AttributeValueMemberS{Value: paymentID},
		},
	})
	if err != nil {
		return nil, err
	}

	items := make([]entities.RefundRecord, 0, len(out.Items))
	for _, raw := range out.Items {
		var it refundItem
		if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
			return nil, err
		}
		items = append(items, fromRefundItem(it))
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
	return items, nil
}

// findByPayment re-reads the match by id so callers see the current item.
func (r *RefundDynamoRepository) findByPayment(ctx context.Context, paymentID string, match func(entities.RefundRecord) bool) (entities.RefundRecord, error) {
	items, err := r.ListByPaymentID(ctx, paymentID)
	if err != nil {
		return entities.RefundRecord{}, err
	}
	for _, it := range items {
		if match(it) {
			return r.GetByID(ctx, it.ID)
		}
	}
	return entities.RefundRecord{}, nil
}

func toRefundItem(rec entities.RefundRecord) refundItem {
	return refundItem{
		ID:             rec.ID,
		PaymentID:      rec.PaymentID,
		ProviderRef:    rec.ProviderRef,
		IdempotencyKey: rec.IdempotencyKey,
		Amount:         rec.Amount.Amount,
		Currency:       rec.Amount.Currency,
		State:          string(rec.State),
		CreatedAt:      formatTime(rec.CreatedAt),
		UpdatedAt:      formatTime(rec.UpdatedAt),
	}
}

func fromRefundItem(it refundItem) entities.RefundRecord {
	return entities.RefundRecord{
		ID:             it.ID,
		PaymentID:      it.PaymentID,
		ProviderRef:    it.ProviderRef,
		IdempotencyKey: it.IdempotencyKey,
		Amount:         entities.Money{Amount: it.Amount, Currency: it.Currency},
		State:          entities.RefundState(it.State),
		CreatedAt:      parseTime(it.CreatedAt),
		UpdatedAt:      parseTime(it.UpdatedAt),
	}
}
