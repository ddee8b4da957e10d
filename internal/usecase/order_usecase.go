package usecase

import (
	"context"
	"strings"
	"time"

	"payment_gateway/internal/domain/entities"
	"payment_gateway/internal/infrastructure/logging"
	"payment_gateway/internal/usecase/interfaces"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IOrderUseCase exposes the orders payments are opened against.
type IOrderUseCase interface {
	CreateOrder(ctx context.Context, total entities.Money, provider string) (entities.Order, error)
	GetByID(ctx context.Context, id string) (entities.Order, error)
}

type OrderUseCase struct {
	repo      interfaces.IOrderRepository
	providers map[string]string
	log       *zap.Logger
}

var _ IOrderUseCase = (*OrderUseCase)(nil)

// NewOrderUseCase accepts orders for the given provider names only.
func NewOrderUseCase(repo interfaces.IOrderRepository, providers []string, log *zap.Logger) *OrderUseCase {
	if log == nil {
		log = zap.NewNop()
	}
	known := make(map[string]string, len(providers))
	for _, name := range providers {
		known[normalizeProvider(name)] = name
	}
	return &OrderUseCase{repo: repo, providers: known, log: log.Named("order")}
}

func (u *OrderUseCase) CreateOrder(ctx context.Context, total entities.Money, provider string) (entities.Order, error) {
	if total.Amount <= 0 {
		return entities.Order{}, ErrInvalidOrderTotal
	}
	money, err := entities.NewMoney(total.Amount, total.Currency)
	if err != nil {
		return entities.Order{}, err
	}
	name, ok := u.providers[normalizeProvider(provider)]
	if !ok {
		return entities.Order{}, entities.ErrUnknownProvider
	}

	now := time.Now().UTC()
	o := entities.Order{
		ID:        uuid.NewString(),
		Total:     money,
		Status:    entities.OrderStatusOpen,
		Provider:  name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	created, err := u.repo.Create(ctx, o)
	if err != nil {
		return entities.Order{}, err
	}
	u.log.Info("order created", logging.OrderID(created.ID), logging.Provider(name), zap.String("total", money.String()))
	return created, nil
}

func (u *OrderUseCase) GetByID(ctx context.Context, id string) (entities.Order, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return entities.Order{}, ErrInvalidOrderID
	}

	o, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return entities.Order{}, err
	}
	if o.ID == "" {
		return entities.Order{}, entities.ErrOrderNotFound
	}
	return o, nil
}

// HandlePaymentTransition fulfils the order once one of its payments is captured.
func (u *OrderUseCase) HandlePaymentTransition(ctx context.Context, p entities.Payment, tr entities.StateTransition) {
	if tr.To != entities.PaymentStateCaptured {
		return
	}
	o, err := u.repo.GetByID(ctx, p.OrderID)
	if err != nil {
		u.log.Error("load order for fulfilment failed", logging.OrderID(p.OrderID), logging.PaymentID(p.ID), zap.Error(err))
		return
	}
	if o.ID == "" || !o.IsOpen() {
		return
	}
	if _, err := u.repo.UpdateStatus(ctx, o.ID, entities.OrderStatusFulfilled); err != nil {
		u.log.Error("order fulfilment failed", logging.OrderID(o.ID), logging.PaymentID(p.ID), zap.Error(err))
		return
	}
	u.log.Info("order fulfilled", logging.OrderID(o.ID), logging.PaymentID(p.ID))
}
