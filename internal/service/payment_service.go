package service

import (
	"context"
	"fmt"

	"github.com/diagnosis/turneja/internal/domain"
	"github.com/diagnosis/turneja/internal/payment"
	"github.com/diagnosis/turneja/pkg/events"
	"github.com/diagnosis/turneja/pkg/logger"
)

var cardOnly = []string{"card"}

type PaymentService interface {
	CreateIntent(ctx context.Context, price *float64) (*domain.PaymentIntentResponse, error)
}

type paymentService struct {
	provider payment.Provider
	currency string
	eventBus events.Publisher
}

func NewPaymentService(provider payment.Provider, currency string, eventBus events.Publisher) PaymentService {
	return &paymentService{provider: provider, currency: currency, eventBus: eventBus}
}

// CreateIntent charges price in minor units and hands back only the client
// secret.
func (s *paymentService) CreateIntent(ctx context.Context, price *float64) (*domain.PaymentIntentResponse, error) {
	amount, err := domain.ChargeAmount(price)
	if err != nil {
		return nil, err
	}

	intent, err := s.provider.CreatePaymentIntent(ctx, amount, s.currency, cardOnly)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}

	event := events.PaymentIntentCreatedEvent{IntentID: intent.ID, Amount: amount, Currency: s.currency}
	if err := s.eventBus.Publish(ctx, events.PaymentIntentCreated, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish payment intent event", "error", err, "intent_id", intent.ID)
	}
	logger.InfoContext(ctx, "Payment intent created", "intent_id", intent.ID, "amount", amount)

	return &domain.PaymentIntentResponse{ClientSecret: intent.ClientSecret}, nil
}
