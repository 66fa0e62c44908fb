package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/BosskingGM/office-gama/internal/core/domain"
	"github.com/BosskingGM/office-gama/internal/core/ports"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/BosskingGM/office-gama/internal/core/service"

// WebhookService turns provider payment confirmations into orders exactly once.
type WebhookService struct {
	validator ports.WebhookValidator
	secret    string
	ledger    ports.OrderLedger
	inventory ports.InventoryAdjuster
	pending   ports.PendingCheckoutStore

	tracer          trace.Tracer
	eventCounter    metric.Int64Counter
	decrementFailed metric.Int64Counter
}

// NewWebhookService creates a new webhook receiver.
func NewWebhookService(
	validator ports.WebhookValidator,
	secret string,
	ledger ports.OrderLedger,
	inventory ports.InventoryAdjuster,
	pending ports.PendingCheckoutStore,
) *WebhookService {
	meter := otel.Meter(instrumentationName)

	events, err := meter.Int64Counter("webhook.events",
		metric.WithDescription("Payment confirmations by terminal outcome"))
	if err != nil {
		events = noop.Int64Counter{}
	}
	failed, err := meter.Int64Counter("inventory.decrement.failures",
		metric.WithDescription("Order lines whose stock decrement failed"))
	if err != nil {
		failed = noop.Int64Counter{}
	}

	return &WebhookService{
		validator:       validator,
		secret:          secret,
		ledger:          ledger,
		inventory:       inventory,
		pending:         pending,
		tracer:          otel.Tracer(instrumentationName),
		eventCounter:    events,
		decrementFailed: failed,
	}
}

// HandleEvent processes one delivery of a provider event. A non-nil error with
// a rejected outcome means the delivery must be answered with 4xx; an error
// with an empty outcome means the ledger could not be reached.
func (s *WebhookService) HandleEvent(ctx context.Context, payload []byte, xSignature string) (domain.WebhookOutcome, error) {
	ctx, span := s.tracer.Start(ctx, "webhook.handle_event")
	defer span.End()

	// Step 1: Authenticity, before anything in the body is trusted
	if !s.validator.ValidateSignature(xSignature, payload, s.secret) {
		log.Printf("[SECURITY] webhook signature rejected (header present: %t, body bytes: %d)",
			xSignature != "", len(payload))
		return s.finish(ctx, span, domain.OutcomeRejectedAuth,
			domain.NewServiceError(domain.ErrAuthenticity, "invalid webhook signature", "INVALID_SIGNATURE"))
	}

	// Once authenticated nothing is cancellable.
	ctx = context.WithoutCancel(ctx)

	var event domain.WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		log.Printf("[FATAL] webhook body is not valid JSON: %v", err)
		return s.finish(ctx, span, domain.OutcomeRejectedMalformed,
			domain.NewServiceError(domain.ErrDataIntegrity, "malformed webhook body", "MALFORMED_BODY"))
	}
	span.SetAttributes(attribute.String("webhook.event_type", event.EventType))

	// Step 2: Only completed checkouts create orders
	if event.EventType != domain.EventCheckoutCompleted {
		log.Printf("Ignoring webhook event type: %s", event.EventType)
		return s.finish(ctx, span, domain.OutcomeIgnored, nil)
	}

	session := event.Session
	if session.ID == "" {
		log.Printf("[FATAL] completed checkout event without session id")
		return s.finish(ctx, span, domain.OutcomeRejectedMalformed,
			domain.NewServiceError(domain.ErrDataIntegrity, "session id missing", "MALFORMED_BODY"))
	}
	span.SetAttributes(attribute.String("payment.session_id", session.ID))

	// Step 3: Metadata recovery
	intent, err := s.recoverIntent(ctx, session)
	if err != nil {
		log.Printf("[FATAL] session %s: cannot recover checkout intent: %v", session.ID, err)
		return s.finish(ctx, span, domain.OutcomeRejectedMalformed, err)
	}

	// Step 4: Idempotency guard
	existing, err := s.ledger.FindBySessionID(ctx, session.ID)
	if err != nil {
		log.Printf("Failed to look up order for session %s: %v", session.ID, err)
		return s.finish(ctx, span, "", err)
	}
	if existing != nil {
		log.Printf("Session %s already recorded as order %s", session.ID, existing.ID)
		return s.finish(ctx, span, domain.OutcomeDuplicate, nil)
	}

	// Step 5: Order creation
	order := domain.NewOrder(uuid.NewString(), session.ID, *intent, session.CustomerEmail, session.AmountTotal)
	for i := range order.Lines {
		order.Lines[i].ID = uuid.NewString()
	}

	created, err := s.ledger.CreateOrder(ctx, order)
	if errors.Is(err, domain.ErrDuplicateSession) {
		log.Printf("Session %s recorded by a concurrent delivery", session.ID)
		return s.finish(ctx, span, domain.OutcomeDuplicate, nil)
	}
	if err != nil {
		log.Printf("Failed to create order for session %s: %v", session.ID, err)
		return s.finish(ctx, span, "", err)
	}
	span.SetAttributes(attribute.String("order.id", created.ID))

	// Step 6: Inventory, line by line
	s.applyInventory(ctx, created)

	if err := s.pending.MarkConsumed(ctx, session.ID, created.ID); err != nil {
		log.Printf("[WARN] could not mark pending checkout %s consumed: %v", session.ID, err)
	}

	log.Printf("Webhook processed: session %s, order %s, total %s",
		session.ID, created.ID, domain.FormatMoney(created.Total, ""))

	return s.finish(ctx, span, domain.OutcomeCreated, nil)
}

// recoverIntent prefers the locally recorded pending checkout and falls back
// on the metadata echoed by the provider.
func (s *WebhookService) recoverIntent(ctx context.Context, session domain.ProviderSession) (*domain.CheckoutIntent, error) {
	if len(session.Metadata) == 0 {
		return nil, domain.NewServiceError(domain.ErrDataIntegrity, "session metadata missing", "METADATA_MISSING")
	}

	intent, metaErr := domain.DecodeMetadata(session.Metadata)

	pending, err := s.pending.GetPending(ctx, session.ID)
	if err != nil {
		log.Printf("[WARN] pending checkout lookup failed for %s, using metadata: %v", session.ID, err)
	}
	if err == nil && pending != nil {
		if recErr := domain.CheckRecoverable(pending.Intent); recErr == nil {
			if intent != nil && intent.BuyerID != pending.Intent.BuyerID {
				log.Printf("[WARN] session %s: metadata buyer %s differs from pending buyer %s",
					session.ID, intent.BuyerID, pending.Intent.BuyerID)
			}
			intent, metaErr = &pending.Intent, nil
		} else {
			log.Printf("[WARN] pending checkout %s unusable: %v", session.ID, recErr)
		}
	}
	if metaErr != nil {
		return nil, metaErr
	}

	if expected := intent.Total(); expected != session.AmountTotal {
		log.Printf("[WARN] session %s: provider charged %s, checkout total was %s",
			session.ID, domain.FormatMoney(session.AmountTotal, ""), domain.FormatMoney(expected, ""))
	}
	return intent, nil
}

func (s *WebhookService) applyInventory(ctx context.Context, order *domain.Order) {
	for _, line := range order.Lines {
		applied, err := s.inventory.ApplyOrderLine(ctx, line)
		if err != nil {
			log.Printf("[INVENTORY] decrement failed for variant %s (order %s, line %s): %v",
				line.VariantID, order.ID, line.ID, err)
			s.decrementFailed.Add(ctx, 1, metric.WithAttributes(attribute.String("variant.id", line.VariantID)))
			continue
		}
		if !applied {
			log.Printf("[INVENTORY] line %s already applied", line.ID)
		}
	}
}

func (s *WebhookService) finish(ctx context.Context, span trace.Span, outcome domain.WebhookOutcome, err error) (domain.WebhookOutcome, error) {
	label := string(outcome)
	if label == "" {
		label = "error"
	}
	span.SetAttributes(attribute.String("webhook.outcome", label))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, label)
	}
	s.eventCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", label)))
	return outcome, err
}
