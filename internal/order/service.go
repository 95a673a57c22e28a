package order

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var emailShape = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Notifier delivers the order confirmation. Failures never propagate to the
// order-creation caller.
type Notifier interface {
	SendOrderConfirmation(ctx context.Context, o *Order) error
}

type CreateRequest struct {
	Buyer BuyerInfo  `json:"buyer"`
	Items []CartItem `json:"items"`
	Total float64    `json:"total"`
}

// Service composes cart validation, order persistence and the best-effort
// confirmation notification.
type Service struct {
	repo        Repository
	validator   *Validator
	notifier    Notifier // nil disables notifications
	mailTimeout time.Duration
	logger      *log.Logger
}

func NewService(repo Repository, validator *Validator, notifier Notifier, mailTimeout time.Duration, logger *log.Logger) *Service {
	return &Service{
		repo:        repo,
		validator:   validator,
		notifier:    notifier,
		mailTimeout: mailTimeout,
		logger:      logger,
	}
}

func (s *Service) Create(ctx context.Context, userID string, req CreateRequest) (*Order, error) {
	if err := validateBuyer(req.Buyer); err != nil {
		return nil, err
	}
	if len(req.Items) == 0 {
		return nil, &InputError{Reason: "cart is empty"}
	}
	for _, it := range req.Items {
		if it.Quantity < 1 {
			return nil, &InputError{Reason: fmt.Sprintf("invalid quantity for product %d", it.ProductID)}
		}
	}

	validated, total, err := s.validator.ValidateCartTotal(ctx, req.Items, req.Total)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	o := &Order{
		ID:            newOrderID(now),
		UserID:        userID,
		Buyer:         req.Buyer,
		Total:         total,
		PaymentStatus: StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for _, it := range validated {
		o.Items = append(o.Items, Item{
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}

	if err := s.repo.Create(ctx, o); err != nil {
		if errors.Is(err, ErrDuplicateID) {
			// Two checkouts in the same millisecond; retry with a random id.
			o.ID = "ORD-" + strings.ToUpper(uuid.NewString()[:8])
			err = s.repo.Create(ctx, o)
		}
		if err != nil {
			return nil, fmt.Errorf("create order: %w", err)
		}
	}

	// The order is durably committed; notification runs in its own timeout
	// and failure domain, detached from the request context.
	if s.notifier != nil {
		mailCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.mailTimeout)
		defer cancel()
		if err := s.notifier.SendOrderConfirmation(mailCtx, o); err != nil {
			s.logger.Printf("order %s: confirmation mail failed: %v", o.ID, err)
		}
	}

	return o, nil
}

func (s *Service) GetForUser(ctx context.Context, userID, orderID string) (*Order, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil || o.UserID != userID {
		return nil, ErrNotFound
	}
	return o, nil
}

func (s *Service) ListForUser(ctx context.Context, userID string) ([]Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

func validateBuyer(b BuyerInfo) error {
	if !emailShape.MatchString(b.Email) {
		return &InputError{Reason: "buyer email is invalid"}
	}
	if strings.TrimSpace(b.Name) == "" || strings.TrimSpace(b.Phone) == "" || strings.TrimSpace(b.Address) == "" {
		return &InputError{Reason: "buyer contact details are incomplete"}
	}
	return nil
}

// newOrderID mirrors the historical id scheme: ORD- plus the trailing eight
// digits of the creation timestamp in milliseconds.
func newOrderID(now time.Time) string {
	millis := strconv.FormatInt(now.UnixMilli(), 10)
	if len(millis) > 8 {
		millis = millis[len(millis)-8:]
	}
	return "ORD-" + millis
}
