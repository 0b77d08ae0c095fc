package order

import (
	"context"
	"errors"
	"time"

	"resto-be/internal/auth"
	"resto-be/internal/catalog"
	"resto-be/internal/logger"
	"resto-be/internal/metrics"
	"resto-be/internal/realtime"
	"resto-be/internal/utils"

	"go.uber.org/zap"
)

type Service interface {
	CreateOrder(ctx context.Context, actor auth.Actor, cart Cart) (*CreateResult, error)
	ApproveOrder(ctx context.Context, actor auth.Actor, orderID int64) (*OrderDetail, error)
	ListOrders(ctx context.Context, actor auth.Actor, filter ListFilter) ([]OrderDetail, error)
	GetOrder(ctx context.Context, actor auth.Actor, orderID int64) (*OrderDetail, error)
}

// Deps are the collaborators of the order service. Events and Metrics may be nil.
type Deps struct {
	Repo    Repository
	Catalog catalog.Repository
	Pricer  *Reconciler
	Guard   *Guard
	Roles   auth.RoleChecker
	Events  realtime.Publisher
	Metrics *metrics.Orders
	Now     func() time.Time
}

type service struct {
	repo    Repository
	catalog catalog.Repository
	pricer  *Reconciler
	guard   *Guard
	roles   auth.RoleChecker
	events  realtime.Publisher
	metrics *metrics.Orders
	now     func() time.Time
}

func NewService(d Deps) Service {
	s := &service{
		repo:    d.Repo,
		catalog: d.Catalog,
		pricer:  d.Pricer,
		guard:   d.Guard,
		roles:   d.Roles,
		events:  d.Events,
		metrics: d.Metrics,
		now:     d.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.metrics == nil {
		s.metrics = &metrics.Orders{}
	}
	if s.pricer == nil {
		s.pricer = NewReconciler(d.Catalog, s.now)
	}
	return s
}

func (s *service) CreateOrder(ctx context.Context, actor auth.Actor, cart Cart) (*CreateResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CreateOrder"),
		zap.String("order_type", string(cart.OrderType)),
	)

	if err := cart.Validate(); err != nil {
		log.Info("rejected invalid cart", zap.Error(err))
		return nil, err
	}
	if cart.UserID != nil && *cart.UserID != actor.UserID {
		log.Warn("cart user does not match caller", zap.Uint("cart_user_id", *cart.UserID))
		return nil, ErrForbidden
	}

	fp := Fingerprint(cart)
	if !s.guard.CheckAndRegister(fp) {
		s.metrics.Duplicates.Inc()
		log.Info("duplicate submission rejected", zap.String("request_id", cart.RequestID))
		return nil, ErrDuplicateSubmission
	}
	committed := false
	defer func() {
		if !committed {
			s.guard.Release(fp)
		}
	}()

	quote, err := s.pricer.Reconcile(ctx, cart)
	if err != nil {
		switch {
		case errors.Is(err, ErrPriceMismatch):
			s.metrics.PriceMismatches.Inc()
			log.Info("price reconciliation failed", zap.Error(err))
		case errors.Is(err, ErrCatalogViolation):
			s.metrics.CatalogViolations.Inc()
			log.Info("catalog validation failed", zap.Error(err))
		default:
			log.Error("failed to read catalog", zap.Error(err))
		}
		return nil, err
	}

	order := NewOrder{
		Type:           cart.OrderType,
		PromotionID:    cart.PromotionID,
		SessionID:      actor.SessionID,
		Total:          quote.Total,
		MenuLines:      quote.MenuLines,
		BreakfastLines: quote.BreakfastLines,
	}
	if actor.Authenticated() {
		uid := actor.UserID
		order.UserID = &uid
	}

	switch cart.OrderType {
	case TypeLocal:
		table, err := s.catalog.GetTable(ctx, *cart.TableID)
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, ErrTableNotFound
		}
		if err != nil {
			log.Error("failed to load table", zap.Error(err))
			return nil, err
		}
		order.TableID = &table.ID
		order.TableNumber = table.Number
	case TypeDelivery:
		order.DeliveryAddress = cart.DeliveryAddress
	}

	timer := metrics.StartTimer()
	res, err := s.repo.CommitOrder(ctx, order)
	s.metrics.CommitDuration.Observe(timer.Duration())
	if err != nil {
		s.metrics.PersistenceErrors.Inc()
		log.Error("failed to commit order", zap.Error(err))
		if !errors.Is(err, ErrPersistence) {
			err = errors.Join(ErrPersistence, err)
		}
		return nil, err
	}
	committed = true
	s.metrics.Created.Inc()

	log.Info("order created",
		zap.Int64("order_id", res.OrderID),
		zap.String("total", quote.Total.StringFixed(2)),
	)

	s.announceCreated(ctx, actor, order, res)

	return &CreateResult{OrderID: res.OrderID, Total: quote.Total}, nil
}

// announceCreated runs after commit; nothing here can fail the request.
func (s *service) announceCreated(ctx context.Context, actor auth.Actor, o NewOrder, res *CommitResult) {
	if s.events == nil {
		return
	}

	var payload any = map[string]int64{"orderId": res.OrderID}
	if detail, err := s.repo.GetOrderDetail(ctx, res.OrderID); err != nil {
		logger.FromCtx(ctx).Warn("failed to load created order for fan-out",
			zap.String("layer", "service"),
			zap.Int64("order_id", res.OrderID),
			zap.Error(err),
		)
	} else {
		payload = detail
	}

	msgs := []realtime.Message{
		{Event: realtime.EventNewOrder, Audience: realtime.Broadcast(), Payload: payload},
		{Event: realtime.EventNewOrder, Audience: realtime.Staff(), Payload: payload},
		{Event: realtime.EventNewNotification, Audience: realtime.Staff(), Payload: res.Notification},
	}
	if actor.SessionID != "" {
		msgs = append(msgs, realtime.Message{
			Event:    realtime.EventOrderCreated,
			Audience: realtime.Session(actor.SessionID),
			Payload:  payload,
		})
	}
	if res.TableOccupied && o.TableID != nil {
		msgs = append(msgs, realtime.Message{
			Event:    realtime.EventTableStatusUpdate,
			Audience: realtime.Broadcast(),
			Payload:  map[string]any{"tableId": *o.TableID, "status": catalog.TableOccupied},
		})
	}

	s.publish(ctx, msgs...)
}

func (s *service) publish(ctx context.Context, msgs ...realtime.Message) {
	for _, m := range msgs {
		if err := s.events.Publish(ctx, m); err != nil {
			s.metrics.PublishFailures.Inc()
			logger.FromCtx(ctx).Warn("failed to publish event",
				zap.String("layer", "service"),
				zap.String("event", m.Event),
				zap.Error(err),
			)
		}
	}
}

// requireStaff checks the role against the user store, not the token claim,
// so a demoted user loses access before their token expires.
func (s *service) requireStaff(ctx context.Context, actor auth.Actor) error {
	if !actor.Authenticated() {
		return ErrUnauthenticated
	}
	ok, err := s.roles.HasRole(ctx, actor.UserID, auth.StaffRoles)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

func (s *service) ApproveOrder(ctx context.Context, actor auth.Actor, orderID int64) (*OrderDetail, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "ApproveOrder"),
		zap.Int64("order_id", orderID),
	)

	if err := s.requireStaff(ctx, actor); err != nil {
		log.Warn("approve denied", zap.Error(err))
		return nil, err
	}

	if err := s.repo.Approve(ctx, orderID); err != nil {
		return nil, err
	}
	s.metrics.Approvals.Inc()

	detail, err := s.repo.GetOrderDetail(ctx, orderID)
	if err != nil {
		log.Error("failed to reload approved order", zap.Error(err))
		return nil, err
	}

	if s.events != nil {
		payload := map[string]any{"orderId": orderID, "order": detail}
		msgs := []realtime.Message{
			{Event: realtime.EventOrderApproved, Audience: realtime.Broadcast(), Payload: payload},
		}
		if detail.SessionID != "" {
			msgs = append(msgs, realtime.Message{
				Event:    realtime.EventOrderApprovedSelf,
				Audience: realtime.Session(detail.SessionID),
				Payload:  payload,
			})
		}
		s.publish(ctx, msgs...)
	}

	log.Info("order approved",
		zap.Uint("approved_by", actor.UserID),
		zap.String("approved_by_email", utils.GetUserEmailFromContext(ctx)),
	)
	return detail, nil
}

func (s *service) ListOrders(ctx context.Context, actor auth.Actor, filter ListFilter) ([]OrderDetail, error) {
	if err := s.requireStaff(ctx, actor); err != nil {
		return nil, err
	}

	preds, err := filter.Predicates(s.now())
	if err != nil {
		return nil, &ValidationError{Fields: []FieldError{{Field: "time_range", Message: err.Error()}}}
	}
	return s.repo.FetchOrders(ctx, preds...)
}

// GetOrder serves staff, and the customer session or user that placed the order.
func (s *service) GetOrder(ctx context.Context, actor auth.Actor, orderID int64) (*OrderDetail, error) {
	detail, err := s.repo.GetOrderDetail(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if actor.SessionID != "" && actor.SessionID == detail.SessionID {
		return detail, nil
	}
	if actor.Authenticated() && detail.UserID != nil && *detail.UserID == actor.UserID {
		return detail, nil
	}
	if err := s.requireStaff(ctx, actor); err != nil {
		return nil, err
	}
	return detail, nil
}
