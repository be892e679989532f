// Package subscription реализует оплату подписки: через платёжный шлюз
// (инициализация, callback, webhook) и вручную, загрузкой квитанции
// о банковском переводе для проверки администратором.
package subscription

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/bookkeeper/internal/apperrors"
	"github.com/magabrotheeeer/bookkeeper/internal/config"
	"github.com/magabrotheeeer/bookkeeper/internal/filestore"
	"github.com/magabrotheeeer/bookkeeper/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/bookkeeper/internal/lib/sanitize"
	"github.com/magabrotheeeer/bookkeeper/internal/lib/sl"
	"github.com/magabrotheeeer/bookkeeper/internal/models"
	"github.com/magabrotheeeer/bookkeeper/internal/paymentprovider"
	"github.com/magabrotheeeer/bookkeeper/internal/services/access"
)

// Источники активации подписки.
const (
	SourceCallback = "callback"
	SourceWebhook  = "webhook"
)

const (
	referencePrefix = "ficore_"
	filenameMaxLen  = 100
)

var allowedExtensions = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"pdf":  true,
}

// Repository методы хранилища, нужные сценарию оплаты.
type Repository interface {
	// PaymentExists сообщает, учтён ли уже платёж с reference.
	PaymentExists(ctx context.Context, reference string) (bool, error)
	// ActivateSubscription продлевает подписку; false, если reference уже учтён.
	ActivateSubscription(ctx context.Context, act models.SubscriptionActivation) (bool, error)
	// CreateReceipt сохраняет квитанцию ручной оплаты.
	CreateReceipt(ctx context.Context, r models.PaymentReceipt) (int64, error)
	// ListReceipts возвращает квитанции пользователя, новые первыми.
	ListReceipts(ctx context.Context, userUID string) ([]models.PaymentReceipt, error)
}

// Gateway платёжный шлюз.
type Gateway interface {
	Initialize(ctx context.Context, req paymentprovider.InitializeRequest) (*paymentprovider.InitializeResponse, error)
	Verify(ctx context.Context, reference string) (*paymentprovider.Transaction, error)
}

// PendingStore незавершённые оплаты по идентификатору сессии.
type PendingStore interface {
	Save(ctx context.Context, sessionID string, tx models.PendingTransaction) error
	Get(ctx context.Context, sessionID string) (*models.PendingTransaction, error)
	Delete(ctx context.Context, sessionID string) error
}

// Publisher публикует события для сервиса уведомлений.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// Recorder метрики сценария оплаты.
type Recorder interface {
	GatewayCall(operation string, err error)
	Activated(source string)
}

// Deps зависимости сервиса.
type Deps struct {
	Repo      Repository
	Gateway   Gateway
	Pending   PendingStore
	Files     filestore.Storage
	Publisher Publisher // может быть nil, тогда события не отправляются
	Metrics   Recorder
}

// Settings параметры тарифов и оплаты.
type Settings struct {
	Plans       []config.Plan
	Bank        config.BankDetails
	CallbackURL string
}

// Service сценарий оплаты подписки.
type Service struct {
	repo      Repository
	gateway   Gateway
	pending   PendingStore
	files     filestore.Storage
	publisher Publisher
	metrics   Recorder
	plans     []config.Plan
	byCode    map[string]config.Plan
	bank      config.BankDetails
	callback  string
	log       *slog.Logger
}

// NewService создаёт сервис оплаты.
func NewService(deps Deps, settings Settings, log *slog.Logger) *Service {
	byCode := make(map[string]config.Plan, len(settings.Plans))
	for _, p := range settings.Plans {
		byCode[p.Code] = p
	}
	return &Service{
		repo:      deps.Repo,
		gateway:   deps.Gateway,
		pending:   deps.Pending,
		files:     deps.Files,
		publisher: deps.Publisher,
		metrics:   deps.Metrics,
		plans:     settings.Plans,
		byCode:    byCode,
		bank:      settings.Bank,
		callback:  settings.CallbackURL,
		log:       log,
	}
}

// InitiateResult адрес страницы оплаты шлюза.
type InitiateResult struct {
	AuthorizationURL string `json:"authorization_url"`
	Reference        string `json:"reference"`
}

// CallbackResult итог подтверждения оплаты.
type CallbackResult struct {
	Reference       string    `json:"reference"`
	PlanCode        string    `json:"plan_code"`
	SubscriptionEnd time.Time `json:"subscription_end,omitzero"`
	// AlreadyApplied платёж уже был учтён раньше, подписка не продлевалась.
	AlreadyApplied bool `json:"already_applied"`
}

// Upload квитанция ручной оплаты.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
	PlanType    string
	AmountPaid  decimal.Decimal
	PaymentDate time.Time
}

// ActivatedEvent событие subscription.activated.
type ActivatedEvent struct {
	UserUID         string    `json:"user_uid"`
	PlanCode        string    `json:"plan_code"`
	Reference       string    `json:"reference"`
	Amount          int64     `json:"amount"`
	Source          string    `json:"source"`
	SubscriptionEnd time.Time `json:"subscription_end"`
}

// ReceiptUploadedEvent событие receipt.uploaded.
type ReceiptUploadedEvent struct {
	ReceiptID  int64           `json:"receipt_id"`
	UserUID    string          `json:"user_uid"`
	PlanType   string          `json:"plan_type"`
	AmountPaid decimal.Decimal `json:"amount_paid"`
	Filename   string          `json:"filename"`
}

// Plans возвращает доступные тарифы.
func (s *Service) Plans() []config.Plan {
	return s.plans
}

// BankDetails реквизиты для ручной оплаты.
func (s *Service) BankDetails() config.BankDetails {
	return s.bank
}

// Reference формирует идентификатор платежа, уникальный для пользователя и секунды.
func Reference(userUID string, now time.Time) string {
	return referencePrefix + userUID + "_" + now.UTC().Format("20060102150405")
}

func ownsReference(userUID, reference string) bool {
	return strings.HasPrefix(reference, referencePrefix+userUID+"_")
}

// Initiate создаёт транзакцию в шлюзе для тарифа planCode и запоминает её
// в сессии sessionID до callback-а.
func (s *Service) Initiate(ctx context.Context, user *models.User, sessionID, planCode string, now time.Time) (*InitiateResult, error) {
	const op = "subscription.Initiate"
	log := s.log.With(slog.String("op", op), sl.User(user.UUID))

	plan, ok := s.byCode[planCode]
	if !ok {
		return nil, fmt.Errorf("%s: %w: %q", op, apperrors.ErrInvalidPlan, planCode)
	}

	reference := Reference(user.UUID, now)
	resp, err := s.gateway.Initialize(ctx, paymentprovider.InitializeRequest{
		Email:       user.Email,
		Amount:      plan.AmountMinor,
		Reference:   reference,
		CallbackURL: s.callback,
		Metadata: map[string]string{
			"user_uid":  user.UUID,
			"plan_code": plan.Code,
		},
	})
	s.metrics.GatewayCall("initialize", err)
	if err != nil {
		log.Error("gateway initialize failed", sl.Err(err))
		return nil, fmt.Errorf("%s: %w: %w", op, apperrors.ErrGatewayInit, err)
	}

	err = s.pending.Save(ctx, sessionID, models.PendingTransaction{
		Reference: reference,
		PlanCode:  plan.Code,
		Amount:    plan.AmountMinor,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("payment initiated", slog.String("reference", reference), slog.String("plan", plan.Code))
	return &InitiateResult{AuthorizationURL: resp.Data.AuthorizationURL, Reference: reference}, nil
}

// HandleCallback подтверждает оплату после возврата пользователя со страницы
// шлюза. Незавершённая оплата сессии удаляется при любом исходе.
// Повторный callback с уже учтённым reference подписку не продлевает.
func (s *Service) HandleCallback(ctx context.Context, user *models.User, sessionID, reference string, now time.Time) (*CallbackResult, error) {
	const op = "subscription.HandleCallback"
	log := s.log.With(slog.String("op", op), sl.User(user.UUID), slog.String("reference", reference))

	defer func() {
		if err := s.pending.Delete(context.WithoutCancel(ctx), sessionID); err != nil {
			log.Warn("failed to clear pending transaction", sl.Err(err))
		}
	}()

	if reference != "" && ownsReference(user.UUID, reference) {
		exists, err := s.repo.PaymentExists(ctx, reference)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if exists {
			log.Info("payment already applied")
			return &CallbackResult{Reference: reference, AlreadyApplied: true}, nil
		}
	}

	pending, err := s.pending.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if reference == "" || pending == nil || pending.Reference != reference {
		log.Warn("callback reference does not match pending transaction")
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrInvalidReference)
	}

	plan, ok := s.byCode[pending.PlanCode]
	if !ok {
		return nil, fmt.Errorf("%s: %w: %q", op, apperrors.ErrInvalidPlan, pending.PlanCode)
	}

	tx, err := s.gateway.Verify(ctx, reference)
	s.metrics.GatewayCall("verify", err)
	if err != nil {
		log.Error("gateway verify failed", sl.Err(err))
		return nil, fmt.Errorf("%s: %w: %w", op, apperrors.ErrVerificationFailed, err)
	}
	if !tx.Succeeded() {
		log.Warn("payment not successful", slog.String("status", tx.Status))
		return nil, fmt.Errorf("%s: %w: status %q", op, apperrors.ErrVerificationFailed, tx.Status)
	}
	if tx.Amount != 0 && tx.Amount < pending.Amount {
		log.Warn("paid amount below plan price", slog.Int64("paid", tx.Amount), slog.Int64("expected", pending.Amount))
		return nil, fmt.Errorf("%s: %w: amount %d", op, apperrors.ErrVerificationFailed, tx.Amount)
	}

	return s.activate(ctx, log, user.UUID, plan, reference, pending.Amount, SourceCallback, now)
}

// ConfirmWebhook обрабатывает событие шлюза с уже проверенной подписью.
// Учитываются только события charge.success; для прочих возвращается nil.
func (s *Service) ConfirmWebhook(ctx context.Context, event paymentprovider.WebhookEvent, now time.Time) (*CallbackResult, error) {
	const op = "subscription.ConfirmWebhook"
	log := s.log.With(slog.String("op", op), slog.String("event", event.Event), slog.String("reference", event.Data.Reference))

	if event.Event != paymentprovider.EventChargeSuccess {
		log.Debug("webhook event ignored")
		return nil, nil
	}
	if !event.Data.Succeeded() {
		return nil, fmt.Errorf("%s: %w: status %q", op, apperrors.ErrVerificationFailed, event.Data.Status)
	}

	userUID := event.Data.MetadataValue("user_uid")
	reference := event.Data.Reference
	if userUID == "" || reference == "" || !ownsReference(userUID, reference) {
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrInvalidReference)
	}
	plan, ok := s.byCode[event.Data.MetadataValue("plan_code")]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrInvalidPlan)
	}
	if event.Data.Amount < plan.AmountMinor {
		return nil, fmt.Errorf("%s: %w: amount %d", op, apperrors.ErrVerificationFailed, event.Data.Amount)
	}

	return s.activate(ctx, log.With(sl.User(userUID)), userUID, plan, reference, event.Data.Amount, SourceWebhook, now)
}

func (s *Service) activate(ctx context.Context, log *slog.Logger, userUID string, plan config.Plan,
	reference string, amount int64, source string, now time.Time) (*CallbackResult, error) {
	const op = "subscription.activate"

	now = now.UTC()
	act := models.SubscriptionActivation{
		Reference: reference,
		UserUID:   userUID,
		PlanCode:  plan.Code,
		Amount:    amount,
		Start:     now,
		End:       now.AddDate(0, 0, plan.DurationDays),
	}
	applied, err := s.repo.ActivateSubscription(ctx, act)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !applied {
		log.Info("payment already applied")
		return &CallbackResult{Reference: reference, PlanCode: plan.Code, AlreadyApplied: true}, nil
	}

	s.metrics.Activated(source)
	log.Info("subscription activated", slog.String("plan", plan.Code), slog.Time("end", act.End))
	s.publish(ctx, log, rabbitmq.RoutingSubscriptionActivated, ActivatedEvent{
		UserUID:         userUID,
		PlanCode:        plan.Code,
		Reference:       reference,
		Amount:          amount,
		Source:          source,
		SubscriptionEnd: act.End,
	})
	return &CallbackResult{Reference: reference, PlanCode: plan.Code, SubscriptionEnd: act.End}, nil
}

// UploadReceipt сохраняет квитанцию о переводе для ручной проверки.
func (s *Service) UploadReceipt(ctx context.Context, user *models.User, up Upload, now time.Time) (*models.PaymentReceipt, error) {
	const op = "subscription.UploadReceipt"
	log := s.log.With(slog.String("op", op), sl.User(user.UUID))

	name := cleanFilename(up.Filename)
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
	if !allowedExtensions[ext] {
		return nil, fmt.Errorf("%s: %w: %q", op, apperrors.ErrInvalidFileType, up.Filename)
	}

	plan, ok := s.byCode[up.PlanType]
	if !ok {
		return nil, fmt.Errorf("%s: %w: %q", op, apperrors.ErrInvalidPlan, up.PlanType)
	}
	expected := decimal.NewFromFloat(plan.ManualAmount)
	if up.AmountPaid.LessThan(expected) {
		return nil, fmt.Errorf("%s: %w: %s < %s", op, apperrors.ErrInsufficientAmount, up.AmountPaid, expected)
	}

	now = now.UTC()
	filename := fmt.Sprintf("%s_%s_%s", user.UUID, now.Format("20060102_150405"), name)
	key := path.Join("receipts", filename)
	if err := s.files.Save(ctx, key, up.Body, up.ContentType); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	receipt := models.PaymentReceipt{
		UserUID:     user.UUID,
		Filename:    filename,
		FilePath:    key,
		PlanType:    plan.Code,
		AmountPaid:  up.AmountPaid,
		PaymentDate: up.PaymentDate.UTC(),
		Status:      models.ReceiptPending,
		UploadedAt:  now,
	}
	id, err := s.repo.CreateReceipt(ctx, receipt)
	if err != nil {
		if delErr := s.files.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			log.Warn("failed to remove orphaned receipt file", slog.String("key", key), sl.Err(delErr))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	receipt.ID = id

	log.Info("receipt uploaded", slog.Int64("receipt_id", id), slog.String("plan", plan.Code))
	s.publish(ctx, log, rabbitmq.RoutingReceiptUploaded, ReceiptUploadedEvent{
		ReceiptID:  id,
		UserUID:    user.UUID,
		PlanType:   plan.Code,
		AmountPaid: up.AmountPaid,
		Filename:   filename,
	})
	return &receipt, nil
}

// ListReceipts возвращает квитанции пользователя, новые первыми.
func (s *Service) ListReceipts(ctx context.Context, userUID string) ([]models.PaymentReceipt, error) {
	const op = "subscription.ListReceipts"
	receipts, err := s.repo.ListReceipts(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if receipts == nil {
		receipts = []models.PaymentReceipt{}
	}
	return receipts, nil
}

// Status состояние подписки пользователя.
type Status struct {
	IsSubscribed     bool       `json:"is_subscribed"`
	SubscriptionPlan string     `json:"subscription_plan,omitempty"`
	SubscriptionEnd  *time.Time `json:"subscription_end,omitempty"`
	IsTrialActive    bool       `json:"is_trial_active"`
	TrialEnd         *time.Time `json:"trial_end,omitempty"`
	CanInteract      bool       `json:"can_interact"`
	ShowBanner       bool       `json:"show_banner"`
}

// StatusOf описывает подписку и пробный период user на момент now.
func StatusOf(user *models.User, now time.Time) Status {
	st := access.State(user, now)
	return Status{
		IsSubscribed:     st.SubscriptionActive,
		SubscriptionPlan: user.SubscriptionPlan,
		SubscriptionEnd:  user.SubscriptionEnd,
		IsTrialActive:    st.TrialActive,
		TrialEnd:         user.TrialEnd,
		CanInteract:      st.CanInteract(),
		ShowBanner:       st.ShouldShowBanner(),
	}
}

func (s *Service) publish(ctx context.Context, log *slog.Logger, routingKey string, msg any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, routingKey, msg); err != nil {
		log.Warn("failed to publish event", slog.String("routing_key", routingKey), sl.Err(err))
	}
}

// cleanFilename оставляет от имени файла клиента только безопасное базовое имя.
func cleanFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = sanitize.String(name, filenameMaxLen)
	name = strings.Map(func(r rune) rune {
		switch {
		case r == ' ' || r == '/' || r == ':':
			return '_'
		case r < 0x20:
			return -1
		}
		return r
	}, name)
	if name == "." || name == "/" {
		return ""
	}
	return name
}
