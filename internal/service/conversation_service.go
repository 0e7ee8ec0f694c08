package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"panel-admin/internal/domain"
	"panel-admin/internal/phone"
	"panel-admin/internal/repository"
)

const (
	defaultConversationLimit = 50
	maxConversationLimit     = 200
)

var (
	ErrConversationServiceNotConfigured = errors.New("conversation service not configured")
	ErrConversationNotFound             = errors.New("conversation not found")
	ErrConversationInvalidInput         = errors.New("conversation invalid input")
)

// StorageError envuelve una falla del almacenamiento. No se reintenta aqui.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("conversation storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IngestInput es el payload de la integracion de mensajeria.
type IngestInput struct {
	SessionID string
	Phone     string
	Messages  []domain.MessageRecord
}

type ListOptions struct {
	Limit  int
	Offset int
}

// ConversationService es el unico punto de escritura de conversaciones: todo
// telefono pasa por el normalizador antes de persistirse.
type ConversationService struct {
	repo       repository.ConversationRepository
	normalizer *phone.Normalizer
	now        func() time.Time
}

func NewConversationService(repo repository.ConversationRepository, normalizer *phone.Normalizer) *ConversationService {
	if normalizer == nil {
		normalizer = phone.NewNormalizer()
	}
	return &ConversationService{
		repo:       repo,
		normalizer: normalizer,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// NormalizePhone expone el normalizador configurado a quienes correlacionan datos.
func (s *ConversationService) NormalizePhone(raw string) string {
	if s == nil {
		return phone.Normalize(raw)
	}
	return s.normalizer.Normalize(raw)
}

// Save persiste conv normalizando el telefono en cada escritura, no solo en la primera.
func (s *ConversationService) Save(ctx context.Context, conv domain.Conversation) (domain.Conversation, error) {
	if s == nil || s.repo == nil {
		return domain.Conversation{}, ErrConversationServiceNotConfigured
	}

	conv.Phone = s.normalizer.Normalize(conv.Phone)
	conv.SessionID = strings.TrimSpace(conv.SessionID)
	if conv.Messages == nil {
		conv.Messages = []domain.MessageRecord{}
	}
	now := s.now()
	if conv.ID == "" {
		conv.ID = uuid.NewString()
	}
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = now
	}
	conv.UpdatedAt = now

	saved, err := s.repo.Save(ctx, conv)
	if err != nil {
		return domain.Conversation{}, &StorageError{Op: "save", Err: err}
	}
	return saved, nil
}

// AppendMessages agrega mensajes a una conversacion existente. Un telefono no
// vacio se normaliza por el mismo camino que Save.
func (s *ConversationService) AppendMessages(ctx context.Context, id, rawPhone string, msgs []domain.MessageRecord) (domain.Conversation, error) {
	if s == nil || s.repo == nil {
		return domain.Conversation{}, ErrConversationServiceNotConfigured
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Conversation{}, ErrConversationNotFound
	}

	patch := repository.ConversationAppend{
		Messages:  msgs,
		UpdatedAt: s.now(),
	}
	if patch.Messages == nil {
		patch.Messages = []domain.MessageRecord{}
	}
	if canonical := s.normalizer.Normalize(rawPhone); canonical != "" {
		patch.Phone = &canonical
	}

	conv, err := s.repo.AppendMessages(ctx, id, patch)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Conversation{}, ErrConversationNotFound
	}
	if err != nil {
		return domain.Conversation{}, &StorageError{Op: "append", Err: err}
	}
	return conv, nil
}

// Ingest agrega a la conversacion mas reciente de la sesion o crea una nueva.
// Devuelve created=true cuando se inserto un registro.
func (s *ConversationService) Ingest(ctx context.Context, in IngestInput) (domain.Conversation, bool, error) {
	if s == nil || s.repo == nil {
		return domain.Conversation{}, false, ErrConversationServiceNotConfigured
	}
	if len(in.Messages) == 0 {
		return domain.Conversation{}, false, ErrConversationInvalidInput
	}

	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID != "" {
		existing, err := s.repo.GetLatestBySessionID(ctx, sessionID)
		switch {
		case err == nil:
			conv, err := s.AppendMessages(ctx, existing.ID, in.Phone, in.Messages)
			return conv, false, err
		case !errors.Is(err, pgx.ErrNoRows):
			return domain.Conversation{}, false, &StorageError{Op: "lookup session", Err: err}
		}
	}

	conv, err := s.Save(ctx, domain.Conversation{
		SessionID: sessionID,
		Phone:     in.Phone,
		Messages:  in.Messages,
	})
	if err != nil {
		return domain.Conversation{}, false, err
	}
	return conv, true, nil
}

// FindByPhone normaliza rawPhone y compara por igualdad exacta, en orden de creacion.
func (s *ConversationService) FindByPhone(ctx context.Context, rawPhone string) ([]domain.Conversation, error) {
	if s == nil || s.repo == nil {
		return nil, ErrConversationServiceNotConfigured
	}
	canonical := s.normalizer.Normalize(rawPhone)
	// "" no es una identidad: no se devuelven las conversaciones sin telefono.
	if canonical == "" {
		return []domain.Conversation{}, nil
	}
	convs, err := s.repo.ListByPhone(ctx, canonical)
	if err != nil {
		return nil, &StorageError{Op: "find by phone", Err: err}
	}
	if convs == nil {
		convs = []domain.Conversation{}
	}
	return convs, nil
}

// CountByPhones normaliza cada telefono y cuenta conversaciones por clave canonica.
// El resultado esta indexado por telefono canonico; las claves vacias se ignoran.
func (s *ConversationService) CountByPhones(ctx context.Context, rawPhones []string) (map[string]int, error) {
	if s == nil || s.repo == nil {
		return nil, ErrConversationServiceNotConfigured
	}
	seen := make(map[string]struct{}, len(rawPhones))
	keys := make([]string, 0, len(rawPhones))
	for _, raw := range rawPhones {
		canonical := s.normalizer.Normalize(raw)
		if canonical == "" {
			continue
		}
		if _, ok := seen[canonical]; ok {
			continue
		}
		seen[canonical] = struct{}{}
		keys = append(keys, canonical)
	}
	if len(keys) == 0 {
		return map[string]int{}, nil
	}
	counts, err := s.repo.CountByPhones(ctx, keys)
	if err != nil {
		return nil, &StorageError{Op: "count by phone", Err: err}
	}
	if counts == nil {
		counts = map[string]int{}
	}
	return counts, nil
}

func (s *ConversationService) GetByID(ctx context.Context, id string) (domain.Conversation, error) {
	if s == nil || s.repo == nil {
		return domain.Conversation{}, ErrConversationServiceNotConfigured
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Conversation{}, ErrConversationNotFound
	}
	conv, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Conversation{}, ErrConversationNotFound
	}
	if err != nil {
		return domain.Conversation{}, &StorageError{Op: "get", Err: err}
	}
	return conv, nil
}

func (s *ConversationService) List(ctx context.Context, opts ListOptions) ([]domain.Conversation, error) {
	if s == nil || s.repo == nil {
		return nil, ErrConversationServiceNotConfigured
	}
	limit, offset := clampPage(opts.Limit, opts.Offset, defaultConversationLimit, maxConversationLimit)
	convs, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, &StorageError{Op: "list", Err: err}
	}
	if convs == nil {
		convs = []domain.Conversation{}
	}
	return convs, nil
}

// Delete borra la conversacion. Un id inexistente devuelve ErrConversationNotFound.
func (s *ConversationService) Delete(ctx context.Context, id string) error {
	if s == nil || s.repo == nil {
		return ErrConversationServiceNotConfigured
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrConversationNotFound
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return &StorageError{Op: "delete", Err: err}
	}
	if !deleted {
		return ErrConversationNotFound
	}
	return nil
}

func clampPage(limit, offset, def, maxLimit int) (int, int) {
	if limit <= 0 {
		limit = def
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
