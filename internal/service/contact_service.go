package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"panel-admin/internal/domain"
	"panel-admin/internal/repository"
)

const (
	defaultInfoUserLimit = 100
	maxInfoUserLimit     = 500
)

var (
	ErrContactServiceNotConfigured = errors.New("contact service not configured")
	ErrInfoUserNotFound            = errors.New("info user not found")
)

// InfoUserSummary es un contacto con su telefono canonico y las conversaciones asociadas.
type InfoUserSummary struct {
	domain.InfoUser
	CanonicalPhone    string `json:"canonical_phone"`
	ConversationCount int    `json:"conversation_count"`
}

// ContactService correlaciona InfoUsers con conversaciones del lado del consumidor:
// normaliza el telefono del contacto y consulta el store por igualdad.
type ContactService struct {
	logger        *zap.Logger
	users         repository.InfoUserRepository
	conversations *ConversationService
}

func NewContactService(logger *zap.Logger, users repository.InfoUserRepository, conversations *ConversationService) *ContactService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContactService{logger: logger, users: users, conversations: conversations}
}

func (s *ContactService) ListWithConversations(ctx context.Context, opts ListOptions) ([]InfoUserSummary, error) {
	if s == nil || s.users == nil || s.conversations == nil {
		return nil, ErrContactServiceNotConfigured
	}
	limit, offset := clampPage(opts.Limit, opts.Offset, defaultInfoUserLimit, maxInfoUserLimit)
	users, err := s.users.List(ctx, limit, offset)
	if err != nil {
		return nil, &StorageError{Op: "list info users", Err: err}
	}

	phones := make([]string, 0, len(users))
	for _, user := range users {
		phones = append(phones, user.Phone)
	}
	counts, err := s.conversations.CountByPhones(ctx, phones)
	if err != nil {
		return nil, err
	}

	out := make([]InfoUserSummary, 0, len(users))
	for _, user := range users {
		canonical := s.conversations.NormalizePhone(user.Phone)
		out = append(out, InfoUserSummary{
			InfoUser:          user,
			CanonicalPhone:    canonical,
			ConversationCount: counts[canonical],
		})
	}
	return out, nil
}

// ConversationsFor devuelve el contacto y sus conversaciones en orden de creacion.
func (s *ContactService) ConversationsFor(ctx context.Context, infoUserID string) (InfoUserSummary, []domain.Conversation, error) {
	if s == nil || s.users == nil || s.conversations == nil {
		return InfoUserSummary{}, nil, ErrContactServiceNotConfigured
	}
	infoUserID = strings.TrimSpace(infoUserID)
	if infoUserID == "" {
		return InfoUserSummary{}, nil, ErrInfoUserNotFound
	}
	user, err := s.users.GetByID(ctx, infoUserID)
	if errors.Is(err, pgx.ErrNoRows) {
		return InfoUserSummary{}, nil, ErrInfoUserNotFound
	}
	if err != nil {
		return InfoUserSummary{}, nil, &StorageError{Op: "get info user", Err: err}
	}

	canonical := s.conversations.NormalizePhone(user.Phone)
	convs, err := s.conversations.FindByPhone(ctx, canonical)
	if err != nil {
		return InfoUserSummary{}, nil, err
	}
	if canonical == "" {
		s.logger.Debug("info user without phone", zap.String("info_user_id", user.ID))
	}
	return InfoUserSummary{
		InfoUser:          user,
		CanonicalPhone:    canonical,
		ConversationCount: len(convs),
	}, convs, nil
}
