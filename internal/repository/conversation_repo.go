package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"panel-admin/internal/domain"
)

// ConversationAppend describe una escritura incremental sobre una conversacion.
// Phone nil conserva el telefono almacenado.
type ConversationAppend struct {
	Phone     *string
	Messages  []domain.MessageRecord
	UpdatedAt time.Time
}

type ConversationRepository interface {
	Save(ctx context.Context, conv domain.Conversation) (domain.Conversation, error)
	AppendMessages(ctx context.Context, id string, patch ConversationAppend) (domain.Conversation, error)
	GetByID(ctx context.Context, id string) (domain.Conversation, error)
	GetLatestBySessionID(ctx context.Context, sessionID string) (domain.Conversation, error)
	List(ctx context.Context, limit, offset int) ([]domain.Conversation, error)
	ListByPhone(ctx context.Context, phone string) ([]domain.Conversation, error)
	CountByPhones(ctx context.Context, phones []string) (map[string]int, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type PgConversationRepository struct {
	pool *pgxpool.Pool
}

func NewPgConversationRepository(pool *pgxpool.Pool) *PgConversationRepository {
	return &PgConversationRepository{pool: pool}
}

const conversationColumns = `id, session_id, phone, messages, created_at, updated_at`

// Save inserta o reemplaza la conversacion; created_at del primer insert se conserva.
func (r *PgConversationRepository) Save(ctx context.Context, conv domain.Conversation) (domain.Conversation, error) {
	const query = `
		INSERT INTO conversations (id, session_id, phone, messages, created_at, updated_at)
		VALUES ($1, $2, $3, $4::jsonb, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			session_id = EXCLUDED.session_id,
			phone = EXCLUDED.phone,
			messages = EXCLUDED.messages,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + conversationColumns

	messages, err := encodeMessages(conv.Messages)
	if err != nil {
		return domain.Conversation{}, err
	}
	row := r.pool.QueryRow(ctx, query,
		conv.ID,
		conv.SessionID,
		conv.Phone,
		messages,
		conv.CreatedAt,
		conv.UpdatedAt,
	)
	return scanConversation(row)
}

// AppendMessages concatena mensajes en una sola sentencia para no perder
// escrituras concurrentes. Devuelve pgx.ErrNoRows si el id no existe.
func (r *PgConversationRepository) AppendMessages(ctx context.Context, id string, patch ConversationAppend) (domain.Conversation, error) {
	const query = `
		UPDATE conversations
		SET messages = messages || $2::jsonb,
			phone = COALESCE($3, phone),
			updated_at = $4
		WHERE id = $1
		RETURNING ` + conversationColumns

	messages, err := encodeMessages(patch.Messages)
	if err != nil {
		return domain.Conversation{}, err
	}
	row := r.pool.QueryRow(ctx, query, id, messages, patch.Phone, patch.UpdatedAt)
	return scanConversation(row)
}

func (r *PgConversationRepository) GetByID(ctx context.Context, id string) (domain.Conversation, error) {
	const query = `SELECT ` + conversationColumns + ` FROM conversations WHERE id = $1`
	return scanConversation(r.pool.QueryRow(ctx, query, id))
}

func (r *PgConversationRepository) GetLatestBySessionID(ctx context.Context, sessionID string) (domain.Conversation, error) {
	const query = `
		SELECT ` + conversationColumns + `
		FROM conversations
		WHERE session_id = $1
		ORDER BY seq DESC
		LIMIT 1
	`
	return scanConversation(r.pool.QueryRow(ctx, query, sessionID))
}

func (r *PgConversationRepository) List(ctx context.Context, limit, offset int) ([]domain.Conversation, error) {
	const query = `
		SELECT ` + conversationColumns + `
		FROM conversations
		ORDER BY seq DESC
		LIMIT $1 OFFSET $2
	`
	return r.queryConversations(ctx, query, limit, offset)
}

// ListByPhone compara por igualdad exacta y respeta el orden de insercion.
func (r *PgConversationRepository) ListByPhone(ctx context.Context, phone string) ([]domain.Conversation, error) {
	const query = `
		SELECT ` + conversationColumns + `
		FROM conversations
		WHERE phone = $1
		ORDER BY seq ASC
	`
	return r.queryConversations(ctx, query, phone)
}

// CountByPhones cuenta conversaciones por telefono canonico sin leer los mensajes.
// Los telefonos sin conversaciones no aparecen en el resultado.
func (r *PgConversationRepository) CountByPhones(ctx context.Context, phones []string) (map[string]int, error) {
	counts := make(map[string]int, len(phones))
	if len(phones) == 0 {
		return counts, nil
	}
	const query = `
		SELECT phone, count(*)
		FROM conversations
		WHERE phone = ANY($1)
		GROUP BY phone
	`
	rows, err := r.pool.Query(ctx, query, phones)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			phone string
			count int64
		)
		if err := rows.Scan(&phone, &count); err != nil {
			return nil, err
		}
		counts[phone] = int(count)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}

func (r *PgConversationRepository) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM conversations WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PgConversationRepository) queryConversations(ctx context.Context, query string, args ...any) ([]domain.Conversation, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	convs := []domain.Conversation{}
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		convs = append(convs, conv)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return convs, nil
}

func scanConversation(row pgx.Row) (domain.Conversation, error) {
	var (
		conv domain.Conversation
		raw  []byte
	)
	err := row.Scan(
		&conv.ID,
		&conv.SessionID,
		&conv.Phone,
		&raw,
		&conv.CreatedAt,
		&conv.UpdatedAt,
	)
	if err != nil {
		return domain.Conversation{}, err
	}
	conv.Messages, err = decodeMessages(raw)
	return conv, err
}

func encodeMessages(msgs []domain.MessageRecord) ([]byte, error) {
	if msgs == nil {
		msgs = []domain.MessageRecord{}
	}
	return json.Marshal(msgs)
}

func decodeMessages(raw []byte) ([]domain.MessageRecord, error) {
	msgs := []domain.MessageRecord{}
	if len(raw) == 0 {
		return msgs, nil
	}
	if err := json.Unmarshal(raw, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}
