package domain

import "time"

// MessageRecord es un mensaje de forma libre (tipicamente {type, text|message}).
// El backend no interpreta su contenido.
type MessageRecord map[string]any

// Conversation es la transcripcion de una sesion de chat.
// Phone siempre esta en forma canonica (solo digitos) o vacio.
type Conversation struct {
	ID        string          `json:"id"`
	SessionID string          `json:"session_id,omitempty"`
	Phone     string          `json:"phone"`
	Messages  []MessageRecord `json:"messages"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
