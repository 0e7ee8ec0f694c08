package domain

import "time"

// InfoUser es un contacto registrado por la integracion de mensajeria.
// Phone se guarda tal cual llega y no esta garantizado que sea canonico.
type InfoUser struct {
	ID        string         `json:"id"`
	Name      string         `json:"name,omitempty"`
	Phone     string         `json:"phone"`
	Data      map[string]any `json:"data,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
