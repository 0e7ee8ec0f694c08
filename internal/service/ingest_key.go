package service

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var ErrIngestKeyInvalid = errors.New("ingest key invalid")

// IngestKeyVerifier compara la clave compartida de la integracion contra un hash bcrypt.
// Sin hash configurado la ingesta queda abierta.
type IngestKeyVerifier struct {
	hash []byte
}

func NewIngestKeyVerifier(hash string) *IngestKeyVerifier {
	return &IngestKeyVerifier{hash: []byte(strings.TrimSpace(hash))}
}

func (v *IngestKeyVerifier) Enabled() bool {
	return v != nil && len(v.hash) > 0
}

func (v *IngestKeyVerifier) Verify(key string) error {
	if !v.Enabled() {
		return nil
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrIngestKeyInvalid
	}
	if err := bcrypt.CompareHashAndPassword(v.hash, []byte(key)); err != nil {
		return ErrIngestKeyInvalid
	}
	return nil
}
