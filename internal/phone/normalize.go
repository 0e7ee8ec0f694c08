package phone

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// WhatsAppSuffix es el sufijo de JID que agrega la integracion de mensajeria.
const WhatsAppSuffix = "@s.whatsapp.net"

// Normalizer convierte identificadores de telefono a su forma canonica (solo digitos).
// Es inmutable y seguro para uso concurrente.
type Normalizer struct {
	suffixes []string
}

var defaultNormalizer = NewNormalizer(WhatsAppSuffix)

// NewNormalizer crea un Normalizer que elimina a lo sumo uno de los sufijos
// indicados, solo cuando aparece al final del valor. Sin sufijos validos se
// usa WhatsAppSuffix.
func NewNormalizer(suffixes ...string) *Normalizer {
	clean := make([]string, 0, len(suffixes))
	for _, s := range suffixes {
		s = strings.TrimSpace(s)
		if s != "" {
			clean = append(clean, s)
		}
	}
	if len(clean) == 0 {
		clean = append(clean, WhatsAppSuffix)
	}
	return &Normalizer{suffixes: clean}
}

// Suffixes devuelve una copia de los sufijos configurados.
func (n *Normalizer) Suffixes() []string {
	out := make([]string, len(n.suffixes))
	copy(out, n.suffixes)
	return out
}

// Normalize quita el sufijo de red y descarta todo lo que no sea 0-9.
func (n *Normalizer) Normalize(raw string) string {
	if n == nil {
		n = defaultNormalizer
	}
	for _, suffix := range n.suffixes {
		if strings.HasSuffix(raw, suffix) {
			raw = raw[:len(raw)-len(suffix)]
			break
		}
	}
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		if c := raw[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// NormalizeValue acepta valores sin tipo (por ejemplo JSON decodificado).
// Nunca falla: nil y valores no representables terminan en "".
func (n *Normalizer) NormalizeValue(v any) string {
	return n.Normalize(Coerce(v))
}

// Normalize usa el normalizador por defecto.
func Normalize(raw string) string {
	return defaultNormalizer.Normalize(raw)
}

// NormalizeValue usa el normalizador por defecto.
func NormalizeValue(v any) string {
	return defaultNormalizer.NormalizeValue(v)
}

// IsCanonical indica si s contiene solo digitos decimales. "" es canonico.
func IsCanonical(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Coerce convierte v en texto sin normalizar. nil produce "".
func Coerce(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case *string:
		if val == nil {
			return ""
		}
		return *val
	case []byte:
		return string(val)
	case int:
		return strconv.Itoa(val)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint:
		return strconv.FormatUint(uint64(val), 10)
	case uint32:
		return strconv.FormatUint(uint64(val), 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case float64:
		// 'f' evita notacion exponencial (5.5e+09) que romperia los digitos.
		return strconv.FormatFloat(val, 'f', -1, 64)
	case fmt.Stringer:
		return safeString(val)
	}
	// un documento o una lista no es un telefono; fmt.Sprint mezclaria sus digitos.
	switch reflect.ValueOf(v).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		return ""
	}
	return fmt.Sprint(v)
}

func safeString(s fmt.Stringer) (out string) {
	defer func() {
		if recover() != nil {
			out = ""
		}
	}()
	return s.String()
}
