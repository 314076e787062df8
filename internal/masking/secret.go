// Package masking holds secret-bearing values that must never surface in
// logs, error messages, or debug output. The raw value is reachable only
// through Expose and through JSON marshaling into outbound wire payloads.
package masking

import (
	"encoding/json"
	"fmt"
	"log/slog"
)

const Masked = "*** masked ***"

// Secret wraps a sensitive string.
type Secret struct {
	value string
}

func NewSecret(v string) Secret {
	return Secret{value: v}
}

// Expose returns the raw value.
func (s Secret) Expose() string {
	return s.value
}

func (s Secret) IsEmpty() bool {
	return s.value == ""
}

func (s Secret) String() string {
	return Masked
}

func (s Secret) GoString() string {
	return Masked
}

// Format covers %v, %+v, %#v, %s, %q and friends.
func (s Secret) Format(f fmt.State, verb rune) {
	if verb == 'q' {
		fmt.Fprintf(f, "%q", Masked)
		return
	}
	fmt.Fprint(f, Masked)
}

func (s Secret) LogValue() slog.Value {
	return slog.StringValue(Masked)
}

// MarshalJSON emits the raw value. Only wire payload structs should embed a
// Secret in a JSON-marshaled type.
func (s Secret) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.value)
}

func (s *Secret) UnmarshalJSON(data []byte) error {
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("secret must be a JSON string: %w", err)
	}
	s.value = v
	return nil
}
