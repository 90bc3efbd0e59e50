package plans

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrUnknownTier = errors.New("unknown plan tier")

// Tier is a subscription plan. Only the declared values are valid.
type Tier string

const (
	Free Tier = "free"
	Pro  Tier = "pro"
)

func ParseTier(s string) (Tier, error) {
	switch Tier(s) {
	case Free, Pro:
		return Tier(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTier, s)
}

func (t Tier) Valid() bool {
	_, err := ParseTier(string(t))
	return err == nil
}

func (t Tier) String() string {
	return string(t)
}

// Scan implements sql.Scanner. Rows carrying a value outside the enum fail to load.
func (t *Tier) Scan(value interface{}) error {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	case nil:
		return fmt.Errorf("%w: null", ErrUnknownTier)
	default:
		return fmt.Errorf("plan tier: unsupported type %T", value)
	}

	parsed, err := ParseTier(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Value implements driver.Valuer
func (t Tier) Value() (driver.Value, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTier, string(t))
	}
	return string(t), nil
}

func (t *Tier) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTier(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
