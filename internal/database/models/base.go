package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// NewID returns a prefixed opaque identifier such as "user_1a2b3c4d5e6f".
func NewID(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// JSONList stores a slice as a JSON document column
type JSONList[T any] []T

// Scan implements the sql.Scanner interface for reading from database
func (l *JSONList[T]) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("JSONList: expected bytes or string, got %T", value)
	}

	if len(data) == 0 {
		*l = nil
		return nil
	}

	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("JSONList: %w", err)
	}
	*l = out
	return nil
}

// Value implements the driver.Valuer interface for writing to database
func (l JSONList[T]) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]T(l))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (l JSONList[T]) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]T(l))
}

func (JSONList[T]) GormDataType() string {
	return "json"
}

func (JSONList[T]) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "jsonb"
	}
	return "text"
}
