package types

import (
	"database/sql/driver"
	"fmt"
	"time"
)

const timeLayout = "15:04"

// TimeString время суток в формате HH:MM
// Хранится в БД как TIME, в JSON как строка "10:30"
type TimeString string

// String возвращает строковое представление времени
func (t TimeString) String() string {
	return string(t)
}

// Validate проверяет, что значение соответствует формату HH:MM
func (t TimeString) Validate() error {
	if _, err := time.Parse(timeLayout, string(t)); err != nil {
		return fmt.Errorf("invalid time format %q, expected HH:MM", string(t))
	}
	return nil
}

// Before возвращает true, если t строго раньше other
// Для времени с ведущими нулями лексикографическое сравнение корректно
func (t TimeString) Before(other TimeString) bool {
	return t < other
}

// Minutes возвращает количество минут с начала суток
func (t TimeString) Minutes() int {
	parsed, err := time.Parse(timeLayout, string(t))
	if err != nil {
		return 0
	}
	return parsed.Hour()*60 + parsed.Minute()
}

// Scan реализует sql.Scanner
// Postgres возвращает TIME как time.Time, []byte или строку "10:30:00"
func (t *TimeString) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*t = ""
		return nil
	case time.Time:
		*t = TimeString(v.Format(timeLayout))
		return nil
	case []byte:
		return t.scanString(string(v))
	case string:
		return t.scanString(v)
	default:
		return fmt.Errorf("cannot scan %T into TimeString", value)
	}
}

func (t *TimeString) scanString(s string) error {
	// Обрезаем секунды, если БД вернула HH:MM:SS
	if len(s) >= 5 {
		s = s[:5]
	}
	parsed := TimeString(s)
	if err := parsed.Validate(); err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Value реализует driver.Valuer
func (t TimeString) Value() (driver.Value, error) {
	if t == "" {
		return nil, nil
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return string(t), nil
}
