package inventory

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseDecimal parses an optional non-negative amount. Blank input yields nil.
// 任意の金額を解析。空文字はnil
func ParseDecimal(field, s string) (*decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, NewValidationError(field, "数値として解析できません", s)
	}
	if d.IsNegative() {
		return nil, NewValidationError(field, "0以上である必要があります", s)
	}
	return &d, nil
}

// ParseQuantity parses an integer quantity. Blank input yields def. Integral decimals such as "5.0" are accepted.
// 整数数量を解析。空文字はデフォルト値
func ParseQuantity(field, s string, def int64) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, NewValidationError(field, "整数として解析できません", s)
	}
	if !d.IsInteger() {
		return 0, NewValidationError(field, "整数である必要があります", s)
	}
	if !d.BigInt().IsInt64() {
		return 0, NewValidationError(field, "数量が有効範囲を超えています", s)
	}
	return d.IntPart(), nil
}

// OptionalText trims s and returns nil when nothing is left
// 前後の空白を除去し、空ならnilを返す
func OptionalText(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// NormalizeCategory trims the category and applies the default when blank
func NormalizeCategory(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return DefaultCategory
	}
	return s
}

// NormalizeUnit trims the unit and applies the default when blank
func NormalizeUnit(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return DefaultUnit
	}
	return s
}
