package inventory

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the field-level invariants of an item
// 商品のフィールド不変条件を検証
func (i Item) Validate() error {
	if err := ValidateItemName(i.Name); err != nil {
		return err
	}
	if err := validateStruct(i); err != nil {
		return err
	}
	if err := ValidateMoney("unit_cost", i.UnitCost); err != nil {
		return err
	}
	return ValidateMoney("unit_price", i.UnitPrice)
}

// Validate checks the field-level invariants of a transaction
// トランザクションのフィールド不変条件を検証
func (t Transaction) Validate() error {
	if t.Qty <= 0 {
		return newRuleViolation(ErrNonPositiveQuantity, "qty", fmt.Sprintf("%d", t.Qty))
	}
	return validateStruct(t)
}

// validateStruct runs the struct tags and reports the first failure as a ValidationError
func validateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return NewValidationError("", err.Error(), "")
	}
	fe := fieldErrs[0]
	return NewValidationError(jsonFieldName(fe.Field()), ruleMessage(fe), fmt.Sprintf("%v", fe.Value()))
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "必須項目です"
	case "gte":
		return fmt.Sprintf("%s以上である必要があります", fe.Param())
	case "gt":
		return fmt.Sprintf("%sより大きい必要があります", fe.Param())
	case "oneof":
		return fmt.Sprintf("次のいずれかである必要があります: %s", fe.Param())
	}
	return fmt.Sprintf("ルール %s を満たしていません", fe.Tag())
}

var jsonNames = map[string]string{
	"ID":           "id",
	"Name":         "name",
	"StockQty":     "stock_qty",
	"ReorderLevel": "reorder_level",
	"Type":         "type",
	"SKU":          "sku",
	"Qty":          "qty",
}

func jsonFieldName(field string) string {
	if name, ok := jsonNames[field]; ok {
		return name
	}
	return strings.ToLower(field)
}

const maxNameLength = 500 // 文字数

// ValidateItemName 商品名をバリデーション
func ValidateItemName(name string) error {
	if strings.TrimSpace(name) == "" {
		return NewValidationError("name", "商品名が空です", name)
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return NewValidationError("name", "商品名が長すぎます", name)
	}
	return nil
}

// ValidateItemID 商品IDの形式をバリデーション
func ValidateItemID(itemID string) error {
	if itemID == "" {
		return NewValidationError("id", "商品IDが空です", itemID)
	}
	if len(itemID) > 255 {
		return NewValidationError("id", "商品IDが長すぎます", itemID)
	}
	if strings.ContainsAny(itemID, " \t\r\n") {
		return NewValidationError("id", "商品IDに空白を含めることはできません", itemID)
	}
	return nil
}

// ValidateMoney 単価をバリデーション（未設定は許可）
func ValidateMoney(field string, amount *decimal.Decimal) error {
	if amount == nil {
		return nil
	}
	if amount.IsNegative() {
		return NewValidationError(field, "0以上である必要があります", amount.String())
	}
	return nil
}

// ValidateQuantity 移動数量をバリデーション
func ValidateQuantity(quantity int64) error {
	if quantity <= 0 {
		return newRuleViolation(ErrNonPositiveQuantity, "qty", fmt.Sprintf("%d", quantity))
	}
	return nil
}

// ValidateDelimiter CSV区切り文字をバリデーション
func ValidateDelimiter(delimiter string) error {
	if _, ok := singleDelimiter(delimiter); !ok {
		return NewValidationError("csv_delimiter", "区切り文字は1文字である必要があります", delimiter)
	}
	return nil
}

// singleDelimiter accepts exactly one character that encoding/csv can use as a separator
func singleDelimiter(s string) (rune, bool) {
	if utf8.RuneCountInString(s) != 1 {
		return 0, false
	}
	r, _ := utf8.DecodeRuneInString(s)
	if r == 0 || r == '"' || r == '\r' || r == '\n' || !utf8.ValidRune(r) || r == utf8.RuneError {
		return 0, false
	}
	return r, true
}

// NameKey normalizes a name for case-insensitive uniqueness checks
// 重複判定用に商品名を正規化
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
