package inventory

import (
	"errors"
	"fmt"
)

// Common inventory errors
// 共通の在庫エラー定義

var (
	// ErrItemNotFound is matched by every NotFoundError for an item
	// 商品が存在しない場合のエラー
	ErrItemNotFound = errors.New("商品が見つかりません")

	// ErrDuplicateName is returned when another item already uses the name
	// 同名の商品が既に存在する場合のエラー
	ErrDuplicateName = errors.New("同名の商品が既に存在します")

	// ErrDuplicateID is returned when the item ID is already taken
	// 商品IDが既に使用されている場合のエラー
	ErrDuplicateID = errors.New("商品IDは既に存在します")

	// ErrInsufficientStock is returned when a stock out would make the quantity negative
	// 在庫不足の場合のエラー
	ErrInsufficientStock = errors.New("在庫が不足しています")

	// ErrNonPositiveQuantity is returned when a movement quantity is not greater than zero
	// 数量が正でない場合のエラー
	ErrNonPositiveQuantity = errors.New("数量は正の値である必要があります")

	// ErrNoChange is returned when an adjustment leaves the quantity unchanged
	// 調整による変化がない場合のエラー
	ErrNoChange = errors.New("数量に変化がありません")

	// ErrCascadeRequired is returned when deleting an item with history without confirmation
	// 履歴のある商品を確認なしで削除しようとした場合のエラー
	ErrCascadeRequired = errors.New("取引履歴のある商品の削除には確認が必要です")

	// ErrStoreLocked is returned when another process holds the data directory
	// データディレクトリが他のプロセスに使用されている場合のエラー
	ErrStoreLocked = errors.New("データディレクトリは別のプロセスが使用中です")
)

// ValidationError represents a validation error with details
// 詳細付きバリデーションエラーを表現
type ValidationError struct {
	Field   string `json:"field"`   // エラーフィールド
	Message string `json:"message"` // エラーメッセージ
	Value   string `json:"value"`   // 無効な値
	Cause   error  `json:"-"`       // 対応するセンチネルエラー
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("バリデーションエラー [%s]: %s (値: %s)", e.Field, e.Message, e.Value)
}

func (e ValidationError) Unwrap() error {
	return e.Cause
}

// NotFoundError represents a reference to a record that does not exist
// 存在しないレコードへの参照を表現
type NotFoundError struct {
	Resource string `json:"resource"` // リソース種別
	ID       string `json:"id"`       // 参照ID
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%sが見つかりません: %s", e.Resource, e.ID)
}

func (e NotFoundError) Is(target error) bool {
	return target == ErrItemNotFound && e.Resource == ResourceItem
}

// ConflictError represents an operation that needs explicit confirmation
// 明示的な確認が必要な操作を表現
type ConflictError struct {
	Rule    string `json:"rule"`    // ルール名
	Message string `json:"message"` // エラーメッセージ
	Context string `json:"context"` // コンテキスト情報
	Cause   error  `json:"-"`
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("確認が必要です [%s]: %s (コンテキスト: %s)", e.Rule, e.Message, e.Context)
}

func (e ConflictError) Unwrap() error {
	return e.Cause
}

// PersistenceError represents a failure of the durable store
// 永続化層のエラーを表現
type PersistenceError struct {
	Operation string `json:"operation"` // 操作名
	Message   string `json:"message"`   // エラーメッセージ
	Cause     error  `json:"cause"`     // 原因エラー
}

func (e PersistenceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("永続化エラー [%s]: %s (原因: %v)", e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("永続化エラー [%s]: %s", e.Operation, e.Message)
}

func (e PersistenceError) Unwrap() error {
	return e.Cause
}

// ResourceItem names items in NotFoundError
const ResourceItem = "商品"

// NewValidationError creates a new validation error
// 新しいバリデーションエラーを作成
func NewValidationError(field, message, value string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// newRuleViolation creates a validation error that also matches the given sentinel
func newRuleViolation(cause error, field, value string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: cause.Error(),
		Value:   value,
		Cause:   cause,
	}
}

// NewNotFoundError creates a new not-found error for an item
// 商品の未検出エラーを作成
func NewNotFoundError(itemID string) *NotFoundError {
	return &NotFoundError{
		Resource: ResourceItem,
		ID:       itemID,
	}
}

// NewConflictError creates a new conflict error
// 新しい確認要求エラーを作成
func NewConflictError(rule, message, context string) *ConflictError {
	return &ConflictError{
		Rule:    rule,
		Message: message,
		Context: context,
	}
}

// NewPersistenceError creates a new persistence error
// 新しい永続化エラーを作成
func NewPersistenceError(operation, message string, cause error) *PersistenceError {
	return &PersistenceError{
		Operation: operation,
		Message:   message,
		Cause:     cause,
	}
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsNotFound reports whether err is a NotFoundError
func IsNotFound(err error) bool {
	var n *NotFoundError
	return errors.As(err, &n)
}

// IsConflict reports whether err is a ConflictError
func IsConflict(err error) bool {
	var c *ConflictError
	return errors.As(err, &c)
}

// IsPersistence reports whether err is a PersistenceError
func IsPersistence(err error) bool {
	var p *PersistenceError
	return errors.As(err, &p)
}
