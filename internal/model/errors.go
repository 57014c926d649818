// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError はパイプラインの各ステージが返す統一エラー値を表す。
// クライアントにはMessageのみが {"message": ...} 形式で返され、
// CodeはHTTPステータスへのマッピングとログにのみ使用する。
type APIError struct {
	Code    string // エラーコード
	Message string // クライアントに返すメッセージ
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeAuthRequired       = "AUTH_REQUIRED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeMissingBody        = "MISSING_BODY"
	ErrCodeMissingFields      = "MISSING_FIELDS"
	ErrCodeInvalidFields      = "INVALID_FIELDS"
	ErrCodeWeightSumExceeded  = "WEIGHT_SUM_EXCEEDED"
	ErrCodeRetrievalFailed    = "RETRIEVAL_FAILED"
	ErrCodeStorageFailed      = "STORAGE_FAILED"
	ErrCodeUsernameTaken      = "USERNAME_TAKEN"
)

// NewAuthRequiredError はセッション不在・無効時のエラーを生成する。
// メッセージは既存クライアントとの互換性のため固定（変更不可）。
func NewAuthRequiredError() *APIError {
	return &APIError{
		Code:    ErrCodeAuthRequired,
		Message: "You're not allowed in here!",
	}
}

// NewInvalidCredentialsError は認証情報不一致のエラーを生成する。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:    ErrCodeInvalidCredentials,
		Message: "Invalid credentials",
	}
}

// NewNotFoundError はパスIDがエンティティに解決できない場合のエラーを生成する。
// resourceには"user category"のような表示名を渡す。
func NewNotFoundError(resource string) *APIError {
	return &APIError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("The %s with the specified ID does not exist.", resource),
	}
}

// NewMissingBodyError はリクエストボディが空の場合のエラーを生成する。
func NewMissingBodyError(resource string) *APIError {
	return &APIError{
		Code:    ErrCodeMissingBody,
		Message: fmt.Sprintf("missing %s data", resource),
	}
}

// NewMissingFieldsError は必須フィールド欠落のエラーを生成する。
// fieldsには"category_id and/or weight"のような欠落フィールドの列挙を渡す。
func NewMissingFieldsError(fields string) *APIError {
	return &APIError{
		Code:    ErrCodeMissingFields,
		Message: fmt.Sprintf("missing %s field(s)", fields),
	}
}

// NewInvalidFieldsError は存在するが値を解釈できないフィールドのエラーを生成する。
// fieldsには"from"のような対象フィールドの列挙を渡す。
func NewInvalidFieldsError(fields string) *APIError {
	return &APIError{
		Code:    ErrCodeInvalidFields,
		Message: fmt.Sprintf("invalid %s field(s)", fields),
	}
}

// NewInvalidWindowError は集計ウィンドウの終端が始端より前の場合のエラーを生成する。
func NewInvalidWindowError() *APIError {
	return &APIError{
		Code:    ErrCodeInvalidFields,
		Message: "to must not be before from",
	}
}

// NewWeightSumExceededError は厳格モードで重み合計が1.0を超える場合のエラーを生成する。
func NewWeightSumExceededError(scope string) *APIError {
	return &APIError{
		Code:    ErrCodeWeightSumExceeded,
		Message: fmt.Sprintf("%s weights may not sum above 1.0", scope),
	}
}

// NewRetrievalFailedError はエンティティ取得時のストレージ障害エラーを生成する。
func NewRetrievalFailedError(resource string) *APIError {
	return &APIError{
		Code:    ErrCodeRetrievalFailed,
		Message: fmt.Sprintf("The %s could not be retrieved.", resource),
	}
}

// NewStorageFailedError は書き込み系のストレージ障害エラーを生成する。
// actionには"add new user category"のような操作の記述を渡す。
func NewStorageFailedError(action string) *APIError {
	return &APIError{
		Code:    ErrCodeStorageFailed,
		Message: fmt.Sprintf("Failed to %s", action),
	}
}

// NewUsernameTakenError はユーザー名重複時のエラーを生成する。
func NewUsernameTakenError() *APIError {
	return &APIError{
		Code:    ErrCodeUsernameTaken,
		Message: "Username is already taken",
	}
}
