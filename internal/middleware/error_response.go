package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/hitoshi/lifegpa/internal/model"
)

// ErrorResponseBody はAPIエラーレスポンスの統一フォーマット。
// ワイヤ上はmessageフィールドのみを持つ（既存クライアントとの互換性契約）。
type ErrorResponseBody struct {
	Message string `json:"message"`
}

// WriteErrorResponse は統一エラーフォーマットでHTTPエラーレスポンスを書き込む。
// すべてのAPIエンドポイントで一貫したエラーレスポンスを提供する。
// エラーコードやスタックトレースはレスポンスに含めない。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponseBody{
		Message: apiErr.Message,
	})
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:    model.ErrCodeStorageFailed,
		Message: "Internal server error",
	})
}
