// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/lifegpa/internal/middleware"
	"github.com/hitoshi/lifegpa/internal/model"
)

// messageResponse は{"message": ...}形式の成功レスポンス。
type messageResponse struct {
	Message string `json:"message"`
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// idParam はパスパラメータ{id}をint64として取り出す。
func idParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// requireUserID はセッションミドルウェアが注入したユーザーIDを取り出す。
// ミドルウェアチェーンの外から呼ばれた場合は400で打ち切る。
func requireUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewAuthRequiredError())
		return 0, false
	}
	return userID, true
}

// handleServiceError はサービス層のエラーをHTTPレスポンスに変換する。
// APIError以外のエラー（ストレージ障害など）はfallbackに差し替えて返し、
// 内部詳細はログにのみ残す。
func handleServiceError(w http.ResponseWriter, err error, fallback *model.APIError) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	slog.Error("service error", slog.String("error", err.Error()))
	middleware.WriteErrorResponse(w, http.StatusInternalServerError, fallback)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeAuthRequired,
		model.ErrCodeInvalidCredentials,
		model.ErrCodeMissingBody,
		model.ErrCodeMissingFields,
		model.ErrCodeInvalidFields,
		model.ErrCodeWeightSumExceeded,
		model.ErrCodeUsernameTaken:
		return http.StatusBadRequest
	case model.ErrCodeNotFound:
		return http.StatusNotFound
	default:
		// RETRIEVAL_FAILED / STORAGE_FAILED
		return http.StatusInternalServerError
	}
}

// decodeBody はリクエストボディをvにデコードする。
// ボディが空・空オブジェクト・不正JSONの場合はMISSING_BODYを返す。
// resourceには"user category"のような表示名を渡す。
func decodeBody(r *http.Request, resource string, v any) *model.APIError {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil || len(raw) == 0 {
		return model.NewMissingBodyError(resource)
	}

	buf, err := json.Marshal(raw)
	if err != nil {
		return model.NewMissingBodyError(resource)
	}
	if err := json.Unmarshal(buf, v); err != nil {
		return model.NewMissingBodyError(resource)
	}
	return nil
}

// flexTimeLayouts はdone_onとして受け付ける時刻フォーマット。
var flexTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// flexTime は複数フォーマットを受け付ける時刻型。
// レスポンスではRFC3339（UTC）に正規化される。
type flexTime struct {
	time.Time
}

// UnmarshalJSON はflexTimeLayoutsのいずれかで時刻をパースする。
func (t *flexTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	for _, layout := range flexTimeLayouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return errors.New("unsupported time format: " + s)
}

// parseWindowParam はクエリパラメータの時刻をパースする。空文字はゼロ値。
func parseWindowParam(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range flexTimeLayouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, errors.New("unsupported time format: " + s)
}

// formatDoneOn はdone_onをRFC3339（UTC）で整形する。
func formatDoneOn(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
