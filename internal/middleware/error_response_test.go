package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/lifegpa/internal/model"
)

// TestWriteErrorResponse_MessageOnly はレスポンスにmessageのみが含まれることを検証する。
// コードや内部情報はクライアントに出さない。
func TestWriteErrorResponse_MessageOnly(t *testing.T) {
	w := httptest.NewRecorder()

	WriteErrorResponse(w, http.StatusNotFound, model.NewNotFoundError("user category"))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse body: %v", err)
	}
	if len(body) != 1 {
		t.Errorf("body has %d fields, want only message: %v", len(body), body)
	}
	if body["message"] != "The user category with the specified ID does not exist." {
		t.Errorf("message = %q", body["message"])
	}
}

// TestWriteErrorResponse_RestrictedBody はアクセスゲートの固定ボディを検証する。
func TestWriteErrorResponse_RestrictedBody(t *testing.T) {
	w := httptest.NewRecorder()

	WriteErrorResponse(w, http.StatusBadRequest, model.NewAuthRequiredError())

	want := `{"message":"You're not allowed in here!"}`
	got := w.Body.String()
	// json.Encoderは末尾に改行を付ける
	if got != want+"\n" && got != want {
		t.Errorf("body = %q, want %q", got, want)
	}
}

// TestWriteInternalServerError は500の汎用レスポンスを検証する。
func TestWriteInternalServerError(t *testing.T) {
	w := httptest.NewRecorder()

	WriteInternalServerError(w)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse body: %v", err)
	}
	if body["message"] == "" {
		t.Error("expected non-empty message")
	}
}
