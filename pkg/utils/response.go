package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
)

// maxBodyBytes 限制JSON请求体大小
const maxBodyBytes = 1 << 20

// ErrorBody 统一的错误响应结构
type ErrorBody struct {
	Error              string `json:"error"`
	Kind               string `json:"kind,omitempty"`
	CredentialRequired bool   `json:"credentialRequired,omitempty"`
}

// RespondJSON 发送JSON响应
func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[http] failed to encode response: %v", err)
	}
}

// RespondError 发送错误响应
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, ErrorBody{Error: message})
}

// RespondErrorBody 发送带分类信息的错误响应
func RespondErrorBody(w http.ResponseWriter, status int, body ErrorBody) {
	RespondJSON(w, status, body)
}

// DecodeJSON 解析请求体，空请求体视为错误
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("request body is empty")
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
