package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/threebody-chat/internal/model/chat"
	"github.com/zhouzirui/threebody-chat/internal/model/persona"
	"github.com/zhouzirui/threebody-chat/internal/service/ai"
	chatservice "github.com/zhouzirui/threebody-chat/internal/service/chat"
	"github.com/zhouzirui/threebody-chat/internal/service/credential"
	"github.com/zhouzirui/threebody-chat/pkg/utils"
)

type stubCompleter struct {
	reply   string
	err     error
	started chan struct{}
	release chan struct{}
}

func (s *stubCompleter) Generate(context.Context, string, []*schema.Message) (*schema.Message, error) {
	if s.started != nil {
		s.started <- struct{}{}
	}
	if s.release != nil {
		<-s.release
	}
	if s.err != nil {
		return nil, s.err
	}
	return schema.AssistantMessage(s.reply, nil), nil
}

func setupRouter(key string, completer ai.Completer) (*chi.Mux, *chatservice.Service) {
	chatSvc := chatservice.NewService(credential.NewMemoryStore(key), completer)
	handler := New(chatSvc, persona.NewCatalog())

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, chatSvc
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func createSession(t *testing.T, r http.Handler, personaID string) chat.Session {
	t.Helper()
	resp := doJSON(r, http.MethodPost, "/session", map[string]string{"personaId": personaID})
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var session chat.Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	return session
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) utils.ErrorBody {
	t.Helper()
	var body utils.ErrorBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body
}

func TestCreateSessionValidPersona(t *testing.T) {
	r, _ := setupRouter("sk-ant-test", &stubCompleter{})

	session := createSession(t, r, "wang-miao")
	if len(session.Messages) != 1 || session.Messages[0].Content != persona.WangMiao.Greeting() {
		t.Fatalf("expected greeting, got %+v", session.Messages)
	}
}

func TestCreateSessionInvalidPersona(t *testing.T) {
	r, _ := setupRouter("sk-ant-test", &stubCompleter{})

	resp := doJSON(r, http.MethodPost, "/session", map[string]string{"personaId": "non-existent"})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestCreateSessionMissingPersonaID(t *testing.T) {
	r, _ := setupRouter("sk-ant-test", &stubCompleter{})

	resp := doJSON(r, http.MethodPost, "/session", map[string]string{})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	r, _ := setupRouter("sk-ant-test", &stubCompleter{})

	resp := doJSON(r, http.MethodGet, "/session/missing", nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestSendMessageReturnsReply(t *testing.T) {
	r, _ := setupRouter("sk-ant-test", &stubCompleter{reply: "Nature is the enemy."})
	session := createSession(t, r, "ye-wenjie")

	resp := doJSON(r, http.MethodPost, "/session/"+session.ID+"/messages", map[string]string{"content": "Why?"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var body sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Message.Content != "Nature is the enemy." || body.Message.Role != chat.RoleAssistant {
		t.Fatalf("unexpected reply %+v", body.Message)
	}
	if len(body.Session.Messages) != 3 || body.Session.Loading {
		t.Fatalf("unexpected session %+v", body.Session)
	}
}

func TestSendMessageBlank(t *testing.T) {
	r, _ := setupRouter("sk-ant-test", &stubCompleter{})
	session := createSession(t, r, "ye-wenjie")

	resp := doJSON(r, http.MethodPost, "/session/"+session.ID+"/messages", map[string]string{"content": "   "})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestSendMessageWithoutCredential(t *testing.T) {
	r, _ := setupRouter("", &stubCompleter{})
	session := createSession(t, r, "ye-wenjie")

	resp := doJSON(r, http.MethodPost, "/session/"+session.ID+"/messages", map[string]string{"content": "hello"})
	if resp.Code != http.StatusPreconditionRequired {
		t.Fatalf("expected 428, got %d", resp.Code)
	}
	body := decodeError(t, resp)
	if !body.CredentialRequired || body.Error != "Please enter your Claude API key first" {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestSendMessageCompletionFailure(t *testing.T) {
	completer := &stubCompleter{err: &ai.CompletionError{Kind: ai.KindUnauthorized, StatusCode: http.StatusUnauthorized}}
	r, _ := setupRouter("sk-ant-test", completer)
	session := createSession(t, r, "da-shi")

	resp := doJSON(r, http.MethodPost, "/session/"+session.ID+"/messages", map[string]string{"content": "hello"})
	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.Code)
	}
	body := decodeError(t, resp)
	if body.Kind != string(ai.KindUnauthorized) || !body.CredentialRequired {
		t.Fatalf("unexpected body %+v", body)
	}
	if body.Error != "Invalid API key. Please check your Claude API key and try again." {
		t.Fatalf("unexpected message %q", body.Error)
	}
}

func TestSendMessageWhileBusy(t *testing.T) {
	completer := &stubCompleter{reply: "later", started: make(chan struct{}, 1), release: make(chan struct{})}
	r, _ := setupRouter("sk-ant-test", completer)
	session := createSession(t, r, "ye-wenjie")

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		done <- doJSON(r, http.MethodPost, "/session/"+session.ID+"/messages", map[string]string{"content": "first"})
	}()
	<-completer.started

	resp := doJSON(r, http.MethodPost, "/session/"+session.ID+"/messages", map[string]string{"content": "second"})
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.Code)
	}

	close(completer.release)
	if first := <-done; first.Code != http.StatusOK {
		t.Fatalf("expected first send to succeed, got %d", first.Code)
	}
}

func TestSwitchPersonaResetsConversation(t *testing.T) {
	r, _ := setupRouter("sk-ant-test", &stubCompleter{reply: "ok"})
	session := createSession(t, r, "ye-wenjie")
	doJSON(r, http.MethodPost, "/session/"+session.ID+"/messages", map[string]string{"content": "hello"})

	resp := doJSON(r, http.MethodPut, "/session/"+session.ID+"/persona", map[string]string{"personaId": "Da Shi"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var got chat.Session
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.PersonaID != "da-shi" || len(got.Messages) != 1 || got.Messages[0].Content != persona.DaShi.Greeting() {
		t.Fatalf("unexpected session %+v", got)
	}

	resp = doJSON(r, http.MethodPut, "/session/"+session.ID+"/persona", map[string]string{"personaId": "Luo Ji"})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown persona, got %d", resp.Code)
	}
}

func TestDeleteSession(t *testing.T) {
	r, _ := setupRouter("sk-ant-test", &stubCompleter{})
	session := createSession(t, r, "ye-wenjie")

	resp := doJSON(r, http.MethodDelete, "/session/"+session.ID, nil)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}

	resp = doJSON(r, http.MethodGet, "/session/"+session.ID, nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", resp.Code)
	}
}
