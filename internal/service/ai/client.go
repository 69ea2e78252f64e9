package ai

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/cloudwego/eino/schema"
)

const (
	// Model is the fixed completion model.
	Model = anthropic.ModelClaude_3_Haiku_20240307
	// MaxTokens caps the length of every reply.
	MaxTokens = 1000
	// DefaultBaseURL is the public Anthropic endpoint.
	DefaultBaseURL = "https://api.anthropic.com"
)

// Completer is what the conversation store needs from the completion client.
type Completer interface {
	Generate(ctx context.Context, apiKey string, input []*schema.Message) (*schema.Message, error)
}

// Client issues one Messages API request per Generate call.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption customises a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the transport, mainly for tests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient builds a client against baseURL, falling back to DefaultBaseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{baseURL: baseURL}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate sends the formatted conversation and returns the first text block as
// an assistant message. Every failure is returned as a *CompletionError.
func (c *Client) Generate(ctx context.Context, apiKey string, input []*schema.Message) (*schema.Message, error) {
	messages, system := toAnthropicMessages(input)
	if len(messages) == 0 {
		return nil, &CompletionError{Kind: KindMalformed, Err: errors.New("no conversation messages to send")}
	}

	params := anthropic.MessageNewParams{
		Model:     Model,
		MaxTokens: MaxTokens,
		Messages:  messages,
	}
	if len(system) > 0 {
		params.System = system
	}

	var httpResp *http.Response
	client := anthropic.NewClient(c.requestOptions(apiKey)...)
	resp, err := client.Messages.New(ctx, params, option.WithResponseInto(&httpResp))
	if err != nil {
		status := 0
		if httpResp != nil {
			status = httpResp.StatusCode
		}
		cerr := classify(err, status)
		log.Printf("[ai] completion failed kind=%s status=%d: %v", cerr.Kind, cerr.StatusCode, err)
		return nil, cerr
	}

	text, ok := firstText(resp)
	if !ok {
		return nil, &CompletionError{
			Kind:       KindMalformed,
			StatusCode: statusOf(httpResp),
			Err:        errors.New("response carried no text content"),
		}
	}

	log.Printf("[ai] completion ok model=%s length=%d", Model, len(text))
	return schema.AssistantMessage(text, nil), nil
}

func (c *Client) requestOptions(apiKey string) []option.RequestOption {
	opts := []option.RequestOption{
		option.WithBaseURL(c.baseURL),
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if c.httpClient != nil {
		opts = append(opts, option.WithHTTPClient(c.httpClient))
	}
	return opts
}

// toAnthropicMessages lifts system messages into the dedicated system field.
func toAnthropicMessages(input []*schema.Message) ([]anthropic.MessageParam, []anthropic.TextBlockParam) {
	var system []anthropic.TextBlockParam
	messages := make([]anthropic.MessageParam, 0, len(input))

	for _, msg := range input {
		if msg == nil {
			continue
		}
		switch msg.Role {
		case schema.System:
			system = append(system, anthropic.TextBlockParam{Text: msg.Content})
		case schema.Assistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	return messages, system
}

func firstText(resp *anthropic.Message) (string, bool) {
	if resp == nil || len(resp.Content) == 0 {
		return "", false
	}
	block := resp.Content[0]
	if block.Type != "" && block.Type != "text" {
		return "", false
	}
	return block.Text, true
}

func statusOf(resp *http.Response) int {
	if resp == nil {
		return 0
	}
	return resp.StatusCode
}
