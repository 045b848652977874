package provider

import (
	"context"
	"errors"
	"io"

	"github.com/sashabaranov/go-openai"
	"pkt.systems/pslog"

	"github.com/cellscribe/cellscribe/internal/config"
)

// Chunk is one decoded increment of a streaming response. The final chunk
// carries Done=true and may have empty Content.
type Chunk struct {
	Content string
	Done    bool
}

// Client wraps the OpenAI-compatible chat API configured by the active
// profile. A nil inner client means the profile is not configured yet; the
// service handles that before streaming.
type Client struct {
	api   *openai.Client
	model string
	log   pslog.Logger
}

// New creates a Client for the active profile. The client is created even
// for an invalid config so the caller always has something to hold; Ready
// reports whether streaming is possible.
func New(cfg *config.Config, logger pslog.Logger) *Client {
	c := &Client{model: cfg.GetModel(), log: logger}
	if cfg.IsValid() {
		clientConfig := openai.DefaultConfig(cfg.GetAPIKey())
		if cfg.GetBaseURL() != "" {
			clientConfig.BaseURL = cfg.GetBaseURL()
		}
		c.api = openai.NewClientWithConfig(clientConfig)
	}
	return c
}

func (c *Client) Ready() bool {
	return c.api != nil
}

// StreamChat runs one streaming chat completion, delivering chunks in
// arrival order to deliver on the calling goroutine. It returns nil after
// the Done chunk has been delivered, or a classified StreamError if the
// stream could not be opened or aborted mid-way.
func (c *Client) StreamChat(ctx context.Context, messages []openai.ChatCompletionMessage, deliver func(Chunk)) *StreamError {
	if c.api == nil {
		return &StreamError{Kind: KindAuthentication, Message: "no API key configured"}
	}

	req := openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   true,
	}

	s, err := c.api.CreateChatCompletionStream(ctx, req)
	if err != nil {
		c.log.Error("failed to open completion stream", "model", c.model, "err", err)
		return Classify(err)
	}
	defer s.Close()

	for {
		resp, err := s.Recv()
		if errors.Is(err, io.EOF) {
			deliver(Chunk{Done: true})
			return nil
		}
		if err != nil {
			c.log.Error("stream aborted", "model", c.model, "err", err)
			return Classify(err)
		}
		if len(resp.Choices) > 0 {
			if delta := resp.Choices[0].Delta.Content; delta != "" {
				deliver(Chunk{Content: delta})
			}
		}
	}
}
