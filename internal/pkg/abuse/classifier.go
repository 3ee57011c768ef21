// Package abuse combines a deterministic local pattern bank with a remote
// LLM classifier. The local bank always runs first; the remote call is
// best-effort, bounded by a timeout, and guarded by a circuit breaker that
// disables it for the process lifetime once the credential proves invalid.
package abuse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	openai "github.com/sashabaranov/go-openai"
)

// Verdict is the classifier's judgement for one text.
type Verdict struct {
	IsAbusive  bool    `json:"is_abusive"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// Reasons reported by the non-remote paths.
const (
	ReasonLocalMatch    = "local_match"
	ReasonFallback      = "fallback"
	ReasonLocalFallback = "local_fallback"
	ReasonFallbackError = "fallback_error"
)

// FromFallback reports whether the verdict came from a degraded path rather
// than the remote model. Such verdicts are not worth caching.
func (v Verdict) FromFallback() bool {
	switch v.Reason {
	case ReasonFallback, ReasonLocalFallback, ReasonFallbackError:
		return true
	}
	return false
}

// ErrAuth marks a remote failure caused by an invalid or unauthorized
// credential. It trips the breaker; all other remote errors are transient.
var ErrAuth = errors.New("classifier credential rejected")

// Config holds classifier settings.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string // optional OpenAI-compatible endpoint
	Timeout time.Duration
}

// DefaultConfig returns the default remote model settings. An empty APIKey
// leaves the remote path disabled.
func DefaultConfig() Config {
	return Config{
		Model:   "gpt-3.5-turbo",
		Timeout: 10 * time.Second,
	}
}

// localPatterns is the word-boundary pre-filter bank: profanity, threats,
// multilingual slurs, harassment terms.
var localPatterns = []string{
	`\b(?:fuck|shit|bitch|bastard|asshole)\b`,
	`\b(?:rape|kill|murder|terror)\b`,
	`\b(?:slur|chutiya|madarchod|bhosdike|lund|randi)\b`,
	`\b(?:harass|abuse|bully)\b`,
}

var localRegex = regexp.MustCompile(`(?i)` + strings.Join(localPatterns, "|"))

const systemPrompt = `You are an abuse detector for group chats. Analyze the message and respond ONLY with JSON:
{"is_abusive": true/false, "confidence": 0.0-1.0, "reason": "brief explanation"}

Detect profanity, hate speech, threats, harassment, spam, or inappropriate content.
Be strict but fair. Ignore normal conversation.`

// Classifier classifies text for abusive content. All remote failures are
// recovered internally; Classify never fails, it degrades.
type Classifier struct {
	mu      sync.Mutex
	client  *openai.Client
	model   string
	baseURL string
	timeout time.Duration
	tripped atomic.Bool
	log     *log.Helper
}

// New creates a Classifier. With no API key the remote path starts disabled
// and only the local bank answers.
func New(cfg Config, logger log.Logger) *Classifier {
	if cfg.Model == "" {
		cfg.Model = DefaultConfig().Model
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	c := &Classifier{
		model:   cfg.Model,
		timeout: cfg.Timeout,
		log:     log.NewHelper(logger),
	}
	if cfg.APIKey != "" {
		c.client = newClient(cfg.APIKey, cfg.BaseURL)
	}
	c.baseURL = cfg.BaseURL
	return c
}

func newClient(apiKey, baseURL string) *openai.Client {
	if baseURL == "" {
		return openai.NewClient(apiKey)
	}
	conf := openai.DefaultConfig(apiKey)
	conf.BaseURL = baseURL
	return openai.NewClientWithConfig(conf)
}

// Ready reports whether the remote path is currently usable.
func (c *Classifier) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.client != nil && !c.tripped.Load()
}

// EnableWithKey installs a new credential and closes the breaker. Used by the
// owner-level admin operation; there is no automatic reset.
func (c *Classifier) EnableWithKey(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.client = newClient(key, c.baseURL)
	c.tripped.Store(false)
	c.log.Info("remote classifier credential installed")
}

// Classify returns a verdict for text. The local bank short-circuits the
// remote call; remote failures fall back to the local result. The confidence
// threshold is applied by the caller, never here.
func (c *Classifier) Classify(ctx context.Context, text string) Verdict {
	if localRegex.MatchString(text) {
		return Verdict{IsAbusive: true, Confidence: 0.9, Reason: ReasonLocalMatch}
	}
	if !c.Ready() {
		return Verdict{Confidence: 0.0, Reason: ReasonFallback}
	}

	v, err := c.callRemote(ctx, text)
	if err == nil {
		return v
	}
	if errors.Is(err, ErrAuth) {
		c.tripped.Store(true)
		c.log.Warnf("remote classifier disabled: %v", err)
	} else {
		c.log.Debugf("remote classifier fallback: %v", err)
	}
	if localRegex.MatchString(text) {
		return Verdict{IsAbusive: true, Confidence: 0.8, Reason: ReasonLocalFallback}
	}
	return Verdict{Confidence: 0.0, Reason: ReasonFallbackError}
}

// callRemote asks the remote model for a verdict. It returns ErrAuth-wrapped
// errors for credential failures and plain errors for everything else,
// including unparseable responses.
func (c *Classifier) callRemote(ctx context.Context, text string) (Verdict, error) {
	c.mu.Lock()
	client := c.client
	c.mu.Unlock()
	if client == nil {
		return Verdict{}, fmt.Errorf("no client configured")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: "Analyze this message: " + text},
		},
		Temperature: 0.1,
		MaxTokens:   150,
	})
	if err != nil {
		if isAuthError(err) {
			return Verdict{}, fmt.Errorf("%w: %v", ErrAuth, err)
		}
		return Verdict{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Verdict{}, fmt.Errorf("no response choices")
	}

	return parseVerdict(resp.Choices[0].Message.Content)
}

// parseVerdict decodes the strict JSON verdict shape. A malformed response is
// an error, handled like any transient failure.
func parseVerdict(content string) (Verdict, error) {
	content = strings.TrimSpace(content)
	// Models occasionally wrap the JSON in a code fence.
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var v Verdict
	if err := json.Unmarshal([]byte(content), &v); err != nil {
		return Verdict{}, fmt.Errorf("malformed verdict %q: %w", content, err)
	}
	if v.Confidence < 0 {
		v.Confidence = 0
	}
	if v.Confidence > 1 {
		v.Confidence = 1
	}
	return v, nil
}

// isAuthError classifies a remote error as an authentication failure.
func isAuthError(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == 401 || apiErr.HTTPStatusCode == 403 {
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "invalid api key") ||
		strings.Contains(msg, "incorrect api key") ||
		strings.Contains(msg, "unauthorized") ||
		strings.Contains(msg, "401")
}
