package agents

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// defaultPushoverEndpoint is the Pushover message API.
const defaultPushoverEndpoint = "https://api.pushover.net/1/messages.json"

// NotifyConfig holds the settings for constructing a NotifyAgent.
type NotifyConfig struct {
	// Endpoint is the message API URL; empty selects the Pushover default.
	Endpoint string
	// Token is the application token.
	Token string
	// User is the recipient user key.
	User string
}

// NotifyAgent delivers push notifications through the Pushover API. Deliveries
// are rate-limited so retries and bursts of fire-and-forget tasks cannot
// flood the channel.
type NotifyAgent struct {
	cfg     NotifyConfig
	client  *http.Client
	limiter *rate.Limiter
}

// NewNotifyAgent constructs a NotifyAgent.
func NewNotifyAgent(cfg NotifyConfig) *NotifyAgent {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultPushoverEndpoint
	}
	return &NotifyAgent{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		// Pushover allows bursts but sustained flooding gets throttled;
		// 1 msg/sec with a burst of 3 stays well inside the limits.
		limiter: rate.NewLimiter(rate.Every(time.Second), 3),
	}
}

// Kind returns KindNotify.
func (a *NotifyAgent) Kind() Kind { return KindNotify }

// Handle delivers in.Message with title in.Subject. The payload is the
// delivered message. Missing credentials fail non-retryably; transport and
// server errors fail retryably so the orchestrator can re-attempt delivery.
func (a *NotifyAgent) Handle(ctx context.Context, in Input, _ TaskContext) Result {
	if a.cfg.Token == "" || a.cfg.User == "" {
		return Fail(FailureDeliveryFailed, "notification credentials not configured (PUSHOVER_TOKEN, PUSHOVER_USER)", false)
	}
	if strings.TrimSpace(in.Message) == "" {
		return Fail(FailureDeliveryFailed, "notification message is empty", false)
	}

	title := in.Subject
	if title == "" {
		title = "BookMind"
	}

	if err := a.limiter.Wait(ctx); err != nil {
		return Failf(FailureDeliveryFailed, false, "cancelled while rate-limited: %v", err)
	}

	form := url.Values{
		"token":   {a.cfg.Token},
		"user":    {a.cfg.User},
		"title":   {title},
		"message": {in.Message},
		"sound":   {"bookSound"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return Failf(FailureDeliveryFailed, false, "create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.client.Do(req)
	if err != nil {
		return Failf(FailureDeliveryFailed, true, "delivery failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// 4xx means the request itself is bad; retrying the same message
		// cannot succeed. 5xx and everything else is worth retrying.
		retryable := resp.StatusCode < 400 || resp.StatusCode >= 500
		return Failf(FailureDeliveryFailed, retryable, "delivery rejected: HTTP %d", resp.StatusCode)
	}

	return Success(map[string]string{"title": title, "message": in.Message})
}
