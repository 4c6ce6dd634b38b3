package a2a

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
)

// notificationTokenHeader carries the client-supplied token back on
// every webhook delivery so the receiver can correlate it.
const notificationTokenHeader = "X-A2A-Notification-Token"

// PushSender delivers task snapshots to registered webhooks.
type PushSender struct {
	client  *http.Client
	configs *PushConfigStore
}

func NewPushSender(configs *PushConfigStore) *PushSender {
	return &PushSender{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		configs: configs,
	}
}

// Notify posts the task snapshot to the task's webhook, when one is
// registered. Delivery failures are logged, not returned: push is
// best-effort and never blocks the task.
func (p *PushSender) Notify(ctx context.Context, task *Task) {
	cfg, ok := p.configs.Get(task.ID)
	if !ok {
		return
	}

	if err := p.post(ctx, cfg, task); err != nil {
		logger.ContextKV(ctx, xlog.WARNING,
			"task", task.ID,
			"url", cfg.URL,
			"err", err.Error(),
		)
	}
}

func (p *PushSender) post(ctx context.Context, cfg PushNotificationConfig, task *Task) error {
	body, err := json.Marshal(task)
	if err != nil {
		return errors.Wrap(err, "failed to marshal task")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.URL, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")
	if cfg.Token != "" {
		req.Header.Set(notificationTokenHeader, cfg.Token)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to deliver notification")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 300 {
		return errors.Newf("notification rejected: %s", resp.Status)
	}
	return nil
}
