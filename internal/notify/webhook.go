package notify

import (
	"context"

	"github.com/wz-hub/a-stock-scanner/pkg/config"
	"github.com/wz-hub/a-stock-scanner/pkg/httputil"
)

// Webhook posts the message as JSON to an arbitrary endpoint
type Webhook struct {
	client *httputil.Client
	url    string
}

func NewWebhook(hc *httputil.Client, url string) *Webhook {
	return &Webhook{client: hc, url: url}
}

func (w *Webhook) Channel() string { return config.PlatformWebhook }

func (w *Webhook) Send(ctx context.Context, msg Message) error {
	resp, err := w.client.PostJSON(ctx, w.url, msg)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}
