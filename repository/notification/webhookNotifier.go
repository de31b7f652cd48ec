// repository/notification/webhookNotifier.go
package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/RicardoJSequeda/bienestar-hub-sub000/util/httpx"
)

type webhookNotifier struct {
	url    string
	client *http.Client
}

// NewWebhook posts each notification as JSON to the surrounding
// application's endpoint.
func NewWebhook(url string) Notifier {
	return &webhookNotifier{url: url, client: httpx.Client()}
}

func (w *webhookNotifier) Notify(ctx context.Context, n Notification) error {
	b, err := json.Marshal(n)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("notify webhook failed: %s", resp.Status)
	}
	return nil
}
