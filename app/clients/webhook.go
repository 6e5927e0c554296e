package clients

import (
	"context"
	"fmt"
	"net/url"

	"GoLetterAI/app/letters"
	"GoLetterAI/app/utils/restclient"
)

var _ Interface = &WebhookClient{}

// WebhookClient posts the letter document as JSON to a fixed URL.
type WebhookClient struct {
	rest restclient.Interface
	path string
}

func NewWebhookClient(rest restclient.Interface, path string) *WebhookClient {
	return &WebhookClient{rest: rest, path: path}
}

func NewWebhookClientFromConfig(cfg map[string]string) (*WebhookClient, error) {
	u, err := url.Parse(cfg["url"])
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("webhook url %q is invalid", cfg["url"])
	}

	var headers map[string]string
	if token := cfg["token"]; token != "" {
		headers = map[string]string{"Authorization": "Bearer " + token}
	}
	path := u.RequestURI()
	u.Path, u.RawPath, u.RawQuery = "", "", ""
	return NewWebhookClient(restclient.NewRestClient(u.String(), headers), path), nil
}

func (w *WebhookClient) Name() string {
	return "webhook"
}

func (w *WebhookClient) Notify(ctx context.Context, doc letters.Document) error {
	_, _, err := w.rest.Post(ctx, w.path, doc, nil)
	return err
}
