package restclient

import "context"

var _ Interface = &RestClient{}

type Interface interface {
	Get(ctx context.Context, endpoint string, headers map[string]string) ([]byte, int, error)
	Post(ctx context.Context, endpoint string, body any, headers map[string]string) ([]byte, int, error)
	Put(ctx context.Context, endpoint string, body any, headers map[string]string) ([]byte, int, error)
	Delete(ctx context.Context, endpoint string, headers map[string]string) ([]byte, int, error)
}
