package restclient

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockRestClient struct {
	mock.Mock
}

func (m *MockRestClient) Get(_ context.Context, endpoint string, headers map[string]string) ([]byte, int, error) {
	args := m.Called(endpoint, headers)
	return bytesOf(args.Get(0)), args.Int(1), args.Error(2)
}

func (m *MockRestClient) Post(_ context.Context, endpoint string, body any, headers map[string]string) ([]byte, int, error) {
	args := m.Called(endpoint, body, headers)
	return bytesOf(args.Get(0)), args.Int(1), args.Error(2)
}

func (m *MockRestClient) Put(_ context.Context, endpoint string, body any, headers map[string]string) ([]byte, int, error) {
	args := m.Called(endpoint, body, headers)
	return bytesOf(args.Get(0)), args.Int(1), args.Error(2)
}

func (m *MockRestClient) Delete(_ context.Context, endpoint string, headers map[string]string) ([]byte, int, error) {
	args := m.Called(endpoint, headers)
	return bytesOf(args.Get(0)), args.Int(1), args.Error(2)
}

func bytesOf(v any) []byte {
	b, _ := v.([]byte)
	return b
}
