package restclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRestClient(t *testing.T) {
	c := NewRestClient("http://test", map[string]string{"x": "y"})
	assert.Equal(t, "http://test", c.baseURL)
	assert.Equal(t, "y", c.headers["x"])
	require.NotNil(t, c.httpClient)
}

func TestDoRequestTransportError(t *testing.T) {
	c := &RestClient{httpClient: &http.Client{Transport: RoundTripFunc(func(_ *http.Request) (*http.Response, error) {
		return nil, errors.New("err")
	})}}
	r, _ := http.NewRequest("GET", "http://test", nil)
	b, s, err := c.doRequestOnce(context.Background(), r)
	assert.Error(t, err)
	assert.Zero(t, s)
	assert.Empty(t, b)
}

func TestRestClient(t *testing.T) {
	ctx := context.Background()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer k" || r.Header.Get("Content-Type") != "application/json" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.Method == http.MethodPost || r.Method == http.MethodPut {
			b, _ := io.ReadAll(r.Body)
			if string(b) != `{"x":"y"}` {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}))
	defer ts.Close()

	headers := map[string]string{"Authorization": "Bearer k"}
	cases := []struct {
		name     string
		method   string
		baseURL  string
		body     any
		expectOK bool
	}{
		{"get_ok", http.MethodGet, ts.URL, nil, true},
		{"post_ok", http.MethodPost, ts.URL, map[string]string{"x": "y"}, true},
		{"put_ok", http.MethodPut, ts.URL, map[string]string{"x": "y"}, true},
		{"delete_ok", http.MethodDelete, ts.URL, nil, true},
		{"post_bad_body", http.MethodPost, ts.URL, map[string]string{"x": "z"}, false},
		{"invalid_url", http.MethodGet, "://bad", nil, false},
		{"json_error", http.MethodPost, ts.URL, func() {}, false},
	}
	for _, cse := range cases {
		t.Run(cse.name, func(t *testing.T) {
			rc := NewRestClient(cse.baseURL, headers)
			var b []byte
			var s int
			var err error
			switch cse.method {
			case http.MethodGet:
				b, s, err = rc.Get(ctx, "/", nil)
			case http.MethodPost:
				b, s, err = rc.Post(ctx, "/", cse.body, nil)
			case http.MethodPut:
				b, s, err = rc.Put(ctx, "/", cse.body, nil)
			case http.MethodDelete:
				b, s, err = rc.Delete(ctx, "/", nil)
			}
			if cse.expectOK {
				require.NoError(t, err)
				assert.Equal(t, http.StatusOK, s)
				assert.Equal(t, "ok", string(b))
				return
			}
			assert.Error(t, err)
		})
	}
}

func TestStatusError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("slow down"))
	}))
	defer ts.Close()

	b, s, err := NewRestClient(ts.URL, nil).Get(context.Background(), "/", nil)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusTooManyRequests, s)
	assert.Equal(t, "slow down", string(b))
	assert.Contains(t, se.Error(), "429")
}

type RoundTripFunc func(*http.Request) (*http.Response, error)

func (f RoundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}
