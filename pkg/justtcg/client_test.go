package justtcg

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/tmrivera/cardhaven-backend/pkg/errors"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func TestClientCurrentPriceRequest(t *testing.T) {
	const expectedURL = "http://justtcg.test/v1/cards/card-123/current-price"
	respBody := `{"data":{"cardId":"card-123","price":10.50,"currency":"USD"}}`

	var capturedURL string
	var capturedHeaders http.Header

	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		capturedHeaders = req.Header.Clone()
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(respBody)),
			Header:     http.Header{},
		}, nil
	})

	client := newTestClient(t, rt)

	price, err := client.CurrentPrice(context.Background(), "card-123")
	if err != nil {
		t.Fatalf("current price: %v", err)
	}
	if capturedURL != expectedURL {
		t.Fatalf("unexpected URL %q", capturedURL)
	}
	if capturedHeaders.Get("x-api-key") != "test-key" {
		t.Fatalf("api key header missing")
	}
	if !price.Price.Equal(decimal.RequireFromString("10.50")) {
		t.Fatalf("unexpected price %s", price.Price)
	}
}

func TestClientStockRequest(t *testing.T) {
	const expectedURL = "http://justtcg.test/v1/cards/card-123/stock"
	respBody := `{"data":{"cardId":"card-123","stock":4}}`

	var capturedURL string
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(respBody)),
			Header:     http.Header{},
		}, nil
	})

	client := newTestClient(t, rt)

	stock, err := client.Stock(context.Background(), "card-123")
	if err != nil {
		t.Fatalf("stock: %v", err)
	}
	if capturedURL != expectedURL {
		t.Fatalf("unexpected URL %q", capturedURL)
	}
	if stock.Stock != 4 {
		t.Fatalf("unexpected stock %d", stock.Stock)
	}
}

func TestClientAutocompleteRequest(t *testing.T) {
	respBody := `{"data":[{"id":"card-1","name":"Snivy","setName":"Black Bolt","imageUrl":"http://img.test/1.png"}]}`

	var capturedQuery string
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		capturedQuery = req.URL.Query().Get("q")
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(respBody)),
			Header:     http.Header{},
		}, nil
	})

	client := newTestClient(t, rt)

	suggestions, err := client.Autocomplete(context.Background(), "sniv")
	if err != nil {
		t.Fatalf("autocomplete: %v", err)
	}
	if capturedQuery != "sniv" {
		t.Fatalf("unexpected query %q", capturedQuery)
	}
	if len(suggestions) != 1 || suggestions[0].Name != "Snivy" {
		t.Fatalf("unexpected suggestions %+v", suggestions)
	}
}

func TestClientRetriesRateLimitedRequests(t *testing.T) {
	var calls int
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		calls++
		if calls < 3 {
			return &http.Response{
				StatusCode: http.StatusTooManyRequests,
				Body:       io.NopCloser(strings.NewReader("")),
				Header:     http.Header{},
			}, nil
		}
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(`{"data":{"cardId":"c","stock":1}}`)),
			Header:     http.Header{},
		}, nil
	})

	client := newTestClient(t, rt)

	stock, err := client.Stock(context.Background(), "c")
	if err != nil {
		t.Fatalf("stock after retries: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
	if stock.Stock != 1 {
		t.Fatalf("unexpected stock %d", stock.Stock)
	}
}

func TestClientCanceledContextIsNotADependencyError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		cancel()
		return nil, context.Canceled
	})

	client := newTestClient(t, rt)

	_, err := client.CurrentPrice(ctx, "card-123")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if typed := pkgerrors.As(err); typed != nil {
		t.Fatalf("canceled request should not carry an error code, got %s", typed.Code())
	}
}

func TestClientNotFound(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusNotFound,
			Body:       io.NopCloser(strings.NewReader("")),
			Header:     http.Header{},
		}, nil
	})

	client := newTestClient(t, rt)

	_, err := client.CurrentPrice(context.Background(), "gone")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	if _, err := NewClient("  "); err == nil {
		t.Fatal("expected error for blank api key")
	}
}

func newTestClient(t *testing.T, rt roundTripFunc) *Client {
	t.Helper()
	client, err := NewClient("test-key",
		WithBaseURL("http://justtcg.test/v1"),
		WithHTTPClient(&http.Client{Transport: rt}),
		WithRetry(3, time.Millisecond),
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}
