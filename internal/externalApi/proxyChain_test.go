package externalApi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
)

func TestProxyChain_DirectFirst(t *testing.T) {
	direct := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"price": 42}`))
	}))
	defer direct.Close()

	relayCalls := 0
	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		relayCalls++
		_, _ = w.Write([]byte(`{"price": 42}`))
	}))
	defer relay.Close()

	chain := NewProxyChain(resty.New(), []string{relay.URL + "/?%s"})

	body, err := chain.Get(context.Background(), direct.URL)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if string(body) != `{"price": 42}` {
		t.Errorf("unexpected body: %s", body)
	}
	if relayCalls != 0 {
		t.Errorf("relay must not be hit when direct succeeds, got %d calls", relayCalls)
	}
}

func TestProxyChain_FallsBackToRelay(t *testing.T) {
	direct := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer direct.Close()

	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer relay.Close()

	chain := NewProxyChain(resty.New(), []string{relay.URL + "/?%s"})

	body, err := chain.Get(context.Background(), direct.URL)
	if err != nil {
		t.Fatalf("expected relay fallback, got err: %v", err)
	}
	if string(body) != `{"ok": true}` {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestProxyChain_FirstWorkingRelayWins(t *testing.T) {
	direct := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer direct.Close()

	brokenRelay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>not json</html>`))
	}))
	defer brokenRelay.Close()

	goodCalls := 0
	goodRelay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		goodCalls++
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer goodRelay.Close()

	neverRelay := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Error("relay after first success must not be hit")
	}))
	defer neverRelay.Close()

	chain := NewProxyChain(resty.New(), []string{
		brokenRelay.URL + "/?%s",
		goodRelay.URL + "/?%s",
		neverRelay.URL + "/?%s",
	})

	_, err := chain.Get(context.Background(), direct.URL)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if goodCalls != 1 {
		t.Errorf("expected exactly one call to working relay, got %d", goodCalls)
	}
}

func TestProxyChain_UnwrapsRelayEnvelope(t *testing.T) {
	direct := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer direct.Close()

	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"contents": "{\"price\": 7}"}`))
	}))
	defer relay.Close()

	chain := NewProxyChain(resty.New(), []string{relay.URL + "/?%s"})

	body, err := chain.Get(context.Background(), direct.URL)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if string(body) != `{"price": 7}` {
		t.Errorf("expected unwrapped payload, got %s", body)
	}
}

func TestProxyChain_AllHopsExhausted(t *testing.T) {
	direct := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer direct.Close()

	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer relay.Close()

	chain := NewProxyChain(resty.New(), []string{relay.URL + "/?%s"})

	_, err := chain.Get(context.Background(), direct.URL)
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
}

func TestStatusToErr(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{403, ErrForbidden},
		{429, ErrRateLimited},
		{404, ErrNotFound},
	}

	for _, tc := range cases {
		if got := StatusToErr(tc.status); !errors.Is(got, tc.want) {
			t.Errorf("status %d: expected %v, got %v", tc.status, tc.want, got)
		}
	}

	if got := StatusToErr(500); !errors.Is(got, ErrNetwork) {
		t.Errorf("expected ErrNetwork for 500, got %v", got)
	}
}
