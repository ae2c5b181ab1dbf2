package externalApi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/KotFed0t/patrimoine_tracker_bot/utils"
	"github.com/go-resty/resty/v2"
)

// ProxyChain fetches a target URL directly first, then through each CORS
// relay in order. First well-formed response wins; one pass, no retries.
// Relay templates contain a %s placeholder for the query-escaped target URL
// (e.g. "https://corsproxy.io/?%s"), so the order is data, not control flow.
type ProxyChain struct {
	client    *resty.Client
	templates []string
}

func NewProxyChain(client *resty.Client, templates []string) *ProxyChain {
	return &ProxyChain{client: client, templates: templates}
}

func (p *ProxyChain) Get(ctx context.Context, targetUrl string) ([]byte, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)

	urls := make([]string, 0, len(p.templates)+1)
	urls = append(urls, targetUrl)
	for _, tpl := range p.templates {
		urls = append(urls, fmt.Sprintf(tpl, url.QueryEscape(targetUrl)))
	}

	var lastErr error = ErrNetwork
	for _, u := range urls {
		resp, err := p.client.R().SetContext(ctx).Get(u)
		if err != nil {
			slog.Debug("proxy chain hop failed", slog.String("rqID", rqID), slog.String("url", u), slog.String("err", err.Error()))
			lastErr = fmt.Errorf("%w: %s", ErrNetwork, err.Error())
			continue
		}

		if resp.IsError() {
			slog.Debug("proxy chain hop bad status", slog.String("rqID", rqID), slog.String("url", u), slog.Int("status", resp.StatusCode()))
			lastErr = StatusToErr(resp.StatusCode())
			continue
		}

		body := unwrapRelayEnvelope(resp.Body())
		if !json.Valid(body) {
			slog.Debug("proxy chain hop returned malformed body", slog.String("rqID", rqID), slog.String("url", u))
			lastErr = fmt.Errorf("%w: malformed response", ErrNetwork)
			continue
		}

		return body, nil
	}

	slog.Warn("all proxy chain hops exhausted", slog.String("rqID", rqID), slog.String("targetUrl", targetUrl))
	return nil, lastErr
}

// Some relays (allorigins non-raw mode) wrap the payload as {"contents": "..."}.
func unwrapRelayEnvelope(body []byte) []byte {
	var envelope struct {
		Contents string `json:"contents"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && strings.TrimSpace(envelope.Contents) != "" {
		return []byte(envelope.Contents)
	}
	return body
}

func StatusToErr(status int) error {
	switch status {
	case 403:
		return ErrForbidden
	case 429:
		return ErrRateLimited
	case 404:
		return ErrNotFound
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, status)
	}
}
