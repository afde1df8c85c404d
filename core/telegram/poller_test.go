package telegram

import (
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/halvden/scribebot/core/config"
)

func TestBuildPollerLongpoll(t *testing.T) {
	p := BuildPoller(PollerOptions{RunMode: coreconfig.RunModeLongpoll, LongPollTimeoutSeconds: 30})
	lp, ok := p.(*tele.LongPoller)
	if !ok {
		t.Fatalf("want *tele.LongPoller, got %T", p)
	}
	if lp.Timeout != 30*time.Second {
		t.Errorf("timeout = %v", lp.Timeout)
	}
}

func TestBuildPollerDefaultsTimeout(t *testing.T) {
	p := BuildPoller(PollerOptions{RunMode: coreconfig.RunModeLongpoll})
	lp, ok := p.(*tele.LongPoller)
	if !ok {
		t.Fatalf("want *tele.LongPoller, got %T", p)
	}
	if lp.Timeout != defaultLongPollTimeout {
		t.Errorf("timeout = %v", lp.Timeout)
	}
}

func TestBuildPollerWebhook(t *testing.T) {
	p := BuildPoller(PollerOptions{
		RunMode: "Webhook", // mode comparison is case-insensitive
		Webhook: WebhookOptions{Listen: "0.0.0.0", Port: 8443, URL: "https://bot.example.com/hook"},
	})
	wh, ok := p.(*tele.Webhook)
	if !ok {
		t.Fatalf("want *tele.Webhook, got %T", p)
	}
	if wh.Listen != "0.0.0.0:8443" {
		t.Errorf("listen = %q", wh.Listen)
	}
	if wh.Endpoint == nil || wh.Endpoint.PublicURL != "https://bot.example.com/hook" {
		t.Errorf("endpoint = %+v", wh.Endpoint)
	}
}

func TestBuildPollerUnknownModeFallsBack(t *testing.T) {
	if _, ok := BuildPoller(PollerOptions{RunMode: "carrier-pigeon"}).(*tele.LongPoller); !ok {
		t.Error("unknown modes should fall back to long polling")
	}
}
