package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func TestHealth(t *testing.T) {
	t.Parallel()

	router := New(newTestConfig(), &stubGenerator{}).Router()
	rec := performJSON(t, router, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["status"] != "ok" || body["service"] != "wonderfulgo-api" {
		t.Fatalf("unexpected health body: %#v", body)
	}
}

func TestIndexServesChatPage(t *testing.T) {
	t.Parallel()

	router := New(newTestConfig(), &stubGenerator{}).Router()
	rec := performJSON(t, router, http.MethodGet, "/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html") {
		t.Fatalf("unexpected content type: %q", rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Body.String(), `fetch("/chat"`) {
		t.Fatalf("expected chat page to post to /chat")
	}
}

func TestRequestIDIsEchoedOrGenerated(t *testing.T) {
	t.Parallel()

	router := New(newTestConfig(), &stubGenerator{}).Router()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "client-supplied")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if got := rec.Header().Get(requestIDHeader); got != "client-supplied" {
		t.Fatalf("expected request id to be echoed, got %q", got)
	}

	rec = performJSON(t, router, http.MethodGet, "/health", nil)
	if got := rec.Header().Get(requestIDHeader); len(got) != 36 {
		t.Fatalf("expected generated uuid request id, got %q", got)
	}
}

func TestMetricsEndpointExposesChatCounters(t *testing.T) {
	t.Parallel()

	router := New(newTestConfig(), &stubGenerator{text: "ok"}).Router()
	if rec := performJSON(t, router, http.MethodPost, "/chat", chatBody("散歩の時間は？")); rec.Code != http.StatusOK {
		t.Fatalf("expected chat to succeed, got %d", rec.Code)
	}

	rec := performJSON(t, router, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	out := rec.Body.String()
	for _, name := range []string{
		"wonderfulgo_chat_responses_total",
		"wonderfulgo_gemini_attempts_total",
		"wonderfulgo_http_requests_total",
	} {
		if !strings.Contains(out, name) {
			t.Fatalf("expected metric %s in exposition", name)
		}
	}
}

func TestChatTraceSpansShareRequestTrace(t *testing.T) {
	t.Parallel()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	router := New(newTestConfig(), &stubGenerator{text: "ok"}).WithTracerProvider(tp).Router()
	if rec := performJSON(t, router, http.MethodPost, "/chat", chatBody("散歩の時間は？")); rec.Code != http.StatusOK {
		t.Fatalf("expected chat to succeed, got %d", rec.Code)
	}

	var serverSpan, attemptSpan sdktrace.ReadOnlySpan
	for _, span := range recorder.Ended() {
		switch {
		case span.SpanKind() == trace.SpanKindServer:
			serverSpan = span
		case span.Name() == "gemini.generate":
			attemptSpan = span
		}
	}
	if serverSpan == nil || attemptSpan == nil {
		t.Fatalf("expected server and gemini spans, got %d spans", len(recorder.Ended()))
	}
	if attemptSpan.Parent().SpanID() != serverSpan.SpanContext().SpanID() {
		t.Fatalf("expected gemini span to be a child of the request span")
	}
}
