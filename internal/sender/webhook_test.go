package sender

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
)

func TestWebhookSenderSendSuccess(t *testing.T) {
	t.Parallel()

	var gotBody webhookRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}

		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}

		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	s, err := NewWebhookSender(server.URL)
	if err != nil {
		t.Fatalf("NewWebhookSender() error = %v", err)
	}

	email := &Email{
		From:    "Linton Ye <linton@jimulabs.com>",
		To:      "ada@example.com",
		Subject: "Reconnect",
		Text:    "Hi Ada,",
		HTML:    "<p>Hi Ada,</p>",
	}

	if err := s.Send(context.Background(), email); err != nil {
		t.Fatalf("Send() unexpected error: %v", err)
	}

	if gotBody.To != email.To {
		t.Fatalf("request.to = %q, want %q", gotBody.To, email.To)
	}
	if gotBody.Subject != email.Subject {
		t.Fatalf("request.subject = %q, want %q", gotBody.Subject, email.Subject)
	}
	if gotBody.HTML != email.HTML {
		t.Fatalf("request.html = %q, want %q", gotBody.HTML, email.HTML)
	}
}

func TestWebhookSenderStatusClassification(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name          string
		statusCode    int
		wantTransient bool
	}{
		{name: "too many requests is transient", statusCode: http.StatusTooManyRequests, wantTransient: true},
		{name: "bad request is permanent", statusCode: http.StatusBadRequest, wantTransient: false},
		{name: "internal server error is transient", statusCode: http.StatusInternalServerError, wantTransient: true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.statusCode)
				_, _ = w.Write([]byte("transport failed"))
			}))
			defer server.Close()

			s, err := NewWebhookSender(server.URL)
			if err != nil {
				t.Fatalf("NewWebhookSender() error = %v", err)
			}

			err = s.Send(context.Background(), &Email{
				From:    "linton@jimulabs.com",
				To:      "ada@example.com",
				Subject: "Reconnect",
				Text:    "Hi",
			})
			if err == nil {
				t.Fatal("expected error")
			}

			if got := IsTransient(err); got != tc.wantTransient {
				t.Fatalf("IsTransient() = %v, want %v", got, tc.wantTransient)
			}

			var transportErr *TransportError
			if !errors.As(err, &transportErr) {
				t.Fatalf("expected TransportError, got %T", err)
			}
			if transportErr.StatusCode != tc.statusCode {
				t.Fatalf("TransportError.StatusCode = %d, want %d", transportErr.StatusCode, tc.statusCode)
			}
		})
	}
}

func TestWebhookSenderTimeoutIsTransient(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := resty.New()
	client.SetTimeout(30 * time.Millisecond)

	s, err := NewWebhookSenderWithClient(server.URL, client)
	if err != nil {
		t.Fatalf("NewWebhookSenderWithClient() error = %v", err)
	}

	err = s.Send(context.Background(), &Email{
		From:    "linton@jimulabs.com",
		To:      "ada@example.com",
		Subject: "Reconnect",
		Text:    "Hi",
	})
	if err == nil {
		t.Fatal("expected timeout error")
	}

	if !IsTransient(err) {
		t.Fatalf("IsTransient() = false, want true (err=%v)", err)
	}
}

func TestWebhookSenderInvalidEndpoint(t *testing.T) {
	t.Parallel()

	if _, err := NewWebhookSender(""); err == nil {
		t.Fatal("expected error for empty endpoint")
	}
	if _, err := NewWebhookSender("not a url"); err == nil {
		t.Fatal("expected error for malformed endpoint")
	}
}
