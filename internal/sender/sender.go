package sender

import "context"

// Sender is the outbound email delivery port. Implementations attempt one
// synchronous delivery; retries are a re-run concern, never handled here.
type Sender interface {
	Send(ctx context.Context, email *Email) error
}

// Email is a fully rendered envelope ready for the transport.
type Email struct {
	From    string
	To      string
	Subject string
	Text    string
	HTML    string
}
