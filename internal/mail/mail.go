// Package mail delivers portal notifications: email confirmation on
// registration, and owner notifications on claim and found events.
//
// Delivery is fire-and-forget: a failed send never fails the user action.
// Callers fall back to surfacing the recipient's address or the
// confirmation link directly.
package mail

import (
	"fmt"
	"log/slog"
	"net/smtp"
)

// Message is a single outbound notification.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Notifier sends notifications. Implementations may deliver over SMTP or
// just log locally when no mail server is configured.
type Notifier interface {
	Send(msg Message) error
}

// SMTPNotifier delivers mail through a configured SMTP server.
type SMTPNotifier struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Send delivers one message synchronously.
func (n *SMTPNotifier) Send(msg Message) error {
	addr := fmt.Sprintf("%s:%d", n.Host, n.Port)

	var auth smtp.Auth
	if n.Username != "" {
		auth = smtp.PlainAuth("", n.Username, n.Password, n.Host)
	}

	body := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		n.From, msg.To, msg.Subject, msg.Body)

	if err := smtp.SendMail(addr, auth, n.From, []string{msg.To}, []byte(body)); err != nil {
		return fmt.Errorf("sending mail to %s: %w", msg.To, err)
	}
	return nil
}

// LogNotifier writes notifications to the log instead of sending them.
// Used when no SMTP server is configured and in tests.
type LogNotifier struct{}

// Send logs the message and reports success.
func (LogNotifier) Send(msg Message) error {
	slog.Info("mail notification (not sent, no SMTP configured)",
		"to", msg.To, "subject", msg.Subject)
	return nil
}

// Confirmation builds the registration confirmation message.
func Confirmation(to, confirmURL string) Message {
	return Message{
		To:      to,
		Subject: "Confirm Your Email",
		Body:    fmt.Sprintf("Please click the link to confirm your email: %s", confirmURL),
	}
}

// ItemClaimed builds the owner notification for a claim event.
func ItemClaimed(to, claimer, itemName string) Message {
	return Message{
		To:      to,
		Subject: "Your item has been claimed",
		Body:    fmt.Sprintf("%s has claimed your item %q.", claimer, itemName),
	}
}

// ItemFound builds the owner notification for a found event.
func ItemFound(to, finder, itemName string) Message {
	return Message{
		To:      to,
		Subject: "Your lost item has been found",
		Body:    fmt.Sprintf("%s has found your lost item %q.", finder, itemName),
	}
}
