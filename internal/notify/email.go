// Package notify delivers planned notification events over SMTP, best
// effort. When no mail transport is configured the events are logged and
// dropped, so the rest of the system behaves identically with and without
// email.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"taskhub/internal/task"
)

// Emailer sends one plain-text email per event.
type Emailer struct {
	addr   string // SMTP host:port; empty disables delivery
	source string // From address
	logger *slog.Logger
}

// NewEmailer constructs the mail notifier. An empty addr or source turns it
// into a log-only notifier.
func NewEmailer(addr, source string, logger *slog.Logger) *Emailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Emailer{addr: addr, source: source, logger: logger}
}

// Send renders and delivers a single event. Failures are returned for the
// caller to log; they never block or fail the mutation that produced the
// event.
func (n *Emailer) Send(ctx context.Context, ev task.Event) error {
	subject, body := Render(ev)

	if n.addr == "" || n.source == "" {
		n.logger.Info("mail transport not configured, skipping notification",
			slog.String("recipient", ev.Recipient),
			slog.String("subject", subject))
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		n.source, ev.Recipient, subject, body)
	if err := smtp.SendMail(n.addr, nil, n.source, []string{ev.Recipient}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", ev.Recipient, err)
	}

	n.logger.Info("notification sent",
		slog.String("recipient", ev.Recipient),
		slog.String("intent", string(ev.Intent)))
	return nil
}

// Render produces the subject and plain-text body for an event.
func Render(ev task.Event) (subject, body string) {
	p := ev.Payload
	switch ev.Intent {
	case task.IntentStatusChanged:
		return "Task Status Updated",
			fmt.Sprintf("Task %q status changed from %q to %q by %s", p.Title, p.OldStatus, p.NewStatus, p.Actor)

	case task.IntentUrgentEscalation:
		var b strings.Builder
		b.WriteString("THIS TASK IS NOW URGENT - IMMEDIATE ATTENTION REQUIRED\n\n")
		fmt.Fprintf(&b, "Task: %q\n\n", p.Title)
		fmt.Fprintf(&b, "The priority of this task has been changed to URGENT by %s.\n\n", p.Actor)
		fmt.Fprintf(&b, "Description: %s\n\nStatus: %s\n\n", p.Description, p.Status)
		b.WriteString("Please prioritize this task immediately.")
		return "URGENT: Task Priority Changed", b.String()

	case task.IntentAssigned:
		subject = "New Task Assigned"
		var b strings.Builder
		if p.Urgent {
			subject = "URGENT: New Task Assigned"
			b.WriteString("THIS IS AN URGENT TASK - IMMEDIATE ATTENTION REQUIRED\n\n")
		}
		fmt.Fprintf(&b, "You have been assigned to task: %q\n\n", p.Title)
		fmt.Fprintf(&b, "Description: %s\n\nStatus: %s\n\nPriority: %s", p.Description, p.Status, strings.ToUpper(p.Priority))
		if p.DueDate != nil {
			fmt.Fprintf(&b, "\n\nDue Date: %s", *p.DueDate)
		}
		if p.Urgent {
			b.WriteString("\n\nPlease prioritize this task immediately.")
		}
		return subject, b.String()

	case task.IntentUnassigned:
		return "Task Assignment Removed",
			fmt.Sprintf("You have been removed from task: %q", p.Title)

	case task.IntentTaskUpdated:
		return "Task Updated",
			fmt.Sprintf("Task %q was updated by %s. Changed: %s", p.Title, p.Actor, strings.Join(p.ChangedFields, ", "))

	case task.IntentTaskClosed:
		return "Task Closed",
			fmt.Sprintf("Task %q has been closed by %s.\n\nDescription: %s\n\nFinal Status: %s", p.Title, p.Actor, p.Description, p.Status)

	default:
		return "Task Notification", fmt.Sprintf("Task %q was updated by %s", p.Title, p.Actor)
	}
}
