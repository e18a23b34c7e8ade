package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/foodshare/backend/internal/domain"
)

// NotificationStore defines the notification data access interface
// consumed by Notifier.
type NotificationStore interface {
	Create(ctx context.Context, n domain.Notification) (*domain.Notification, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Notification, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
}

// EmailSender abstracts the SMTP mailer so tests can capture sends and
// deployments without SMTP can run with a nil sender.
type EmailSender interface {
	Send(to, subject, body string) error
	SendWithPNG(to, subject, body, filename, dataURI string) error
}

// Notifier delivers in-app notifications and email on a strictly
// best-effort basis. Every method logs failures and returns normally;
// no lifecycle action ever fails because a notification could not be
// delivered. In-app inserts run inline; email goes out on a goroutine
// so a slow SMTP dial never stalls the calling request.
type Notifier struct {
	notifications NotificationStore
	mail          EmailSender
	logger        *slog.Logger
	wg            sync.WaitGroup
}

// NewNotifier creates a Notifier. mail may be nil when SMTP is not
// configured; email sends are then skipped.
func NewNotifier(notifications NotificationStore, mail EmailSender, logger *slog.Logger) *Notifier {
	return &Notifier{notifications: notifications, mail: mail, logger: logger}
}

// Notify records an in-app notification for one user.
func (n *Notifier) Notify(ctx context.Context, userID uuid.UUID, typ domain.NotificationType, title, message string) {
	defer n.recover("notify")
	_, err := n.notifications.Create(ctx, domain.Notification{
		UserID:  userID,
		Title:   title,
		Message: message,
		Type:    typ,
	})
	if err != nil {
		n.logger.Error("create notification failed",
			"user_id", userID, "type", typ, "error", err)
	}
}

// Email sends a plain-text email when a sender is configured. The send
// happens asynchronously.
func (n *Notifier) Email(to, subject, body string) {
	if n.mail == nil || to == "" {
		return
	}
	n.dispatch(to, subject, func() error {
		return n.mail.Send(to, subject, body)
	})
}

// EmailWithQR sends an email carrying the donation's QR code PNG. The
// send happens asynchronously.
func (n *Notifier) EmailWithQR(to, subject, body, dataURI string) {
	if n.mail == nil || to == "" || dataURI == "" {
		return
	}
	n.dispatch(to, subject, func() error {
		return n.mail.SendWithPNG(to, subject, body, "pickup-qr.png", dataURI)
	})
}

// Wait blocks until in-flight email sends finish. Called on shutdown so
// queued mail is not dropped.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

func (n *Notifier) dispatch(to, subject string, send func() error) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		defer n.recover("email")
		if err := send(); err != nil {
			n.logger.Error("send email failed", "to", to, "subject", subject, "error", err)
		}
	}()
}

func (n *Notifier) recover(op string) {
	if r := recover(); r != nil {
		n.logger.Error("notifier panic recovered", "op", op, "panic", r)
	}
}
