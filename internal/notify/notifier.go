package notify

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Notifier sends out-of-band notices to users (new-login IP, earnings cap
// reached). Delivery is fire-and-forget: failures are logged by callers and
// never block accrual or settlement.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogNotifier writes notices to the application log. It stands in for the
// external mail/SMS collaborator in development and tests.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Send(ctx context.Context, to, subject, body string) error {
	logrus.WithFields(logrus.Fields{
		"to":      to,
		"subject": subject,
	}).Info(body)
	return nil
}

// SendAsync dispatches a notice on a goroutine and logs any failure.
func SendAsync(n Notifier, to, subject, body string) {
	go func() {
		if err := n.Send(context.Background(), to, subject, body); err != nil {
			logrus.Warnf("notification to %s failed: %v", to, err)
		}
	}()
}
