package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/enthub-api/internal/domain"
)

const codeSubject = "Your EntHub Login Code"

// Mailer is the email provider the dispatcher delivers through.
type Mailer interface {
	SendHTML(ctx context.Context, to, subject, html string) error
}

// Delivery reports the outcome of a send. Mocked is set when no provider is
// configured and the code was written to the log instead.
type Delivery struct {
	Success bool `json:"success"`
	Mocked  bool `json:"mocked,omitempty"`
}

type Dispatcher interface {
	SendCode(ctx context.Context, email, code string) (Delivery, error)
}

type dispatcher struct {
	mailer Mailer
}

// NewDispatcher returns a dispatcher that sends through mailer. A nil mailer
// selects the local-development fallback that only logs the code.
func NewDispatcher(mailer Mailer) Dispatcher {
	return &dispatcher{mailer: mailer}
}

func (d *dispatcher) SendCode(ctx context.Context, email, code string) (Delivery, error) {
	if d.mailer == nil {
		slog.Info("[MOCK EMAIL]", "to", email, "code", code)
		return Delivery{Success: true, Mocked: true}, nil
	}
	if err := d.mailer.SendHTML(ctx, email, codeSubject, codeBody(code)); err != nil {
		slog.Error("send login code email", "to", email, "err", err)
		return Delivery{}, domain.ErrDelivery
	}
	return Delivery{Success: true}, nil
}

func codeBody(code string) string {
	return fmt.Sprintf("<p>Your login code is: <strong>%s</strong></p><p>It expires in 10 minutes.</p>", code)
}
