package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nikoksr/notify"
	"github.com/nikoksr/notify/service/mail"
)

// Sender delivers one notification.
type Sender interface {
	Send(ctx context.Context, subject, message string) error
}

// RiskAlerter e-mails operators when a cycle reports a container at the
// configured risk level.
type RiskAlerter struct {
	risk       string
	recipients []string
	newSender  func() Sender
}

// NewRiskAlerter creates an alerter that sends through SMTP.
func NewRiskAlerter(risk, smtpHost string, smtpPort int, smtpUser, smtpPassword string, recipients []string) *RiskAlerter {
	return &RiskAlerter{
		risk:       risk,
		recipients: recipients,
		newSender: func() Sender {
			// AddReceivers accumulates; one mail service per alert.
			mailSvc := mail.New(smtpUser, fmt.Sprintf("%s:%d", smtpHost, smtpPort))
			mailSvc.AuthenticateSMTP("", smtpUser, smtpPassword, smtpHost)
			mailSvc.AddReceivers(recipients...)

			n := notify.New()
			n.UseServices(mailSvc)
			return n
		},
	}
}

// CycleCompleted sends an alert for a matching track. Send failures are logged.
func (a *RiskAlerter) CycleCompleted(ctx context.Context, c Cycle) {
	if c.Track == nil || !strings.EqualFold(c.Track.Risk, a.risk) {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	subject, body := alertMessage(c)
	if err := a.newSender().Send(ctx, subject, body); err != nil {
		slog.Error("send alert failed",
			"container_id", c.ContainerID,
			"error", err,
			"recipients", a.recipients,
		)
		return
	}

	slog.Info("risk alert sent",
		"container_id", c.ContainerID,
		"risk", c.Track.Risk,
		"recipients", len(a.recipients),
	)
}

func alertMessage(c Cycle) (string, string) {
	t := c.Track
	subject := fmt.Sprintf("[Logistics] Container %s is %s risk", c.ContainerID, strings.ToUpper(t.Risk))

	var b strings.Builder
	fmt.Fprintf(&b, "Container: %s\n", c.ContainerID)
	fmt.Fprintf(&b, "Vessel: %s\n", t.VesselName)
	fmt.Fprintf(&b, "Location: %.6f, %.6f\n", t.Lat, t.Lon)
	fmt.Fprintf(&b, "ETA (UTC): %s\n", t.ETA)
	fmt.Fprintf(&b, "Risk: %s\n", t.Risk)
	if c.Summary != "" {
		fmt.Fprintf(&b, "\n%s\n", c.Summary)
	}
	if c.Error != "" {
		fmt.Fprintf(&b, "\nCycle incomplete: %s\n", c.Error)
	}
	return subject, b.String()
}
