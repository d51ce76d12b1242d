package services

import (
	"context"
	"fmt"
	"sync"

	"ski-forecast-mailer/config"
	"ski-forecast-mailer/models"
	"ski-forecast-mailer/utils"
)

// Transport delivers one fully prepared message.
type Transport interface {
	Send(ctx context.Context, msg models.Message) error
}

// Notifier turns a forecast summary into emails and hands them to a
// Transport according to its dispatch policy.
type Notifier struct {
	transport   Transport
	renderer    *Renderer
	policy      config.DispatchPolicy
	from        string
	concurrency int
	logger      *utils.Logger
}

// NewNotifier creates a Notifier. concurrency bounds parallel sends.
func NewNotifier(transport Transport, renderer *Renderer, policy config.DispatchPolicy,
	from string, concurrency int, logger *utils.Logger) *Notifier {
	return &Notifier{
		transport:   transport,
		renderer:    renderer,
		policy:      policy,
		from:        from,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Compose builds the messages for summary without sending them.
func (n *Notifier) Compose(summary *models.ForecastSummary, recipients []string) ([]models.Message, error) {
	if n.policy == config.Digest {
		if len(summary.Records) == 0 {
			return nil, nil
		}
		body, err := n.renderer.RenderDigest(summary.Records)
		if err != nil {
			return nil, fmt.Errorf("render digest: %w", err)
		}
		subject := fmt.Sprintf("%s-%s-%s", summary.ResortName,
			n.renderer.FormatDate(summary.StartDate), n.renderer.FormatDate(summary.EndDate))
		return []models.Message{n.message(subject, body, recipients)}, nil
	}

	msgs := make([]models.Message, 0, len(summary.Records))
	for _, rec := range summary.Records {
		body, err := n.renderer.Render([]models.ReportingRecord{rec})
		if err != nil {
			return nil, fmt.Errorf("render record %s %s: %w", n.renderer.FormatDate(rec.Date), rec.Time, err)
		}
		subject := fmt.Sprintf("%s-%s", n.renderer.FormatDate(rec.Date), rec.Time)
		msgs = append(msgs, n.message(subject, body, recipients))
	}
	return msgs, nil
}

func (n *Notifier) message(subject, body string, recipients []string) models.Message {
	to := make([]string, len(recipients))
	copy(to, recipients)
	return models.Message{From: n.from, To: to, Subject: subject, HTML: body}
}

// Notify composes and sends every message, waiting for all sends to finish.
// A failed send is logged and recorded in the report; it never stops the
// remaining sends.
func (n *Notifier) Notify(ctx context.Context, summary *models.ForecastSummary, recipients []string) (*models.DispatchReport, error) {
	report := &models.DispatchReport{}
	if len(recipients) == 0 {
		n.logger.Warn("[notifier] Recipient list is empty, nothing to send")
		return report, nil
	}

	msgs, err := n.Compose(summary, recipients)
	if err != nil {
		return report, err
	}
	if len(msgs) == 0 {
		n.logger.Warn("[notifier] No reporting records, nothing to send")
		return report, nil
	}

	pool := utils.NewWorkerPool(n.concurrency)
	n.logger.Info("[notifier] Sending %d message(s) to %d recipient(s) (%s policy, %d worker(s))",
		len(msgs), len(recipients), n.policy, pool.Size())

	var mu sync.Mutex
	for _, msg := range msgs {
		msg := msg
		report.Attempted++
		pool.Submit(func() {
			err := n.transport.Send(ctx, msg)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				err = fmt.Errorf("%w: %q: %v", models.ErrMailSend, msg.Subject, err)
				report.Failures = append(report.Failures, err)
				n.logger.Error("[notifier] %v", err)
				return
			}
			report.Sent++
			n.logger.Info("[notifier] Sent %q to %d recipient(s)", msg.Subject, len(msg.To))
		})
	}
	pool.Wait()

	n.logger.Info("[notifier] Dispatch finished: sent %d, failed %d", report.Sent, len(report.Failures))
	return report, nil
}
