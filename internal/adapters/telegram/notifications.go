package telegram

import (
	"context"
	"strings"

	"finsight/internal/domain/report"
	"finsight/pkg/errors"
	"finsight/pkg/logger"
	"finsight/pkg/templates"
)

const (
	reportTemplate = "notifications/report"
	maxMessageLen  = 4000
)

// ReportNotifier pushes finished reports to the admin chats
type ReportNotifier struct {
	bot       *Bot
	chatIDs   []int64
	templates *templates.Registry
	log       *logger.Logger
}

// NewReportNotifier creates a notifier. A nil registry uses the embedded templates.
func NewReportNotifier(bot *Bot, chatIDs []int64, tmpl *templates.Registry) *ReportNotifier {
	if tmpl == nil {
		tmpl = templates.Get()
	}
	return &ReportNotifier{
		bot:       bot,
		chatIDs:   chatIDs,
		templates: tmpl,
		log:       logger.Get().With("component", "telegram_notifications"),
	}
}

// NotifyReport renders the report and broadcasts it
func (n *ReportNotifier) NotifyReport(ctx context.Context, r *report.Report) error {
	if len(n.chatIDs) == 0 {
		return nil
	}

	text, err := n.templates.Render(reportTemplate, map[string]string{
		"Title": templates.SafeText(title(r.Kind)),
		"Date":  templates.SafeText(r.DateKey),
		"Text":  templates.SafeText(r.Text),
		"RunID": templates.SafeText(r.RunID),
	})
	if err != nil {
		return errors.Wrap(err, "render report notification")
	}

	chunks := templates.SplitMessage(text, maxMessageLen)
	for _, chunk := range chunks {
		if err := n.bot.BroadcastMessage(ctx, n.chatIDs, chunk); err != nil {
			return err
		}
	}
	n.log.Debug("Report notification sent", "run_id", r.RunID, "chats", len(n.chatIDs), "parts", len(chunks))
	return nil
}

// title turns market_news into "Market News"
func title(k report.Kind) string {
	parts := strings.Split(string(k), "_")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}
