package notifications

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/azure/mention-tracker/internal/config"
	"github.com/azure/mention-tracker/internal/models"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

// topItems is how many Hacker News items per query a digest shows
const topItems = 5

// Service handles sending digests via the configured channels
type Service struct {
	config *config.Config
	client *resty.Client
}

// Ensure Service implements Notifier
var _ Notifier = (*Service)(nil)

// TeamsMessage represents a Microsoft Teams message
type TeamsMessage struct {
	Type     string         `json:"@type"`
	Context  string         `json:"@context"`
	Title    string         `json:"title"`
	Text     string         `json:"text"`
	Sections []TeamsSection `json:"sections,omitempty"`
}

type TeamsSection struct {
	ActivityTitle string      `json:"activityTitle,omitempty"`
	ActivityText  string      `json:"activityText,omitempty"`
	Facts         []TeamsFact `json:"facts,omitempty"`
	Markdown      bool        `json:"markdown,omitempty"`
}

type TeamsFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NewService creates a new notification service
func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
		client: resty.New().SetTimeout(30 * time.Second),
	}
}

// SendDigest sends a digest via every configured channel
func (s *Service) SendDigest(digest *models.Digest) error {
	var errors []string

	if s.config.TeamsWebhookURL != "" {
		if err := s.sendToTeams(digest); err != nil {
			logrus.Errorf("Failed to send Teams notification: %v", err)
			errors = append(errors, fmt.Sprintf("Teams: %v", err))
		} else {
			logrus.Info("Successfully sent digest to Teams")
		}
	}

	if s.config.NotificationEmail != "" {
		if err := s.sendEmail(digest); err != nil {
			logrus.Errorf("Failed to send email notification: %v", err)
			errors = append(errors, fmt.Sprintf("Email: %v", err))
		} else {
			logrus.Info("Successfully sent digest via email")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

func (s *Service) sendToTeams(digest *models.Digest) error {
	resp, err := s.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(buildTeamsMessage(digest)).
		Post(s.config.TeamsWebhookURL)

	if err != nil {
		return fmt.Errorf("failed to send Teams message: %w", err)
	}

	if !resp.IsSuccess() {
		return fmt.Errorf("Teams webhook returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	return nil
}

func buildTeamsMessage(digest *models.Digest) *TeamsMessage {
	message := &TeamsMessage{
		Type:    "MessageCard",
		Context: "https://schema.org/extensions",
		Title:   fmt.Sprintf("Mention Digest - %d queries", len(digest.Entries)),
		Text:    fmt.Sprintf("Found %d Hacker News mentions in the last 7 days", digest.TotalMentions()),
	}

	for _, entry := range digest.Entries {
		section := TeamsSection{
			ActivityTitle: entry.Query,
			Markdown:      true,
		}

		if entry.Error != "" {
			section.ActivityText = fmt.Sprintf("Search failed: %s", entry.Error)
			message.Sections = append(message.Sections, section)
			continue
		}

		summary := entry.Result.MentionSummary
		section.Facts = []TeamsFact{
			{Name: "Mentions", Value: fmt.Sprintf("%d", summary.TotalMentions)},
			{Name: "Points", Value: fmt.Sprintf("%d", summary.TotalPoints)},
			{Name: "Comments", Value: fmt.Sprintf("%d", summary.TotalComments)},
			{Name: "Web mentions", Value: fmt.Sprintf("%d", len(entry.Result.WebMentions.Results))},
		}

		var lines []string
		for _, item := range topHits(summary.AllItems) {
			lines = append(lines, fmt.Sprintf("**[%s](%s)** - %d points, %d comments (%s)",
				item.Title, item.HNURL, item.Points, item.Comments, item.CreatedAt.Format("Jan 2")))
		}
		section.ActivityText = strings.Join(lines, "\n\n")

		message.Sections = append(message.Sections, section)
	}

	return message
}

// topHits returns up to topItems hits ordered by points, highest first.
// Hits with equal points keep their input order.
func topHits(hits []models.RawHit) []models.RawHit {
	sorted := make([]models.RawHit, len(hits))
	copy(sorted, hits)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Points > sorted[j].Points
	})

	if len(sorted) > topItems {
		sorted = sorted[:topItems]
	}
	return sorted
}

func (s *Service) sendEmail(digest *models.Digest) error {
	subject := fmt.Sprintf("Mention Digest - %d mentions across %d queries",
		digest.TotalMentions(), len(digest.Entries))

	htmlBody, err := buildEmailHTML(digest)
	if err != nil {
		return fmt.Errorf("failed to build email HTML: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.config.SMTPUsername)
	m.SetHeader("To", s.config.NotificationEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", buildEmailText(digest))
	m.AddAlternative("text/html", htmlBody)

	d := gomail.NewDialer(s.config.SMTPHost, s.config.SMTPPort, s.config.SMTPUsername, s.config.SMTPPassword)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

const emailTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Mention Digest</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .header { background-color: #ff6600; color: white; padding: 20px; border-radius: 5px; }
        .query { background-color: #f5f5f5; padding: 15px; margin: 20px 0; border-radius: 5px; }
        .item { border-left: 4px solid #ff6600; padding: 10px; margin: 10px 0; background-color: #fafafa; }
        .meta { color: #666; font-size: 0.9em; }
        .failed { color: #d13438; }
    </style>
</head>
<body>
    <div class="header">
        <h1>Mention Digest</h1>
        <p>Generated on {{.GeneratedAt.Format "January 2, 2006 at 3:04 PM MST"}}</p>
    </div>

    {{range .Entries}}
    <div class="query">
        <h2>{{.Query}}</h2>
        {{if .Error}}
            <p class="failed">Search failed: {{.Error}}</p>
        {{else}}
            <p><strong>Mentions:</strong> {{.Result.MentionSummary.TotalMentions}}
               | <strong>Points:</strong> {{.Result.MentionSummary.TotalPoints}}
               | <strong>Comments:</strong> {{.Result.MentionSummary.TotalComments}}</p>
            {{range top .Result.MentionSummary.AllItems}}
            <div class="item">
                <a href="{{.HNURL}}" target="_blank">{{.Title}}</a>
                <div class="meta">By {{.Author}} | {{.CreatedAt.Format "Jan 2, 2006"}} | {{.Points}} points | {{.Comments}} comments</div>
            </div>
            {{end}}
            {{range .Result.WebMentions.Results}}
            <div class="item">
                <a href="{{.URL}}" target="_blank">{{.Title}}</a>
                <p>{{.Snippet | truncate 200}}</p>
            </div>
            {{end}}
        {{end}}
    </div>
    {{end}}

    <hr>
    <p><small>This digest was generated automatically by Mention Tracker.</small></p>
</body>
</html>
`

func buildEmailHTML(digest *models.Digest) (string, error) {
	t := template.New("email").Funcs(template.FuncMap{
		"top":      topHits,
		"truncate": truncate,
	})

	t, err := t.Parse(emailTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, digest); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func buildEmailText(digest *models.Digest) string {
	var text strings.Builder

	text.WriteString("MENTION DIGEST\n")
	text.WriteString("==============\n")
	text.WriteString(fmt.Sprintf("Generated: %s\n", digest.GeneratedAt.Format("2006-01-02 15:04:05 MST")))
	text.WriteString(fmt.Sprintf("Total Hacker News mentions: %d\n", digest.TotalMentions()))

	for _, entry := range digest.Entries {
		text.WriteString(fmt.Sprintf("\n%s\n%s\n", entry.Query, strings.Repeat("-", len(entry.Query))))

		if entry.Error != "" {
			text.WriteString(fmt.Sprintf("Search failed: %s\n", entry.Error))
			continue
		}

		summary := entry.Result.MentionSummary
		text.WriteString(fmt.Sprintf("Mentions: %d | Points: %d | Comments: %d\n",
			summary.TotalMentions, summary.TotalPoints, summary.TotalComments))

		for i, item := range topHits(summary.AllItems) {
			text.WriteString(fmt.Sprintf("%d. %s (%d points)\n   %s\n", i+1, item.Title, item.Points, item.HNURL))
		}

		if web := entry.Result.WebMentions; web != nil {
			if web.Error != "" {
				text.WriteString("Web mentions unavailable\n")
			}
			for _, mention := range web.Results {
				text.WriteString(fmt.Sprintf("* %s\n  %s\n", mention.Title, mention.URL))
			}
		}
	}

	text.WriteString("\n---\nThis digest was generated automatically by Mention Tracker.\n")

	return text.String()
}

// truncate cuts s to at most length runes
func truncate(length int, s string) string {
	if utf8.RuneCountInString(s) <= length {
		return s
	}
	return string([]rune(s)[:length]) + "..."
}
