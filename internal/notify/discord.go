package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const discordTimeout = 10 * time.Second

// Discord posts alerts to a Discord webhook as embeds.
type Discord struct {
	webhookURL string
	httpClient *http.Client
	now        func() time.Time
}

// NewDiscord creates a webhook sender.
func NewDiscord(webhookURL string) (*Discord, error) {
	if webhookURL == "" {
		return nil, fmt.Errorf("webhook URL is required")
	}
	return &Discord{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: discordTimeout},
		now:        time.Now,
	}, nil
}

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type discordEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Color       int            `json:"color"`
	Timestamp   string         `json:"timestamp"`
	Footer      discordFooter  `json:"footer"`
	Fields      []discordField `json:"fields,omitempty"`
}

type discordFooter struct {
	Text string `json:"text"`
}

type discordPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

// Send posts one alert.
func (d *Discord) Send(ctx context.Context, alert Alert) error {
	body, err := json.Marshal(discordPayload{Embeds: []discordEmbed{d.embed(alert)}})
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("discord webhook error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

func (d *Discord) embed(alert Alert) discordEmbed {
	title := fmt.Sprintf("%s NCAA Scraper %s", severityEmoji(alert.Severity), alert.Severity)
	if alert.Division != "" && alert.Gender != "" {
		title += fmt.Sprintf(" - %s %s", titleCase(string(alert.Gender)), strings.ToUpper(string(alert.Division)))
	}

	var fields []discordField
	if alert.Date != "" {
		fields = append(fields, discordField{Name: "📅 Date", Value: alert.Date, Inline: true})
	}
	if alert.Division != "" {
		fields = append(fields, discordField{Name: "🏆 Division", Value: strings.ToUpper(string(alert.Division)), Inline: true})
	}
	if alert.Gender != "" {
		fields = append(fields, discordField{Name: "👥 Gender", Value: titleCase(string(alert.Gender)), Inline: true})
	}
	if alert.GameLink != "" {
		fields = append(fields, discordField{Name: "🔗 Game Link", Value: fmt.Sprintf("[View Game](%s)", alert.GameLink)})
	}

	return discordEmbed{
		Title:       title,
		Description: alert.Message,
		Color:       severityColor(alert.Severity),
		Timestamp:   d.now().UTC().Format(time.RFC3339),
		Footer:      discordFooter{Text: "NCAA Basketball Scraper"},
		Fields:      fields,
	}
}

func severityEmoji(s Severity) string {
	switch s {
	case SeverityError:
		return "🚨"
	case SeverityWarning:
		return "⚠️"
	case SeverityInfo:
		return "ℹ️"
	case SeveritySuccess:
		return "✅"
	case SeverityGameError:
		return "🏀"
	}
	return "📢"
}

func severityColor(s Severity) int {
	switch s {
	case SeverityError:
		return 0xff0000
	case SeverityWarning:
		return 0xffaa00
	case SeverityInfo:
		return 0x0099ff
	case SeveritySuccess:
		return 0x00ff00
	case SeverityGameError:
		return 0xff6600
	}
	return 0x666666
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
