package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/varoOP/animetrack/internal/domain"
	"github.com/varoOP/animetrack/internal/schedule"
)

// DiscordService posts reminders to a Discord webhook
type DiscordService struct {
	log        zerolog.Logger
	webhookURL string
	httpClient *http.Client
	now        func() time.Time
}

// NewDiscordService creates a new Discord notification service. httpClient
// may be nil.
func NewDiscordService(log zerolog.Logger, webhookURL string, httpClient *http.Client) *DiscordService {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 10 * time.Second,
		}
	}
	return &DiscordService{
		log:        log.With().Str("module", "notification").Str("type", "discord").Logger(),
		webhookURL: webhookURL,
		httpClient: httpClient,
		now:        time.Now,
	}
}

// SendReminder announces the upcoming broadcast of the reminded anime
func (s *DiscordService) SendReminder(ctx context.Context, reminder domain.Reminder, airsAt time.Time) error {
	if s.webhookURL == "" {
		return nil
	}

	embed := discordEmbed{
		Title:       fmt.Sprintf("%s airs soon", reminder.Title),
		Description: fmt.Sprintf("Next episode in %s", schedule.Countdown(airsAt.Sub(s.now()))),
		URL:         fmt.Sprintf("https://myanimelist.net/anime/%d", reminder.AnimeID),
		Color:       0x2e51a2, // MAL blue
		Timestamp:   airsAt.UTC().Format(time.RFC3339),
		Fields: []discordField{
			{
				Name:   "Airs at",
				Value:  airsAt.Local().Format("Mon 02 Jan 15:04 MST"),
				Inline: true,
			},
			{
				Name:   "Broadcast",
				Value:  broadcastLabel(reminder.Broadcast),
				Inline: true,
			},
		},
	}

	return s.sendWebhook(ctx, discordWebhook{Embeds: []discordEmbed{embed}})
}

func broadcastLabel(b domain.Broadcast) string {
	if b.String != "" {
		return b.String
	}
	return fmt.Sprintf("%s at %s (%s)", b.Day, b.Time, b.Timezone)
}

func (s *DiscordService) sendWebhook(ctx context.Context, payload discordWebhook) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "failed to marshal webhook payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return errors.Wrap(err, "failed to create webhook request")
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to send webhook request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook request failed with status %d", resp.StatusCode)
	}

	s.log.Debug().Msg("Discord notification sent successfully")
	return nil
}

type discordWebhook struct {
	Embeds []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	URL         string         `json:"url,omitempty"`
	Color       int            `json:"color"`
	Timestamp   string         `json:"timestamp,omitempty"`
	Fields      []discordField `json:"fields,omitempty"`
}

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}
