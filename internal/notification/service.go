package notification

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/varoOP/animetrack/internal/domain"
)

// Service fans reminders out to every configured channel
type Service struct {
	log     zerolog.Logger
	discord *DiscordService
}

// NewService creates a new notification service. With no webhook configured
// every send is a no-op.
func NewService(log zerolog.Logger, webhookURL string, httpClient *http.Client) domain.NotificationService {
	var discord *DiscordService
	if webhookURL != "" {
		discord = NewDiscordService(log, webhookURL, httpClient)
	}

	return &Service{
		log:     log.With().Str("module", "notification").Logger(),
		discord: discord,
	}
}

func (s *Service) SendReminder(ctx context.Context, reminder domain.Reminder, airsAt time.Time) error {
	if s.discord == nil {
		s.log.Debug().Int("anime_id", reminder.AnimeID).Msg("no notification channel configured")
		return nil
	}
	return s.discord.SendReminder(ctx, reminder, airsAt)
}
