package discord

//go:generate mockgen -destination=mock/mock_announcer.go -package=mockdiscord -source=announcer.go Announcer

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/KirkDiggler/narrative-service/internal/domain/character"
	apperr "github.com/KirkDiggler/narrative-service/internal/errors"
)

const embedColor = 0x5865F2

// Announcer publishes finished characters somewhere players can see them
type Announcer interface {
	Announce(ctx context.Context, profile *character.Profile) error
}

// webhookExecutor is the part of *discordgo.Session the announcer needs
type webhookExecutor interface {
	WebhookExecute(webhookID, token string, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// WebhookConfig configures the webhook announcer
type WebhookConfig struct {
	WebhookID    string
	WebhookToken string
	Logger       *zap.Logger
}

type webhookAnnouncer struct {
	session   webhookExecutor
	webhookID string
	token     string
	logger    *zap.Logger
}

// NewAnnouncer returns a webhook announcer, or a no-op one when no webhook is configured
func NewAnnouncer(cfg *WebhookConfig) (Announcer, error) {
	if cfg == nil || cfg.WebhookID == "" || cfg.WebhookToken == "" {
		return NopAnnouncer{}, nil
	}

	// Webhook execution is authorized by the webhook token, no bot token needed.
	session, err := discordgo.New("")
	if err != nil {
		return nil, apperr.Wrap(err, "failed to create discord session")
	}

	return newWebhookAnnouncer(session, cfg), nil
}

func newWebhookAnnouncer(session webhookExecutor, cfg *WebhookConfig) *webhookAnnouncer {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &webhookAnnouncer{
		session:   session,
		webhookID: cfg.WebhookID,
		token:     cfg.WebhookToken,
		logger:    logger,
	}
}

func (a *webhookAnnouncer) Announce(ctx context.Context, profile *character.Profile) error {
	if profile == nil {
		return apperr.InvalidArgument("profile is required")
	}

	params := &discordgo.WebhookParams{
		Username: "Narrator",
		Embeds:   []*discordgo.MessageEmbed{BuildProfileEmbed(profile)},
	}

	if _, err := a.session.WebhookExecute(a.webhookID, a.token, false, params, discordgo.WithContext(ctx)); err != nil {
		return apperr.WrapWithCode(err, apperr.CodeUnavailable, "failed to announce character").
			WithMeta("character", profile.Name)
	}

	a.logger.Debug("announced character", zap.String("name", profile.Name))
	return nil
}

// BuildProfileEmbed renders a character as a Discord embed
func BuildProfileEmbed(profile *character.Profile) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("%s has entered the world", profile.Name),
		Description: profile.Description,
		Color:       embedColor,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Race", Value: profile.Race, Inline: true},
			{Name: "Archetype", Value: profile.Archetype, Inline: true},
			{Name: "Region", Value: profile.StartingRegion, Inline: true},
		},
	}

	if p := profile.Profession; p != nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Profession", Value: p.Name})
		if len(p.Abilities) > 0 {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name:  "Abilities",
				Value: strings.Join(p.Abilities, ", "),
			})
		}
		if p.StarterWeapon != "" {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name:   "Starter Weapon",
				Value:  p.StarterWeapon,
				Inline: true,
			})
		}
	}

	s := profile.Stats
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name: "Stats",
		Value: fmt.Sprintf("STR %d · AGI %d · INT %d · SPI %d · VIT %d",
			s.Strength, s.Agility, s.Intellect, s.Spirit, s.Vitality),
	})

	return embed
}

// NopAnnouncer drops announcements
type NopAnnouncer struct{}

func (NopAnnouncer) Announce(context.Context, *character.Profile) error {
	return nil
}
