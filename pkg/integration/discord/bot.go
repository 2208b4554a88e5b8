package discord

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/mklimuk/thoughtflow/pkg/capture"
)

// Bot relays Discord messages into thought capture.
type Bot struct {
	Session *discordgo.Session
	Capture *capture.Service
}

// NewBot creates a new Discord bot
func NewBot(token string, svc *capture.Service) (*Bot, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}

	bot := &Bot{
		Session: dg,
		Capture: svc,
	}

	dg.AddHandler(bot.messageCreate)

	return bot, nil
}

// Start opens the websocket connection
func (b *Bot) Start() error {
	return b.Session.Open()
}

// Stop closes the websocket connection
func (b *Bot) Stop() error {
	return b.Session.Close()
}

func (b *Bot) messageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	// Ignore messages from self
	if m.Author == nil || m.Author.ID == s.State.User.ID {
		return
	}

	cmd, content := ParseCommand(m.Content)
	switch cmd {
	case "!think":
		b.handleThink(s, m, content)
	case "!status":
		b.send(s, m, "Thoughtflow is online. Use !think <text> to file a thought.")
	}
}

func (b *Bot) handleThink(s *discordgo.Session, m *discordgo.MessageCreate, content string) {
	pt, err := b.Capture.Capture(context.Background(), content, nil, nil)
	if err != nil {
		b.send(s, m, fmt.Sprintf("Error filing thought: %v", err))
		return
	}
	b.send(s, m, "Filed under "+pt.Destination.Display())
}

func (b *Bot) send(s *discordgo.Session, m *discordgo.MessageCreate, text string) {
	if _, err := s.ChannelMessageSend(m.ChannelID, text); err != nil {
		log.Printf("Failed to send Discord reply: %v", err)
	}
}

// ParseCommand extracts the command and content from a message text.
// Returns the command ("!think", "!status") and the remaining content;
// anything else yields an empty command.
func ParseCommand(text string) (command, content string) {
	if strings.HasPrefix(text, "!think ") {
		return "!think", strings.TrimSpace(strings.TrimPrefix(text, "!think "))
	}
	if strings.TrimSpace(text) == "!status" {
		return "!status", ""
	}
	return "", text
}
