package telegram

import (
	"context"
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/mklimuk/thoughtflow/pkg/capture"
	"github.com/mklimuk/thoughtflow/pkg/thought"
)

// Bot relays Telegram messages into thought capture.
type Bot struct {
	API     *tgbotapi.BotAPI
	Capture *capture.Service
	stopCh  chan struct{}
}

// NewBot creates a new Telegram bot
func NewBot(token string, svc *capture.Service) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("error creating Telegram bot: %w", err)
	}

	return &Bot{
		API:     api,
		Capture: svc,
		stopCh:  make(chan struct{}),
	}, nil
}

// Start begins polling for updates in a goroutine
func (b *Bot) Start() error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := b.API.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case <-b.stopCh:
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				if update.Message != nil {
					b.handleMessage(update.Message)
				}
			}
		}
	}()

	return nil
}

// Stop stops polling for updates
func (b *Bot) Stop() {
	close(b.stopCh)
	b.API.StopReceivingUpdates()
}

func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	// Messages without a sender or without text are acknowledged by doing
	// nothing: the relay never errors on malformed payloads.
	if msg.From == nil {
		return
	}
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	if text == "/status" {
		b.reply(msg, "Thoughtflow is online. Send any text to file it.")
		return
	}

	pt, err := b.Capture.Capture(context.Background(), text, nil, nil)
	if err != nil {
		b.reply(msg, fmt.Sprintf("Error filing thought: %v", err))
		return
	}
	b.reply(msg, ConfirmationText(pt.Destination))
}

func (b *Bot) reply(msg *tgbotapi.Message, text string) {
	reply := tgbotapi.NewMessage(msg.Chat.ID, text)
	if _, err := b.API.Send(reply); err != nil {
		log.Printf("Failed to send Telegram reply: %v", err)
	}
}

// ConfirmationText is the reply sent after a thought has been filed.
func ConfirmationText(d thought.Destination) string {
	return "Filed under " + d.Display()
}
