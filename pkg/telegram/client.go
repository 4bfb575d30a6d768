package telegram

import (
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Client posts dispatch messages to a single Telegram chat.
type Client struct {
	Bot    *tgbotapi.BotAPI
	ChatID int64
}

func NewClient(token string, chatID int64) (*Client, error) {
	return NewClientWithEndpoint(token, chatID, tgbotapi.APIEndpoint, &http.Client{Timeout: 10 * time.Second})
}

// NewClientWithEndpoint talks to a custom Bot API endpoint, a format string
// taking the token and the method name.
func NewClientWithEndpoint(token string, chatID int64, endpoint string, httpClient tgbotapi.HTTPClient) (*Client, error) {
	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, httpClient)
	if err != nil {
		return nil, err
	}

	return &Client{
		Bot:    bot,
		ChatID: chatID,
	}, nil
}

// Notify sends message to the dispatch chat.
func (c *Client) Notify(message string) error {
	msg := tgbotapi.NewMessage(c.ChatID, message)
	_, err := c.Bot.Send(msg)
	return err
}
