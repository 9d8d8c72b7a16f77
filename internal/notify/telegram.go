package notify

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Telegram messages are capped at 4096 characters.
const telegramMessageLimit = 4096

// TelegramNotifier posts messages to a Telegram chat through the Bot
// API.
type TelegramNotifier struct {
	token      string
	chatID     string
	baseURL    string
	httpClient *http.Client
}

var _ Notifier = (*TelegramNotifier)(nil)

// NewTelegramNotifier builds a notifier for the given bot token and
// chat id.
func NewTelegramNotifier(token, chatID string) *TelegramNotifier {
	return &TelegramNotifier{
		token:   token,
		chatID:  chatID,
		baseURL: "https://api.telegram.org",
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Notify sends the message, truncating it to the Telegram limit.
func (t *TelegramNotifier) Notify(message string) error {
	if len(message) > telegramMessageLimit {
		message = message[:telegramMessageLimit-3] + "..."
	}

	params := url.Values{}
	params.Set("chat_id", t.chatID)
	params.Set("text", message)

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)
	resp, err := t.httpClient.Post(endpoint, "application/x-www-form-urlencoded", strings.NewReader(params.Encode()))
	if err != nil {
		return fmt.Errorf("error sending telegram message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API returned status %d", resp.StatusCode)
	}

	var body struct {
		Ok bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("error decoding telegram response: %w", err)
	}
	if !body.Ok {
		return fmt.Errorf("telegram API reported failure")
	}
	return nil
}
