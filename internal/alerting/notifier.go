package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/gregor-nelson/spx/internal/logging"
)

// Notification carries the context of one flagged contract.
type Notification struct {
	TriggeredAt     time.Time
	Ticker          string
	Expiration      time.Time
	Strike          decimal.Decimal
	ContractKind    string
	Moneyness       float64
	DTE             int
	Flags           []string
	CurrentVolume   int64
	ReferenceVolume int64
	ReferenceSource string
	Notional        decimal.Decimal
}

// Notifier delivers anomaly notifications to an external channel.
type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}

// TelegramNotifier pushes messages through the Telegram Bot API.
type TelegramNotifier struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
	logger   zerolog.Logger
}

// NewTelegramNotifier constructs a Telegram delivery channel.
func NewTelegramNotifier(botToken, chatID, baseURL string, timeout time.Duration, logger zerolog.Logger) *TelegramNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}

	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		logger:   logging.Component(logger, "alert_telegram"),
	}
}

// Notify posts the rendered message via the sendMessage endpoint.
func (n *TelegramNotifier) Notify(ctx context.Context, note Notification) error {
	payload := map[string]string{
		"chat_id": n.chatID,
		"text":    renderMessage(note),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram unexpected status: %d", resp.StatusCode)
	}

	var result struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil {
		if !result.OK {
			return fmt.Errorf("telegram returned ok=false")
		}
	}

	n.logger.Info().
		Str("ticker", note.Ticker).
		Strs("flags", note.Flags).
		Msg("alert delivered (Telegram)")
	return nil
}

func renderMessage(note Notification) string {
	builder := strings.Builder{}
	builder.WriteString("[SPX Volume Alert]\n")
	builder.WriteString(fmt.Sprintf("Ticker: %s\n", note.Ticker))
	builder.WriteString(fmt.Sprintf("Contract: %s %s strike %s\n", note.Expiration.Format("2006-01-02"), note.ContractKind, note.Strike.StringFixed(2)))
	builder.WriteString(fmt.Sprintf("Moneyness: %.2f (DTE %d)\n", note.Moneyness, note.DTE))
	builder.WriteString(fmt.Sprintf("Flags: %s\n", strings.Join(note.Flags, ",")))
	builder.WriteString(fmt.Sprintf("Volume: %d (reference %d via %s)\n", note.CurrentVolume, note.ReferenceVolume, note.ReferenceSource))
	builder.WriteString(fmt.Sprintf("Notional: $%s\n", note.Notional.StringFixed(0)))
	builder.WriteString(fmt.Sprintf("At: %s ET\n", note.TriggeredAt.Format("2006-01-02 15:04")))
	return builder.String()
}

var _ Notifier = (*TelegramNotifier)(nil)
