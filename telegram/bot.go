package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/igor04091968/tunnel-panel/config"
	"github.com/igor04091968/tunnel-panel/logger"
	"github.com/igor04091968/tunnel-panel/service"
	"github.com/igor04091968/tunnel-panel/util"
	"github.com/igor04091968/tunnel-panel/util/common"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const helpText = "Available commands:\n" +
	"/list - list your tunnels\n" +
	"/cmd <name> - show the cloudflared commands for a tunnel\n" +
	"/help - show this message"

// Bot answers tunnel queries for the Telegram users mapped to panel
// accounts. Everyone else is turned away.
type Bot struct {
	cfg     config.TelegramConfig
	tunnels *service.TunnelService
	users   *service.UserService

	mu     sync.Mutex
	cancel context.CancelFunc
}

func NewBot(cfg config.TelegramConfig, tunnels *service.TunnelService, users *service.UserService) *Bot {
	return &Bot{
		cfg:     cfg,
		tunnels: tunnels,
		users:   users,
	}
}

// Start connects to Telegram and polls for updates until ctx is done or Stop
// is called.
func (t *Bot) Start(ctx context.Context) error {
	if !t.cfg.Enabled || t.cfg.BotToken == "" {
		logger.Info("Telegram bot is disabled or token is not configured.")
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	t.mu.Lock()
	t.cancel = cancel
	t.mu.Unlock()

	b, err := bot.New(t.cfg.BotToken, bot.WithDefaultHandler(t.handler))
	if err != nil {
		cancel()
		return fmt.Errorf("create telegram bot: %w", err)
	}

	logger.Info("Telegram bot started.")
	b.Start(ctx)
	logger.Info("Telegram bot stopped.")
	return nil
}

func (t *Bot) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
}

func (t *Bot) handler(ctx context.Context, b *bot.Bot, update *models.Update) {
	defer common.Recover("telegram handler")
	if update.Message == nil || update.Message.From == nil {
		return
	}
	reply := t.respond(update.Message.From.ID, update.Message.Text)
	if reply == "" {
		return
	}
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   reply,
	})
	if err != nil {
		logger.Warning("telegram send failed: ", err)
	}
}

// respond returns the reply for one message, or "" when nothing should be
// sent.
func (t *Bot) respond(userID int64, text string) string {
	username, ok := t.cfg.Users[userID]
	if !ok {
		return "You are not authorized to use this bot."
	}
	if !strings.HasPrefix(text, "/") {
		return ""
	}

	command, args := parseCommand(text)
	switch command {
	case "/start":
		return "Welcome to the tunnel panel bot. Send /help to see available commands."
	case "/help":
		return helpText
	case "/list":
		owner, ok := t.ownerID(username)
		if !ok {
			return fmt.Sprintf("Panel user %s is not available.", username)
		}
		return t.listTunnels(owner)
	case "/cmd":
		if len(args) != 1 {
			return "Usage: /cmd <name>"
		}
		owner, ok := t.ownerID(username)
		if !ok {
			return fmt.Sprintf("Panel user %s is not available.", username)
		}
		return t.tunnelCommands(owner, args[0])
	default:
		return "Unknown command. Send /help to see available commands."
	}
}

func (t *Bot) ownerID(username string) (string, bool) {
	user, err := t.users.GetUserByUsername(username)
	if err != nil {
		if !errors.Is(err, service.ErrInvalidCredentials) {
			logger.Error("telegram user lookup: ", err)
		}
		return "", false
	}
	return user.ID, true
}

func (t *Bot) listTunnels(owner string) string {
	tunnels, err := t.tunnels.List(owner)
	if err != nil {
		logger.Error("telegram list tunnels: ", err)
		return "Failed to fetch tunnels."
	}
	if len(tunnels) == 0 {
		return "No tunnels yet."
	}
	var b strings.Builder
	b.WriteString("Tunnels:\n")
	for _, tunnel := range tunnels {
		fmt.Fprintf(&b, "%s  %s  %s -> %s:%d\n", tunnel.Name, tunnel.Hostname, tunnel.ServiceType, tunnel.LocalHost, tunnel.LocalPort)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (t *Bot) tunnelCommands(owner string, name string) string {
	tunnel, err := t.tunnels.GetByName(owner, name)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return fmt.Sprintf("Tunnel %q not found.", name)
		}
		logger.Error("telegram get tunnel: ", err)
		return "Failed to fetch tunnel."
	}
	commands := util.GenerateCommands(tunnel)
	return "Create:\n" + commands.ConfigCommand + "\n\nRun:\n" + commands.RunCommand
}

func parseCommand(text string) (string, []string) {
	parts := strings.Fields(text)
	if len(parts) == 0 {
		return "", nil
	}
	// Commands sent in groups carry the bot name: /list@panel_bot
	command, _, _ := strings.Cut(strings.ToLower(parts[0]), "@")
	return command, parts[1:]
}
