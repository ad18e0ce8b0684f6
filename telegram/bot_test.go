package telegram

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/igor04091968/tunnel-panel/config"
	"github.com/igor04091968/tunnel-panel/database"
	"github.com/igor04091968/tunnel-panel/service"
)

const (
	aliceChat = int64(1001)
	ghostChat = int64(1002)
)

func newTestBot(t *testing.T) (*Bot, *service.TunnelService, string) {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{Type: "sqlite", Path: filepath.Join(t.TempDir(), "bot.db")})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	users := service.NewUserService(db)
	alice, err := users.Register("alice", "password1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	tunnels := service.NewTunnelService(db)
	cfg := config.TelegramConfig{
		Enabled:  true,
		BotToken: "test",
		Users:    map[int64]string{aliceChat: "alice", ghostChat: "ghost"},
	}
	return NewBot(cfg, tunnels, users), tunnels, alice.ID
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		text    string
		command string
		args    []string
	}{
		{"/list", "/list", nil},
		{"/cmd  web ", "/cmd", []string{"web"}},
		{"/LIST@panel_bot", "/list", nil},
		{"", "", nil},
	}
	for _, tt := range tests {
		command, args := parseCommand(tt.text)
		if command != tt.command || len(args) != len(tt.args) {
			t.Errorf("parseCommand(%q) = %q %v", tt.text, command, args)
			continue
		}
		for i := range args {
			if args[i] != tt.args[i] {
				t.Errorf("parseCommand(%q) args = %v", tt.text, args)
			}
		}
	}
}

func TestRespond(t *testing.T) {
	b, tunnels, owner := newTestBot(t)

	if got := b.respond(42, "/list"); !strings.Contains(got, "not authorized") {
		t.Errorf("stranger got %q", got)
	}
	if got := b.respond(aliceChat, "hello"); got != "" {
		t.Errorf("plain text got %q", got)
	}
	if got := b.respond(aliceChat, "/help"); got != helpText {
		t.Errorf("help = %q", got)
	}
	if got := b.respond(aliceChat, "/list"); got != "No tunnels yet." {
		t.Errorf("empty list = %q", got)
	}
	if got := b.respond(ghostChat, "/list"); !strings.Contains(got, "ghost is not available") {
		t.Errorf("unknown panel user got %q", got)
	}

	_, err := tunnels.Create(owner, service.TunnelFields{
		Name:        "ssh-box",
		ServiceType: "ssh",
		Hostname:    "ssh.example.com",
		LocalPort:   service.PortOf(22),
		LocalHost:   "localhost",
		Protocol:    "tcp",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if got := b.respond(aliceChat, "/list"); !strings.Contains(got, "ssh-box  ssh.example.com  ssh -> localhost:22") {
		t.Errorf("list = %q", got)
	}
	want := "Create:\ncloudflared tunnel create ssh-box\n\nRun:\ncloudflared access tcp --hostname ssh.example.com --url localhost:22"
	if got := b.respond(aliceChat, "/cmd ssh-box"); got != want {
		t.Errorf("cmd = %q", got)
	}
	if got := b.respond(aliceChat, "/cmd nope"); got != `Tunnel "nope" not found.` {
		t.Errorf("missing cmd = %q", got)
	}
	if got := b.respond(aliceChat, "/cmd"); !strings.HasPrefix(got, "Usage") {
		t.Errorf("bare cmd = %q", got)
	}
	if got := b.respond(aliceChat, "/restart"); !strings.HasPrefix(got, "Unknown command") {
		t.Errorf("unknown = %q", got)
	}
}

func TestStartDisabled(t *testing.T) {
	b := NewBot(config.TelegramConfig{}, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := b.Start(ctx); err != nil {
		t.Fatalf("disabled Start: %v", err)
	}
	b.Stop()
}
