package util

import (
	"fmt"
	"strconv"

	"github.com/igor04091968/tunnel-panel/database/model"
)

const cloudflared = "cloudflared"

// TunnelCommands is the pair of display-only strings shown to the owner of a
// tunnel record. Nothing in the panel executes them.
type TunnelCommands struct {
	ConfigCommand string `json:"configCommand"`
	RunCommand    string `json:"runCommand"`
}

// GenerateCommands renders the cloudflared commands for t. RDP is checked
// before TCP, and either the service type or the protocol selects a branch.
func GenerateCommands(t *model.Tunnel) TunnelCommands {
	return TunnelCommands{
		ConfigCommand: fmt.Sprintf("%s tunnel create %s", cloudflared, t.Name),
		RunCommand:    runCommand(t),
	}
}

func runCommand(t *model.Tunnel) string {
	addr := localAddr(t)
	switch {
	case t.ServiceType == "rdp" || t.Protocol == "rdp":
		return fmt.Sprintf("%s access rdp --hostname %s --url rdp://%s", cloudflared, t.Hostname, addr)
	case t.ServiceType == "tcp" || t.Protocol == "tcp":
		return fmt.Sprintf("%s access tcp --hostname %s --url %s", cloudflared, t.Hostname, addr)
	default:
		service := fmt.Sprintf("%s://%s", t.Protocol, addr)
		return fmt.Sprintf("%s tunnel --hostname %s run %s --url %s", cloudflared, t.Hostname, t.Name, service)
	}
}

func localAddr(t *model.Tunnel) string {
	return t.LocalHost + ":" + strconv.Itoa(t.LocalPort)
}
