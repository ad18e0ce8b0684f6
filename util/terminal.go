package util

import (
	"strconv"
	"strings"

	"github.com/igor04091968/tunnel-panel/util/common"
)

const TerminalHelp = `Available commands:
  help - Show this help message
  list - List your tunnels
  create --name <name> --hostname <hostname> [options] - Create a new tunnel
  clear - Clear terminal

Create tunnel options:
  --name <name>        Tunnel name (required)
  --hostname <host>    Public hostname (required)
  --type <type>        Service type (rdp, ssh, http, https, tcp, udp)
  --port <port>        Local port number
  --host <host>        Local host (default: localhost)
  --protocol <proto>   Protocol override

Examples:
  $ create --name rdp-server --hostname rdp.example.com --type rdp
  $ create --name web-app --hostname app.example.com --type http --port 3000
  $ create --name ssh-server --hostname ssh.example.com --type ssh --port 2222`

// CreateArgs is a fully defaulted tunnel description parsed from a terminal
// create line.
type CreateArgs struct {
	Name        string
	ServiceType string
	Hostname    string
	LocalPort   int
	LocalHost   string
	Protocol    string
}

type TerminalCommand struct {
	Verb   string
	Create *CreateArgs
}

// ParseTerminalLine splits a terminal line into its verb and, for create,
// the flag values with service defaults filled in.
func ParseTerminalLine(line string) (*TerminalCommand, error) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return &TerminalCommand{}, nil
	}
	verb := strings.ToLower(parts[0])
	switch verb {
	case "help", "clear", "list":
		return &TerminalCommand{Verb: verb}, nil
	case "create":
		args, err := parseCreate(parts[1:])
		if err != nil {
			return nil, err
		}
		return &TerminalCommand{Verb: verb, Create: args}, nil
	default:
		return nil, common.NewErrorf("unknown command: %s. Type \"help\" for available commands", parts[0])
	}
}

func parseCreate(parts []string) (*CreateArgs, error) {
	flags := make(map[string]string)
	for i := 0; i < len(parts); i += 2 {
		if !strings.HasPrefix(parts[i], "--") {
			return nil, common.NewErrorf("unexpected argument: %s", parts[i])
		}
		if i+1 >= len(parts) {
			return nil, common.NewErrorf("missing value for %s", parts[i])
		}
		key := strings.TrimPrefix(parts[i], "--")
		switch key {
		case "name", "hostname", "type", "service", "port", "host", "protocol":
			flags[key] = parts[i+1]
		default:
			return nil, common.NewErrorf("unknown option: %s", parts[i])
		}
	}

	if flags["name"] == "" || flags["hostname"] == "" {
		return nil, common.NewError("invalid command syntax. Use: create --name <name> --hostname <hostname> [options]")
	}

	serviceType := flags["type"]
	if serviceType == "" {
		serviceType = flags["service"]
	}
	if serviceType == "" {
		serviceType = "http"
	}
	defaults := DefaultsFor(serviceType)

	args := &CreateArgs{
		Name:        flags["name"],
		ServiceType: serviceType,
		Hostname:    flags["hostname"],
		LocalPort:   defaults.Port,
		LocalHost:   DefaultLocalHost,
		Protocol:    defaults.Protocol,
	}
	if p, ok := flags["port"]; ok {
		port, err := strconv.Atoi(p)
		if err != nil || port < 1 || port > 65535 {
			return nil, common.NewErrorf("invalid port: %s", p)
		}
		args.LocalPort = port
	}
	if h, ok := flags["host"]; ok {
		args.LocalHost = h
	}
	if proto, ok := flags["protocol"]; ok {
		args.Protocol = proto
	}
	return args, nil
}
