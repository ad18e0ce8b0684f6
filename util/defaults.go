package util

// ServiceDefault is the port and protocol suggested for a service type.
type ServiceDefault struct {
	Port     int    `json:"port"`
	Protocol string `json:"protocol"`
}

const DefaultLocalHost = "localhost"

var ServiceDefaults = map[string]ServiceDefault{
	"rdp":   {Port: 3389, Protocol: "rdp"},
	"ssh":   {Port: 22, Protocol: "tcp"},
	"http":  {Port: 80, Protocol: "http"},
	"https": {Port: 443, Protocol: "https"},
	"tcp":   {Port: 8080, Protocol: "tcp"},
	"udp":   {Port: 8080, Protocol: "udp"},
}

var fallbackDefault = ServiceDefault{Port: 8080, Protocol: "http"}

func DefaultsFor(serviceType string) ServiceDefault {
	if d, ok := ServiceDefaults[serviceType]; ok {
		return d
	}
	return fallbackDefault
}
