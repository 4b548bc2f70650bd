package streamdeck

import (
	"errors"
	"fmt"
	"strings"

	json "github.com/json-iterator/go"
)

// ErrInvalidRegistration is returned when the host's launch parameters are unusable.
var ErrInvalidRegistration = errors.New("invalid registration parameters")

// Launch flag names used by the host. The host passes them with a single dash.
const (
	FlagPort          = "port"
	FlagPluginUUID    = "pluginUUID"
	FlagRegisterEvent = "registerEvent"
	FlagInfo          = "info"
)

var hostFlags = []string{FlagPort, FlagPluginUUID, FlagRegisterEvent, FlagInfo}

// Registration holds everything needed to connect and register with the host.
type Registration struct {
	Port          int
	PluginUUID    string
	RegisterEvent string
	Info          Info
}

// ApplicationInfo describes the host application.
type ApplicationInfo struct {
	Font            string `json:"font,omitempty"`
	Language        string `json:"language"`
	Platform        string `json:"platform"`
	PlatformVersion string `json:"platformVersion,omitempty"`
	Version         string `json:"version"`
}

// PluginInfo describes this plugin as the host sees it.
type PluginInfo struct {
	UUID    string `json:"uuid,omitempty"`
	Version string `json:"version"`
}

// Info is the JSON blob passed with -info.
type Info struct {
	Application      ApplicationInfo   `json:"application"`
	Plugin           PluginInfo        `json:"plugin"`
	DevicePixelRatio int               `json:"devicePixelRatio"`
	Devices          []DeviceInfo      `json:"devices"`
	Colors           map[string]string `json:"colors,omitempty"`
}

// ParseRegistration validates the launch parameters and decodes the info blob.
// An empty info string is accepted.
func ParseRegistration(port int, pluginUUID, registerEvent, info string) (Registration, error) {
	reg := Registration{Port: port, PluginUUID: pluginUUID, RegisterEvent: registerEvent}

	if port <= 0 || port > 65535 {
		return reg, fmt.Errorf("%w: port %d is out of range", ErrInvalidRegistration, port)
	}
	if pluginUUID == "" {
		return reg, fmt.Errorf("%w: -%s is required", ErrInvalidRegistration, FlagPluginUUID)
	}
	if registerEvent == "" {
		return reg, fmt.Errorf("%w: -%s is required", ErrInvalidRegistration, FlagRegisterEvent)
	}
	if strings.TrimSpace(info) != "" {
		if err := json.Unmarshal([]byte(info), &reg.Info); err != nil {
			return reg, fmt.Errorf("%w: -%s is not valid JSON: %v", ErrInvalidRegistration, FlagInfo, err)
		}
	}
	return reg, nil
}

// NormalizeHostArgs rewrites "-port 1234" style arguments to "--port 1234" so a
// POSIX flag parser accepts them. Other arguments pass through untouched.
func NormalizeHostArgs(args []string) []string {
	out := make([]string, len(args))
	for i, arg := range args {
		out[i] = arg
		if !strings.HasPrefix(arg, "-") || strings.HasPrefix(arg, "--") {
			continue
		}
		name := strings.TrimPrefix(arg, "-")
		if eq := strings.IndexByte(name, '='); eq >= 0 {
			name = name[:eq]
		}
		for _, f := range hostFlags {
			if name == f {
				out[i] = "-" + arg
				break
			}
		}
	}
	return out
}
