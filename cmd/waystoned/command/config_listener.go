package command

import (
	"fmt"
	"strings"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-service"
	"github.com/pixil98/go-waystones/internal/listener"
)

type ListenerType int

const (
	ListenerTypeWebsocket ListenerType = iota
)

func (lt *ListenerType) UnmarshalText(text []byte) error {
	switch string(text) {
	case "websocket", "ws":
		*lt = ListenerTypeWebsocket
	default:
		return fmt.Errorf("unknown listener type: %s", text)
	}
	return nil
}

type ListenerConfig struct {
	Protocol ListenerType `json:"protocol"`
	Port     uint16       `json:"port"`
	Path     string       `json:"path,omitempty"`
}

func (cl *ListenerConfig) Validate() error {
	el := errors.NewErrorList()

	if cl.Port == 0 {
		el.Add(fmt.Errorf("port must be set to a positive integer"))
	}
	if strings.ContainsAny(cl.Path, "?# ") {
		el.Add(fmt.Errorf("path %q must not contain a query, fragment or spaces", cl.Path))
	}

	return el.Err()
}

func (cl *ListenerConfig) BuildListener(cm *listener.ConnectionManager) (service.Worker, error) {
	switch cl.Protocol {
	case ListenerTypeWebsocket:
		path := strings.Trim(cl.Path, "/")
		if path == "" {
			path = "ws"
		}
		return listener.NewWebsocketListener(cl.Port, path, cm), nil
	default:
		return nil, fmt.Errorf("unknown listener type: %v", cl.Protocol)
	}
}
