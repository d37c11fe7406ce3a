package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/absmach/flclient/pkg/fl"
)

const (
	KindMQTT      = "mqtt"
	KindWebSocket = "websocket"
)

var (
	ErrUnsupportedKind = errors.New("unsupported transport kind")
	errClosed          = errors.New("transport closed")
)

// Transport carries instructions from and replies to the aggregation server.
type Transport interface {
	Receive(ctx context.Context) (fl.Instruction, error)
	Send(ctx context.Context, r fl.Reply) error
	Close(ctx context.Context) error
}

type Config struct {
	Kind      string        `toml:"kind"       env:"KIND"       envDefault:"mqtt"`
	SessionID string        `toml:"session_id" env:"SESSION_ID" envDefault:"default"`
	Path      string        `toml:"ws_path"    env:"WS_PATH"    envDefault:"/fl"`
	Username  string        `toml:"username"   env:"USERNAME"`
	Password  string        `toml:"password"   env:"PASSWORD"`
	QoS       byte          `toml:"qos"        env:"QOS"        envDefault:"2"`
	Timeout   time.Duration `toml:"timeout"    env:"TIMEOUT"    envDefault:"30s"`
	Compress  bool          `toml:"compress"   env:"COMPRESS"   envDefault:"false"`
}

// New connects to the aggregation server at host:port with the configured
// transport kind.
func New(ctx context.Context, cfg Config, host string, port uint16, clientID string, logger *slog.Logger) (Transport, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(int(port)))
	codec := fl.Codec{Compress: cfg.Compress}

	switch cfg.Kind {
	case KindMQTT, "":
		return DialMQTT(ctx, MQTTConfig{
			BrokerURL: "tcp://" + addr,
			SessionID: cfg.SessionID,
			ClientID:  clientID,
			Username:  cfg.Username,
			Password:  cfg.Password,
			QoS:       cfg.QoS,
			Timeout:   cfg.Timeout,
			Codec:     codec,
		}, logger)
	case KindWebSocket:
		return DialWebSocket(ctx, WebSocketURL(addr, cfg.Path, clientID), codec, logger)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKind, cfg.Kind)
	}
}
