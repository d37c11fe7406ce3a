package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	pkgerrors "github.com/absmach/flclient/pkg/errors"
	"github.com/absmach/flclient/pkg/fl"
	"github.com/absmach/flclient/pkg/mqtt"
)

const (
	baseTopic  = "fl/%s/clients/%s"
	queueSize  = 16
	statusUp   = "online"
	statusDown = "offline"
)

var errConnectionLost = errors.New("broker connection lost")

type MQTTConfig struct {
	BrokerURL string
	SessionID string
	ClientID  string
	Username  string
	Password  string
	QoS       byte
	Timeout   time.Duration
	Codec     fl.Codec
}

// Topics are the per-client MQTT topics of one federated session.
type Topics struct {
	Instructions string
	Replies      string
	Status       string
}

func NewTopics(sessionID, clientID string) Topics {
	base := fmt.Sprintf(baseTopic, sessionID, clientID)

	return Topics{
		Instructions: base + "/instructions",
		Replies:      base + "/replies",
		Status:       base + "/status",
	}
}

// MQTT receives instructions on the client's instruction topic and
// publishes replies on its reply topic.
type MQTT struct {
	ps     mqtt.PubSub
	codec  fl.Codec
	topics Topics
	frames chan []byte
	lost   chan error
	done   chan struct{}
	once   sync.Once
	logger *slog.Logger
}

func DialMQTT(ctx context.Context, cfg MQTTConfig, logger *slog.Logger) (*MQTT, error) {
	t := newMQTT(cfg.Codec, NewTopics(cfg.SessionID, cfg.ClientID), logger)

	ps, err := mqtt.NewPubSub(mqtt.Config{
		URL:              cfg.BrokerURL,
		ClientID:         cfg.ClientID,
		Username:         cfg.Username,
		Password:         cfg.Password,
		QoS:              cfg.QoS,
		Timeout:          cfg.Timeout,
		WillTopic:        t.topics.Status,
		WillPayload:      []byte(statusDown),
		OnConnectionLost: t.ConnectionLost,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", pkgerrors.ErrTransport, err)
	}

	if err := t.start(ctx, ps); err != nil {
		return nil, err
	}

	return t, nil
}

// NewMQTT runs the transport over an already connected PubSub.
func NewMQTT(ctx context.Context, ps mqtt.PubSub, codec fl.Codec, topics Topics, logger *slog.Logger) (*MQTT, error) {
	t := newMQTT(codec, topics, logger)
	if err := t.start(ctx, ps); err != nil {
		return nil, err
	}

	return t, nil
}

func newMQTT(codec fl.Codec, topics Topics, logger *slog.Logger) *MQTT {
	return &MQTT{
		codec:  codec,
		topics: topics,
		frames: make(chan []byte, queueSize),
		lost:   make(chan error, 1),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// start subscribes and announces the client. On failure the PubSub is
// disconnected.
func (t *MQTT) start(ctx context.Context, ps mqtt.PubSub) error {
	t.ps = ps

	err := ps.Subscribe(ctx, t.topics.Instructions, t.handle)
	if err == nil {
		err = ps.Publish(ctx, t.topics.Status, []byte(statusUp))
	}
	if err != nil {
		return fmt.Errorf("%w: %w", pkgerrors.ErrTransport, errors.Join(err, ps.Disconnect(ctx)))
	}
	t.logger.Info("connected to aggregation server", slog.String("topic", t.topics.Instructions))

	return nil
}

func (t *MQTT) handle(_ string, payload []byte) error {
	frame := make([]byte, len(payload))
	copy(frame, payload)

	select {
	case t.frames <- frame:
		return nil
	case <-t.done:
		return errClosed
	}
}

// ConnectionLost makes the next Receive fail. The client never reconnects.
func (t *MQTT) ConnectionLost(err error) {
	if err == nil {
		err = errConnectionLost
	}
	select {
	case t.lost <- err:
	default:
	}
}

func (t *MQTT) Receive(ctx context.Context) (fl.Instruction, error) {
	select {
	case <-ctx.Done():
		return fl.Instruction{}, ctx.Err()
	case <-t.done:
		return fl.Instruction{}, fmt.Errorf("%w: %w", pkgerrors.ErrTransport, errClosed)
	case err := <-t.lost:
		return fl.Instruction{}, fmt.Errorf("%w: %w", pkgerrors.ErrTransport, err)
	case frame := <-t.frames:
		return t.codec.DecodeInstruction(frame)
	}
}

func (t *MQTT) Send(ctx context.Context, r fl.Reply) error {
	data, err := t.codec.EncodeReply(r)
	if err != nil {
		return err
	}
	if err := t.ps.Publish(ctx, t.topics.Replies, data); err != nil {
		return fmt.Errorf("%w: %w", pkgerrors.ErrTransport, err)
	}

	return nil
}

// Close announces the client offline and disconnects from the broker.
func (t *MQTT) Close(ctx context.Context) error {
	var err error
	t.once.Do(func() {
		close(t.done)
		err = errors.Join(
			t.ps.Publish(ctx, t.topics.Status, []byte(statusDown)),
			t.ps.Unsubscribe(ctx, t.topics.Instructions),
			t.ps.Disconnect(ctx),
		)
	})

	return err
}
