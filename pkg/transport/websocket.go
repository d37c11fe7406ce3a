package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/absmach/flclient/pkg/errors"
	"github.com/absmach/flclient/pkg/fl"
	"github.com/gorilla/websocket"
)

const closeTimeout = time.Second

type frame struct {
	data []byte
	err  error
}

// WebSocket exchanges binary codec frames with the server over a single
// connection. A normal close from the server ends the session.
type WebSocket struct {
	conn   *websocket.Conn
	codec  fl.Codec
	frames chan frame
	done   chan struct{}
	reader sync.WaitGroup
	mu     sync.Mutex
	once   sync.Once
	logger *slog.Logger
}

func WebSocketURL(addr, path, clientID string) string {
	u := url.URL{
		Scheme:   "ws",
		Host:     addr,
		Path:     "/" + strings.TrimPrefix(path, "/"),
		RawQuery: url.Values{"client_id": {clientID}}.Encode(),
	}

	return u.String()
}

func DialWebSocket(ctx context.Context, rawURL string, codec fl.Codec, logger *slog.Logger) (*WebSocket, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", pkgerrors.ErrTransport, err)
	}

	t := &WebSocket{
		conn:   conn,
		codec:  codec,
		frames: make(chan frame, queueSize),
		done:   make(chan struct{}),
		logger: logger,
	}
	t.reader.Add(1)
	go t.readLoop()
	logger.Info("connected to aggregation server", slog.String("url", rawURL))

	return t, nil
}

func (t *WebSocket) readLoop() {
	defer t.reader.Done()
	defer close(t.frames)

	for {
		mt, data, err := t.conn.ReadMessage()
		if err != nil {
			t.deliver(frame{err: err})

			return
		}
		if mt != websocket.BinaryMessage {
			t.logger.Warn("Ignoring non-binary websocket frame", slog.Int("type", mt))

			continue
		}
		if !t.deliver(frame{data: data}) {
			return
		}
	}
}

// deliver queues f unless the transport has been closed.
func (t *WebSocket) deliver(f frame) bool {
	select {
	case t.frames <- f:
		return true
	case <-t.done:
		return false
	}
}

func (t *WebSocket) Receive(ctx context.Context) (fl.Instruction, error) {
	select {
	case <-t.done:
		return fl.Instruction{}, fmt.Errorf("%w: %w", pkgerrors.ErrTransport, errClosed)
	default:
	}

	select {
	case <-ctx.Done():
		return fl.Instruction{}, ctx.Err()
	case <-t.done:
		return fl.Instruction{}, fmt.Errorf("%w: %w", pkgerrors.ErrTransport, errClosed)
	case f, ok := <-t.frames:
		switch {
		case !ok:
			return fl.Instruction{}, fmt.Errorf("%w: %w", pkgerrors.ErrTransport, errClosed)
		case websocket.IsCloseError(f.err, websocket.CloseNormalClosure):
			return fl.Instruction{Kind: fl.Shutdown}, nil
		case f.err != nil:
			return fl.Instruction{}, fmt.Errorf("%w: %w", pkgerrors.ErrTransport, f.err)
		}

		return t.codec.DecodeInstruction(f.data)
	}
}

func (t *WebSocket) Send(ctx context.Context, r fl.Reply) error {
	data, err := t.codec.EncodeReply(r)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if deadline, ok := ctx.Deadline(); ok {
		if err := t.conn.SetWriteDeadline(deadline); err != nil {
			return fmt.Errorf("%w: %w", pkgerrors.ErrTransport, err)
		}
	}
	if err := t.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return fmt.Errorf("%w: %w", pkgerrors.ErrTransport, err)
	}

	return nil
}

// Close sends a normal close frame and waits for the read loop to stop.
func (t *WebSocket) Close(_ context.Context) error {
	var err error
	t.once.Do(func() {
		close(t.done)

		t.mu.Lock()
		defer t.mu.Unlock()

		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		werr := t.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeTimeout))
		if errors.Is(werr, websocket.ErrCloseSent) {
			werr = nil
		}
		err = errors.Join(werr, t.conn.Close())
		t.reader.Wait()
	})

	return err
}
