package transport

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	pkgerrors "github.com/absmach/flclient/pkg/errors"
	"github.com/absmach/flclient/pkg/fl"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebSocketCloseWithFullQueue(t *testing.T) {
	t.Parallel()

	codec := fl.Codec{}
	data, err := codec.EncodeInstruction(fl.Instruction{Kind: fl.GetParameters})
	require.NoError(t, err)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for range 2 * queueSize {
			if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
				return
			}
		}
		_, _, _ = conn.ReadMessage()
	}))
	defer srv.Close()

	url := WebSocketURL(strings.TrimPrefix(srv.URL, "http://"), "/", "7")
	ws, err := DialWebSocket(context.Background(), url, codec, slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(ws.frames) == queueSize }, 5*time.Second, 10*time.Millisecond)

	closed := make(chan error, 1)
	go func() { closed <- ws.Close(context.Background()) }()

	select {
	case err := <-closed:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("close blocked on the read loop")
	}

	_, err = ws.Receive(context.Background())
	assert.ErrorIs(t, err, pkgerrors.ErrTransport)
}
