package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/Network1945/backend/internal/metrics"
)

const (
	writeDeadline     = 5 * time.Second
	pingInterval      = 30 * time.Second
	pongDeadline      = 60 * time.Second
	messageBufferSize = 16
)

// Close codes on the room socket. 4400/4401 follow the original deployment's
// convention for application-level rejections.
const (
	CloseNormal       = websocket.CloseNormalClosure
	CloseInternal     = websocket.CloseInternalServerErr
	CloseBadRequest   = 4400
	CloseUnauthorized = 4401
)

// Conn wraps a websocket connection with a single writer goroutine: all
// outbound frames (messages, pings, close) are serialized through it, so
// concurrent sends from the session task and the broadcaster are safe.
type Conn struct {
	connection  *websocket.Conn
	clock       clockwork.Clock
	sendChannel chan []byte
	doneChannel chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

// NewConn wraps an upgraded websocket connection and starts its writer.
func NewConn(connection *websocket.Conn, clock clockwork.Clock) *Conn {
	cw := &Conn{
		connection:  connection,
		clock:       clock,
		sendChannel: make(chan []byte, messageBufferSize),
		doneChannel: make(chan struct{}),
	}
	cw.configurePongHandler()
	cw.wg.Add(1)
	go cw.run()
	return cw
}

// Send enqueues a frame for delivery. Never blocks: if the client cannot keep
// up the frame is dropped, and the presence ticker repairs the view shortly.
func (cw *Conn) Send(payload []byte) {
	select {
	case cw.sendChannel <- payload:
	case <-cw.doneChannel:
	default:
		metrics.BroadcastDropped.Inc()
	}
}

// ReadMessage blocks for the next inbound frame. Only the gateway's read loop
// may call it.
func (cw *Conn) ReadMessage() ([]byte, error) {
	_, data, err := cw.connection.ReadMessage()
	return data, err
}

// Close stops the writer, sends a close frame with the given code, and closes
// the underlying connection. Safe to call more than once.
func (cw *Conn) Close(code int, reason string) {
	cw.stopOnce.Do(func() {
		// Stop the writer first so the close frame is not interleaved with a
		// pending message write.
		close(cw.doneChannel)
		cw.wg.Wait()

		closeMsg := websocket.FormatCloseMessage(code, reason)
		cw.updateWriteDeadline()
		_ = cw.connection.WriteMessage(websocket.CloseMessage, closeMsg)
		_ = cw.connection.Close()
	})
}

func (cw *Conn) run() {
	ticker := cw.clock.NewTicker(pingInterval)
	defer ticker.Stop()
	defer cw.wg.Done()

	for {
		select {
		case msg, ok := <-cw.sendChannel:
			if !ok {
				return
			}
			cw.updateWriteDeadline()
			if err := cw.connection.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.Chan():
			cw.updateWriteDeadline()
			if err := cw.connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-cw.doneChannel:
			return
		}
	}
}

func (cw *Conn) configurePongHandler() {
	cw.updateReadDeadline()
	cw.connection.SetPongHandler(func(string) error {
		cw.updateReadDeadline()
		return nil
	})
}

func (cw *Conn) updateWriteDeadline() {
	_ = cw.connection.SetWriteDeadline(cw.clock.Now().Add(writeDeadline))
}

func (cw *Conn) updateReadDeadline() {
	_ = cw.connection.SetReadDeadline(cw.clock.Now().Add(pongDeadline))
}
