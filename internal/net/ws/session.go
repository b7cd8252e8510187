package ws

import (
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	servernet "github.com/niembro64/rts-prototype-sub002/internal/net"
)

const (
	writeTimeout = 5 * time.Second
	pongTimeout  = 30 * time.Second
	pingInterval = 10 * time.Second

	// commandRate bounds inbound command frames per session so one client
	// cannot saturate the command queue.
	commandRate  = 30
	commandBurst = 60
)

// session is the host-side peer: a websocket plus the write lock gorilla
// requires and the inbound rate limiter.
type session struct {
	conn    *websocket.Conn
	writeCh chan []byte
	done    chan struct{}
	limiter *rate.Limiter
}

func newSession(conn *websocket.Conn) *session {
	s := &session{
		conn:    conn,
		writeCh: make(chan []byte, 32),
		done:    make(chan struct{}),
		limiter: rate.NewLimiter(rate.Limit(commandRate), commandBurst),
	}
	go s.writeLoop()
	return s
}

// SendFrame queues a frame for the write loop. A full queue counts as a
// timed-out peer rather than blocking the broadcast path.
func (s *session) SendFrame(data []byte) error {
	select {
	case <-s.done:
		return servernet.ErrDisconnected
	default:
	}
	select {
	case s.writeCh <- data:
		return nil
	default:
		return servernet.ErrSendTimeout
	}
}

func (s *session) Close() {
	select {
	case <-s.done:
		return
	default:
		close(s.done)
	}
	s.conn.Close()
}

// allowCommand consumes one rate-limit token, reporting false when the
// session is over budget.
func (s *session) allowCommand() bool {
	return s.limiter.Allow()
}

func (s *session) writeLoop() {
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()
	for {
		select {
		case <-s.done:
			return
		case data := <-s.writeCh:
			s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
				s.Close()
				return
			}
		case <-ping.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.Close()
				return
			}
		}
	}
}
