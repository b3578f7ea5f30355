package httpserver

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bryanwahyu/biaslens/internal/application/session"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
	sendBuffer     = 32
)

// subscriber forwards session statuses to one websocket connection.
type subscriber struct {
	conn *websocket.Conn
	send chan session.Status
	done chan struct{}
	once sync.Once
}

func newSubscriber(conn *websocket.Conn) *subscriber {
	return &subscriber{
		conn: conn,
		send: make(chan session.Status, sendBuffer),
		done: make(chan struct{}),
	}
}

// push never blocks the controller; a slow client loses updates.
func (s *subscriber) push(st session.Status) {
	select {
	case <-s.done:
	case s.send <- st:
	default:
		log.Printf("status update dropped state=%s", st.State)
	}
}

func (s *subscriber) stop() { s.once.Do(func() { close(s.done) }) }

// readPump only handles pongs and close frames; clients send nothing else.
func (s *subscriber) readPump() {
	defer s.stop()
	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *subscriber) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.stop()
		s.conn.Close()
	}()

	for {
		select {
		case st := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(st); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.done:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			s.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// GET /v1/sessions/{id}/events
func (r *Router) handleEvents(w http.ResponseWriter, req *http.Request) error {
	ctrl, err := r.session(req)
	if err != nil {
		return err
	}

	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		// upgrader already answered the client
		log.Printf("websocket upgrade failed session=%s err=%v", ctrl.ID(), err)
		return nil
	}

	sub := newSubscriber(conn)
	unsubscribe := ctrl.Subscribe(sub.push)
	defer unsubscribe()
	sub.push(ctrl.Snapshot().Status)

	log.Printf("events subscribed session=%s remote=%s", ctrl.ID(), req.RemoteAddr)
	go sub.readPump()
	sub.writePump()
	log.Printf("events closed session=%s", ctrl.ID())
	return nil
}

func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set["*"] || set[origin]
	}
}
