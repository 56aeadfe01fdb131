package httpapi

import (
	"net/http"
	"time"

	"github.com/bellum/bellum/pkg/domain"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// writeWait bounds how long a single websocket write may block, mirroring
// the teacher's writePump deadlines.
const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// streamMessage is one frame pushed down a /runs/{id}/stream socket.
type streamMessage struct {
	Type     string               `json:"type"`
	Solution *SolutionSummaryDto  `json:"solution,omitempty"`
	Error    string               `json:"error,omitempty"`
}

// serveRunStream upgrades the connection and relays every solution
// rs.append()s until the run finishes or the client disconnects. Unlike
// the teacher's WebSocketHub, there is exactly one topic per connection —
// a run's own solution stream — so no subscribe/unsubscribe handshake is
// needed; the socket closes when the run does.
func (s *Server) serveRunStream(c *gin.Context, rs *runState) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ch := rs.subscribe()
	defer rs.unsubscribe(ch)

	// Replay what's already accumulated before the client caught up, then
	// drain ch until it closes (run finished) or the write fails.
	existing, done, runErr := rs.snapshot()
	for _, solution := range existing {
		if !s.pushSolution(conn, solution) {
			return
		}
	}
	if runErr != nil {
		s.pushStreamError(conn, runErr)
		return
	}
	if done {
		return
	}

	for solution := range ch {
		if !s.pushSolution(conn, solution) {
			return
		}
	}

	if _, _, runErr := rs.snapshot(); runErr != nil {
		s.pushStreamError(conn, runErr)
	}
}

func (s *Server) pushSolution(conn *websocket.Conn, solution domain.SchedulerSolution) bool {
	dto := NewSolutionSummaryDto([]domain.SchedulerSolution{solution})
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(streamMessage{Type: "solution", Solution: &dto}) == nil
}

func (s *Server) pushStreamError(conn *websocket.Conn, err error) {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = conn.WriteJSON(streamMessage{Type: "error", Error: err.Error()})
}
