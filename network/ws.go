package network

import (
	"math"
	"net/http"

	"golang.org/x/time/rate"

	"battlecar/game"
	blog "battlecar/log"
	"battlecar/metrics"
	"battlecar/protocol"
	"battlecar/room"
	"battlecar/world"
)

const inputBurst = 10

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("room")
	if code == "" {
		writeError(w, http.StatusBadRequest, "missing_room", "room query parameter is required")
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("upgrade")
		return
	}
	conn := newWSConn(ws)
	defer conn.Close()
	go conn.pingLoop()

	log := s.log.With().Str(blog.FieldRoom, code).Logger()

	// first message must be hello
	_, msg, err := ws.ReadMessage()
	if err != nil {
		log.Debug().Err(err).Msg("read hello")
		return
	}
	env, err := protocol.DecodeEnvelope(msg)
	if err != nil || env.T != protocol.MsgHello {
		sendError(conn, "expected_hello", "first message must be hello")
		return
	}
	hello, err := protocol.DecodePayload[protocol.Hello](env)
	if err != nil || hello.V != protocol.Version {
		sendError(conn, "bad_version", "unsupported protocol version")
		return
	}

	rm, res, ok := s.join(code, conn, hello.Name)
	if !ok {
		sendError(conn, "room_closed", "room is shutting down")
		return
	}
	metrics.IncConnectedClients()
	defer metrics.DecConnectedClients()
	defer rm.Send(room.Leave{PlayerID: res.PlayerID})
	log = log.With().Str(blog.FieldPlayerID, res.PlayerID).Logger()

	limiter := rate.NewLimiter(rate.Limit(protocol.ClientInputHz), inputBurst)
	for {
		_, msg, err := ws.ReadMessage()
		if err != nil {
			log.Debug().Err(err).Msg("read")
			return
		}
		env, err := protocol.DecodeEnvelope(msg)
		if err != nil {
			sendError(conn, "bad_message", err.Error())
			continue
		}
		switch env.T {
		case protocol.MsgInput:
			if !limiter.Allow() {
				metrics.IncDroppedInput()
				continue
			}
			in, err := protocol.DecodePayload[protocol.Input](env)
			if err != nil {
				sendError(conn, "bad_input", err.Error())
				continue
			}
			rm.Send(room.Input{PlayerID: res.PlayerID, Input: sanitize(in)})
		case protocol.MsgStart:
			st, err := protocol.DecodePayload[protocol.Start](env)
			if err != nil {
				sendError(conn, "bad_start", err.Error())
				continue
			}
			rm.Send(room.Start{PlayerID: res.PlayerID, Mode: st.Mode, Seed: st.Seed})
		case protocol.MsgRestart:
			rm.Send(room.Restart{PlayerID: res.PlayerID})
		default:
			sendError(conn, "unknown_type", "unknown message type "+env.T)
		}
	}
}

// join retries once when the room stopped between lookup and join.
func (s *Server) join(code string, conn room.Conn, name string) (*room.Room, room.JoinResult, bool) {
	for attempt := 0; attempt < 2; attempt++ {
		rm := s.rooms.GetOrCreateRoom(code)
		reply := make(chan room.JoinResult, 1)
		if !rm.Send(room.Join{Conn: conn, Name: name, Reply: reply}) {
			<-rm.Done()
			continue
		}
		select {
		case res := <-reply:
			return rm, res, true
		case <-rm.Done():
		}
	}
	return nil, room.JoinResult{}, false
}

func sanitize(in protocol.Input) game.Input {
	axis := func(v float64) float64 {
		if math.IsNaN(v) {
			return 0
		}
		return world.Clamp(v, -1, 1)
	}
	return game.Input{Ax: axis(in.Ax), Ay: axis(in.Ay)}
}

func sendError(c *wsConn, code, msg string) {
	b, err := protocol.Encode(protocol.MsgError, protocol.Error{Code: code, Msg: msg})
	if err != nil {
		return
	}
	_ = c.Send(b)
}
