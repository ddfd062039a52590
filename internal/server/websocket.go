package server

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"faqchat/internal/protocol"
)

// handleWebsocket serves one chat connection. Each text frame is hydrated,
// answered and written back before the next one is read. A frame that cannot
// be answered is logged and skipped; the connection stays open.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	logger := s.logger.With().Str("conn_id", uuid.NewString()).Logger()
	logger.Info().Str("remote", r.RemoteAddr).Msg("chat connected")

	ctx := r.Context()
	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn().Err(err).Msg("chat connection lost")
			} else {
				logger.Info().Msg("chat disconnected")
			}
			return
		}
		if mt != websocket.TextMessage {
			continue
		}

		req, err := s.requests.Unmarshal(data)
		if err != nil {
			logger.Warn().Err(err).Msg("invalid request")
			continue
		}
		resp, err := s.faq.Respond(ctx, req)
		if err != nil {
			logger.Warn().Err(err).Str("type", req.Type()).Msg("failed to respond")
			continue
		}
		frame, err := protocol.Marshal(resp)
		if err != nil {
			logger.Error().Err(err).Str("type", resp.Type()).Msg("failed to encode response")
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			logger.Warn().Err(err).Msg("write failed")
			return
		}
		logger.Debug().Str("request", req.Type()).Str("response", resp.Type()).Msg("answered")
	}
}
