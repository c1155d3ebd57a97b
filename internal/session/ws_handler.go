package session

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/studykit/studykit/internal/server"
	httperrors "github.com/studykit/studykit/pkg/http/errors"
)

// HandleWebSocket upgrades the HTTP connection for /ws/attempts. The
// token query parameter is optional: attempts work anonymously, a
// valid token just ties the resulting record to the account.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	var userID *uuid.UUID
	if token := r.URL.Query().Get("token"); token != "" {
		claims, err := h.authSvc.ValidateToken(token)
		if err != nil {
			h.logger.Warn().Err(err).Msg("WebSocket token validation failed")
			httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "Invalid token")
			return
		}
		id := claims.UserID
		userID = &id
	}

	conn, err := server.WSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	h.HandleConnection(conn, userID)
}
