package gateway

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/playerauction/go/internal/auction"
	"github.com/mcdev12/playerauction/go/internal/auction/session"
)

// StateHandler serves read-only auction state over REST
type StateHandler struct {
	session Session
	timeout time.Duration
}

func NewStateHandler(sess Session) *StateHandler {
	return &StateHandler{session: sess, timeout: 5 * time.Second}
}

func (h *StateHandler) view(r *http.Request) (session.View, error) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	return h.session.View(ctx)
}

// HandleGetState handles GET /api/auction/state
func (h *StateHandler) HandleGetState(w http.ResponseWriter, r *http.Request) {
	v, err := h.view(r)
	if err != nil {
		h.viewFailed(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v.Snapshot)
}

// HandleGetTeams handles GET /api/auction/teams
func (h *StateHandler) HandleGetTeams(w http.ResponseWriter, r *http.Request) {
	v, err := h.view(r)
	if err != nil {
		h.viewFailed(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v.State.TeamViews())
}

// HandleGetTeam handles GET /api/auction/teams/{teamID}
func (h *StateHandler) HandleGetTeam(w http.ResponseWriter, r *http.Request) {
	teamID, err := uuid.Parse(chi.URLParam(r, "teamID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid team id")
		return
	}

	v, err := h.view(r)
	if err != nil {
		h.viewFailed(w, err)
		return
	}

	tv, ok := findTeamView(v.State, teamID)
	if !ok {
		writeError(w, http.StatusNotFound, "team not found")
		return
	}
	writeJSON(w, http.StatusOK, tv)
}

func findTeamView(s auction.State, teamID uuid.UUID) (auction.TeamView, bool) {
	for _, tv := range s.TeamViews() {
		if tv.ID == teamID {
			return tv, true
		}
	}
	return auction.TeamView{}, false
}

func (h *StateHandler) viewFailed(w http.ResponseWriter, err error) {
	if errors.Is(err, session.ErrClosed) {
		writeError(w, http.StatusServiceUnavailable, "auction session stopped")
		return
	}
	log.Error().Err(err).Msg("failed to read auction state")
	writeError(w, http.StatusGatewayTimeout, "auction state unavailable")
}
