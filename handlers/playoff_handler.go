package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/codearena/platform/middleware"
	"github.com/codearena/platform/services"
)

type PlayoffHandler struct {
	playoffService services.PlayoffService
	defaultLimit   int
}

func NewPlayoffHandler(playoffService services.PlayoffService, defaultLimit int) *PlayoffHandler {
	return &PlayoffHandler{
		playoffService: playoffService,
		defaultLimit:   defaultLimit,
	}
}

// Run starts a playoff tournament over every team's best submission. The
// request blocks until the bracket finishes, mirroring the admin workflow
// of kicking off a run and waiting for the final table.
func (h *PlayoffHandler) Run(w http.ResponseWriter, r *http.Request) {
	role, err := middleware.GetUserRoleFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	limit := h.defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			badRequestResponse(w, r, errors.New("limit must be an integer"))
			return
		}
	}

	run, err := h.playoffService.RunPlayoffs(r.Context(), role, limit)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"ok":  true,
		"run": run,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PlayoffHandler) LatestResults(w http.ResponseWriter, r *http.Request) {
	run, err := h.playoffService.LatestResults(r.Context())
	if err != nil {
		if errors.Is(err, services.ErrNoCompletedRun) {
			writeJSON(w, http.StatusOK, jsonResponse{"results": []interface{}{}, "found": false}, nil)
			return
		}
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"results": run.FinalTable,
		"found":   true,
		"run_id":  run.ID,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PlayoffHandler) MatchesByRound(w http.ResponseWriter, r *http.Request) {
	rounds, err := h.playoffService.ListMatchesByRound(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"rounds": rounds}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
