package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// AddBridgeRequest registers a bridge. User is an already issued
// username and may be empty for a bridge that still needs pairing.
type AddBridgeRequest struct {
	Host string `json:"host"`
	User string `json:"user"`
}

// handleAddBridge registers a Hue bridge for the caller.
func (s *Server) handleAddBridge(w http.ResponseWriter, r *http.Request) {
	var req AddBridgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	b, err := s.service.AddBridge(r.Context(), userIDFromContext(r.Context()), req.Host, req.User)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": b.ID})
}

// handlePairBridge runs the link-button handshake. Clients retry while
// the response is 401 link_button_not_pressed.
func (s *Server) handlePairBridge(w http.ResponseWriter, r *http.Request) {
	username, err := s.service.PairBridge(r.Context(), userIDFromContext(r.Context()), chi.URLParam(r, "bridgeId"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"username": username})
}

func (s *Server) handleListBridges(w http.ResponseWriter, r *http.Request) {
	bridges, err := s.service.ListBridges(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bridges)
}

func (s *Server) handleDeleteBridge(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteBridge(r.Context(), userIDFromContext(r.Context()), chi.URLParam(r, "bridgeId")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

func (s *Server) handleListScenes(w http.ResponseWriter, r *http.Request) {
	scenes, err := s.service.ListScenes(r.Context(), userIDFromContext(r.Context()), chi.URLParam(r, "bridgeId"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, scenes)
}

// handleActivateScene recalls a scene on a group and echoes the bridge's
// success value.
func (s *Server) handleActivateScene(w http.ResponseWriter, r *http.Request) {
	value, err := s.service.ActivateScene(r.Context(), userIDFromContext(r.Context()),
		chi.URLParam(r, "bridgeId"), chi.URLParam(r, "groupId"), chi.URLParam(r, "sceneId"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"success": value})
}
