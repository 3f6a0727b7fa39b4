package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/lumenhub-core/internal/device"
)

// handleListLights returns the lights of every bridge the caller owns.
// Bridges that fail to answer contribute nothing.
func (s *Server) handleListLights(w http.ResponseWriter, r *http.Request) {
	lights, err := s.service.ListAllLights(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lights)
}

func (s *Server) handleGetLight(w http.ResponseWriter, r *http.Request) {
	light, err := s.service.GetLight(r.Context(), userIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, light)
}

// handleSetLightState applies a LightStateCommand. Omitted fields are
// left unchanged.
func (s *Server) handleSetLightState(w http.ResponseWriter, r *http.Request) {
	var cmd device.LightStateCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.service.SetLightState(r.Context(), userIDFromContext(r.Context()), chi.URLParam(r, "id"), cmd); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

// handleListPlugs returns the plugs of every bridge the caller owns.
func (s *Server) handleListPlugs(w http.ResponseWriter, r *http.Request) {
	plugs, err := s.service.ListAllPlugs(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plugs)
}

func (s *Server) handleGetPlug(w http.ResponseWriter, r *http.Request) {
	plug, err := s.service.GetPlug(r.Context(), userIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plug)
}

func (s *Server) handleSetPlugState(w http.ResponseWriter, r *http.Request) {
	var cmd device.PlugStateCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.service.SetPlugState(r.Context(), userIDFromContext(r.Context()), chi.URLParam(r, "id"), cmd); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}
