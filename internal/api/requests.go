package api

import (
	"net/http"

	"sharehub/internal/models"
)

func (s *Server) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	requestorID, err := userID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var body struct {
		Description string `json:"description"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	request, err := s.requests.CreateRequest(r.Context(), requestorID, body.Description)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, request)
}

func (s *Server) handleGetUserRequests(w http.ResponseWriter, r *http.Request) {
	requestorID, err := userID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	views, err := s.requests.GetUserRequests(r.Context(), requestorID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if views == nil {
		views = []*models.ItemRequestView{}
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetAllRequests(w http.ResponseWriter, r *http.Request) {
	callerID, err := userID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	from, size, err := pagination(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	views, err := s.requests.GetAllRequests(r.Context(), callerID, from, size)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if views == nil {
		views = []*models.ItemRequestView{}
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	callerID, err := userID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	requestID, err := pathID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request id")
		return
	}

	view, err := s.requests.GetRequest(r.Context(), callerID, requestID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
