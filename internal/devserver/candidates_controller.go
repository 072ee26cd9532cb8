package devserver

import (
	"net/http"

	"refactortrack/internal/candidates"
	"refactortrack/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

func (s *Server) GetCandidates(ctx *gin.Context) {
	var filters candidates.CandidateFilters
	normalize := func() { filters.Skills = splitCSV(filters.Skills) }
	if !s.bindQuery(ctx, "candidate filters", &filters, normalize) {
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Candidates retrieved successfully", s.Store.ListCandidates(filters), nil)
}

func (s *Server) GetCandidate(ctx *gin.Context) {
	candidate, err := s.Store.GetCandidate(ctx.Param("id"))
	if err != nil {
		s.respondStoreError(ctx, "Failed to get candidate", err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Candidate retrieved successfully", candidate, nil)
}

func (s *Server) CreateCandidate(ctx *gin.Context) {
	var req candidates.CreateCandidateRequest
	if !s.bindJSON(ctx, "candidate", &req) {
		return
	}

	candidate, err := s.Store.CreateCandidate(req)
	if err != nil {
		s.respondStoreError(ctx, "Failed to create candidate", err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusCreated, "Candidate created successfully", candidate, nil)
}

func (s *Server) UpdateCandidate(ctx *gin.Context) {
	var req candidates.UpdateCandidateRequest
	if !s.bindJSON(ctx, "candidate update", &req) {
		return
	}

	candidate, err := s.Store.UpdateCandidate(ctx.Param("id"), req)
	if err != nil {
		s.respondStoreError(ctx, "Failed to update candidate", err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Candidate updated successfully", candidate, nil)
}

func (s *Server) DeleteCandidate(ctx *gin.Context) {
	if err := s.Store.DeleteCandidate(ctx.Param("id")); err != nil {
		s.respondStoreError(ctx, "Failed to delete candidate", err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Candidate deleted successfully", nil, nil)
}
