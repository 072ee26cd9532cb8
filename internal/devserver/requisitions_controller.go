package devserver

import (
	"net/http"

	"refactortrack/internal/requisitions"
	"refactortrack/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

func (s *Server) GetRequisitions(ctx *gin.Context) {
	var filters requisitions.RequisitionFilters
	if !s.bindQuery(ctx, "requisition filters", &filters, nil) {
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Requisitions retrieved successfully", s.Store.ListRequisitions(filters), nil)
}

func (s *Server) GetRequisition(ctx *gin.Context) {
	req, err := s.Store.GetRequisition(ctx.Param("id"))
	if err != nil {
		s.respondStoreError(ctx, "Failed to get requisition", err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Requisition retrieved successfully", req, nil)
}

func (s *Server) CreateRequisition(ctx *gin.Context) {
	var body requisitions.CreateRequisitionRequest
	if !s.bindJSON(ctx, "requisition", &body) {
		return
	}

	req, err := s.Store.CreateRequisition(body)
	if err != nil {
		s.respondStoreError(ctx, "Failed to create requisition", err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusCreated, "Requisition created successfully", req, nil)
}

func (s *Server) UpdateRequisition(ctx *gin.Context) {
	var body requisitions.UpdateRequisitionRequest
	if !s.bindJSON(ctx, "requisition update", &body) {
		return
	}

	req, err := s.Store.UpdateRequisition(ctx.Param("id"), body)
	if err != nil {
		s.respondStoreError(ctx, "Failed to update requisition", err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Requisition updated successfully", req, nil)
}

// CloseRequisition answers 409 when the requisition is already closed or filled
func (s *Server) CloseRequisition(ctx *gin.Context) {
	var body requisitions.CloseRequisitionRequest
	if !s.bindJSON(ctx, "requisition close", &body) {
		return
	}

	req, err := s.Store.CloseRequisition(ctx.Param("id"), body)
	if err != nil {
		s.respondStoreError(ctx, "Failed to close requisition", err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Requisition closed successfully", req, nil)
}

func (s *Server) DeleteRequisition(ctx *gin.Context) {
	if err := s.Store.DeleteRequisition(ctx.Param("id")); err != nil {
		s.respondStoreError(ctx, "Failed to delete requisition", err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Requisition deleted successfully", nil, nil)
}
