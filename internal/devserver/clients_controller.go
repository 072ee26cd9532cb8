package devserver

import (
	"net/http"

	"refactortrack/internal/clients"
	"refactortrack/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

func (s *Server) GetClients(ctx *gin.Context) {
	var filters clients.ClientFilters
	if !s.bindQuery(ctx, "client filters", &filters, nil) {
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Clients retrieved successfully", s.Store.ListClients(filters), nil)
}

func (s *Server) GetClient(ctx *gin.Context) {
	client, err := s.Store.GetClient(ctx.Param("id"))
	if err != nil {
		s.respondStoreError(ctx, "Failed to get client", err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Client retrieved successfully", client, nil)
}

func (s *Server) CreateClient(ctx *gin.Context) {
	var req clients.CreateClientRequest
	if !s.bindJSON(ctx, "client", &req) {
		return
	}

	client, err := s.Store.CreateClient(req)
	if err != nil {
		s.respondStoreError(ctx, "Failed to create client", err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusCreated, "Client created successfully", client, nil)
}

func (s *Server) UpdateClient(ctx *gin.Context) {
	var req clients.UpdateClientRequest
	if !s.bindJSON(ctx, "client update", &req) {
		return
	}

	client, err := s.Store.UpdateClient(ctx.Param("id"), req)
	if err != nil {
		s.respondStoreError(ctx, "Failed to update client", err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Client updated successfully", client, nil)
}

func (s *Server) DeleteClient(ctx *gin.Context) {
	if err := s.Store.DeleteClient(ctx.Param("id")); err != nil {
		s.respondStoreError(ctx, "Failed to delete client", err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Client deleted successfully", nil, nil)
}
