package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	identityapp "github.com/ledgerly/backend/internal/application/identity"
	"github.com/ledgerly/backend/internal/domain/identity"
	"github.com/ledgerly/backend/internal/domain/shared"
)

// AccountResolverHandler handles phone-to-account resolution endpoints.
//
// Unlike the ledger endpoints this handler speaks a fixed wire contract
// consumed by external login flows, so responses are plain JSON objects
// rather than the standard envelope.
type AccountResolverHandler struct {
	BaseHandler
	resolverService *identityapp.ResolverService
}

// NewAccountResolverHandler creates a new AccountResolverHandler
func NewAccountResolverHandler(resolverService *identityapp.ResolverService) *AccountResolverHandler {
	return &AccountResolverHandler{resolverService: resolverService}
}

// ResolveAccountRequest is the request body for account resolution
type ResolveAccountRequest struct {
	PhoneNumber string `json:"phone_number" binding:"required,phone"`
}

// ResolveAccount resolves a phone number to the account email(s) registered
// under it across all tenants.
//
// Responses:
//
//	200 {"email": "...", "multipleAccounts": false}   single match
//	200 {"emails": [...], "multipleAccounts": true}   phone registered in several tenants
//	400 {"error": "Invalid phone number format"}
//	404 {"error": "No account found for this phone number"}
//	500 {"error": "..."}
func (h *AccountResolverHandler) ResolveAccount(c *gin.Context) {
	var req ResolveAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid phone number format"})
		return
	}

	resolution, err := h.resolverService.Resolve(c.Request.Context(), req.PhoneNumber)
	if err != nil {
		if shared.IsValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid phone number format"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	switch resolution.Kind {
	case identity.ResolutionNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "No account found for this phone number"})
	case identity.ResolutionMultipleMatches:
		c.JSON(http.StatusOK, gin.H{
			"emails":           resolution.Emails,
			"multipleAccounts": true,
		})
	default:
		c.JSON(http.StatusOK, gin.H{
			"email":            resolution.Email(),
			"multipleAccounts": false,
		})
	}
}

// RegisterRoutes registers resolver routes. OPTIONS preflight is answered by
// the CORS middleware before routing.
func (h *AccountResolverHandler) RegisterRoutes(rg *gin.RouterGroup) {
	auth := rg.Group("/auth")
	auth.POST("/resolve-account", h.ResolveAccount)
}
