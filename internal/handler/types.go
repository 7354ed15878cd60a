package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pokedex/internal/service"
)

type TypeHandler struct {
	Resolver *service.Resolver
	Logger   *zap.Logger
}

func (h *TypeHandler) Register(r *gin.Engine) {
	group := r.Group("/api/pokemon-types")
	group.GET("", h.listTypes)
	group.GET("/autocomplete", h.autocomplete)
}

// @Summary List known pokemon types
// @Tags types
// @Success 200 {object} apiResponse
// @Router /api/pokemon-types [get]
func (h *TypeHandler) listTypes(c *gin.Context) {
	if h.Resolver == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	types, err := h.Resolver.ListTypes(c.Request.Context())
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("list types failed", zap.Error(err))
		}
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if types == nil {
		types = []string{}
	}
	Ok(c, types, nil)
}

// @Summary Autocomplete pokemon types
// @Tags types
// @Param query query string false "type fragment"
// @Success 200 {object} apiResponse
// @Router /api/pokemon-types/autocomplete [get]
func (h *TypeHandler) autocomplete(c *gin.Context) {
	if h.Resolver == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	types, err := h.Resolver.AutocompleteTypes(c.Request.Context(), c.Query("query"))
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("type autocomplete failed", zap.Error(err))
		}
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if types == nil {
		types = []string{}
	}
	Ok(c, types, nil)
}
