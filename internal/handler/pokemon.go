package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pokedex/internal/models"
	"pokedex/internal/service"
)

const defaultPerPage = 20

type PokemonHandler struct {
	Resolver *service.Resolver
	Fetch    *service.FetchService
	Logger   *zap.Logger
}

func (h *PokemonHandler) Register(r *gin.Engine) {
	group := r.Group("/api/pokemons")
	group.GET("", h.listPokemon)
	group.GET("/autocomplete", h.autocomplete)
	group.GET("/:id", h.getPokemon)
	group.POST("/fetch", h.fetchPokemon)
	group.GET("/sync-state", h.listSyncState)
}

type pokemonView struct {
	ID           uint64    `json:"id"`
	APIID        int       `json:"api_id"`
	Name         string    `json:"name"`
	Type         *string   `json:"type"`
	Types        []string  `json:"types"`
	Height       int       `json:"height"`
	HeightCm     int       `json:"height_cm"`
	Weight       int       `json:"weight"`
	WeightKg     float64   `json:"weight_kg"`
	Abilities    []string  `json:"abilities"`
	ImageURL     *string   `json:"image_url"`
	LastSyncedAt time.Time `json:"last_synced_at"`
}

func toPokemonView(item models.Pokemon) pokemonView {
	return pokemonView{
		ID:           item.ID,
		APIID:        item.APIID,
		Name:         item.Name,
		Type:         item.PrimaryType(),
		Types:        item.TypeList(),
		Height:       item.Height,
		HeightCm:     item.HeightCm(),
		Weight:       item.Weight,
		WeightKg:     item.WeightKg().InexactFloat64(),
		Abilities:    item.AbilityList(),
		ImageURL:     item.ImageURL,
		LastSyncedAt: item.LastSyncedAt,
	}
}

// @Summary List pokemon
// @Tags pokemon
// @Param name query string false "name contains"
// @Param type query string false "type"
// @Param page query int false "page (1-based)"
// @Param per_page query int false "page size"
// @Param order_by query string false "order by field"
// @Param ascending query bool false "ascending"
// @Success 200 {object} apiResponse
// @Router /api/pokemons [get]
func (h *PokemonHandler) listPokemon(c *gin.Context) {
	if h.Resolver == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	page := intQuery(c, "page", 1)
	if page < 1 {
		page = 1
	}
	perPage := intQuery(c, "per_page", defaultPerPage)
	if perPage < 1 {
		perPage = defaultPerPage
	}
	orderBy := parseOrder(c.Query("order_by"), map[string]string{
		"api_id":         "api_id",
		"name":           "name",
		"height":         "height",
		"weight":         "weight",
		"last_synced_at": "last_synced_at",
	})
	asc := boolQueryPtr(c, "ascending")

	result, err := h.Resolver.Resolve(c.Request.Context(), service.ResolveParams{
		Name:    c.Query("name"),
		Type:    c.Query("type"),
		Limit:   perPage,
		Offset:  (page - 1) * perPage,
		OrderBy: orderBy,
		Asc:     asc,
	})
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("list pokemon failed", zap.Error(err))
		}
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	views := make([]pokemonView, 0, len(result.Items))
	for _, item := range result.Items {
		views = append(views, toPokemonView(item))
	}
	Ok(c, views, pageMeta(page, perPage, result.Total))
}

// @Summary Get one pokemon by id
// @Tags pokemon
// @Param id path int true "external id (or local id)"
// @Success 200 {object} apiResponse
// @Router /api/pokemons/{id} [get]
func (h *PokemonHandler) getPokemon(c *gin.Context) {
	if h.Resolver == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	id, err := strconv.Atoi(strings.TrimSpace(c.Param("id")))
	if err != nil || id <= 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	item, err := h.Resolver.GetByID(c.Request.Context(), id)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("get pokemon failed", zap.Int("id", id), zap.Error(err))
		}
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "pokemon not found", nil)
		return
	}
	Ok(c, toPokemonView(*item), nil)
}

// @Summary Autocomplete pokemon names
// @Tags pokemon
// @Param query query string true "name fragment"
// @Success 200 {object} apiResponse
// @Router /api/pokemons/autocomplete [get]
func (h *PokemonHandler) autocomplete(c *gin.Context) {
	if h.Resolver == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	names, err := h.Resolver.AutocompleteNames(c.Request.Context(), c.Query("query"))
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("pokemon autocomplete failed", zap.Error(err))
		}
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if names == nil {
		names = []string{}
	}
	Ok(c, names, nil)
}

// @Summary Bulk fetch pokemon from upstream
// @Tags pokemon
// @Param limit query int false "page size"
// @Param offset query int false "listing offset"
// @Param max_pages query int false "max pages"
// @Param resume query bool false "resume from cursor"
// @Success 200 {object} apiResponse
// @Router /api/pokemons/fetch [post]
func (h *PokemonHandler) fetchPokemon(c *gin.Context) {
	if h.Fetch == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	result, err := h.Fetch.FetchAndStore(c.Request.Context(), service.FetchOptions{
		Limit:    intQuery(c, "limit", 0),
		Offset:   intQuery(c, "offset", 0),
		MaxPages: intQuery(c, "max_pages", 0),
		Resume:   boolQueryDefault(c, "resume", true),
	})
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("pokemon fetch failed", zap.Error(err))
		}
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, result, nil)
}

// @Summary List sync states
// @Tags pokemon
// @Success 200 {object} apiResponse
// @Router /api/pokemons/sync-state [get]
func (h *PokemonHandler) listSyncState(c *gin.Context) {
	if h.Fetch == nil || h.Fetch.Store == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	states, err := h.Fetch.Store.ListSyncStates(c.Request.Context())
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("list sync state failed", zap.Error(err))
		}
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, states, nil)
}

func intQuery(c *gin.Context, key string, def int) int {
	if val := c.Query(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return def
}

func boolQueryDefault(c *gin.Context, key string, def bool) bool {
	if val := c.Query(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return def
}

func boolQueryPtr(c *gin.Context, key string) *bool {
	if val := c.Query(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return &b
		}
	}
	return nil
}

func parseOrder(value string, allow map[string]string) string {
	key := strings.TrimSpace(strings.ToLower(value))
	if key == "" {
		return ""
	}
	if mapped, ok := allow[key]; ok {
		return mapped
	}
	return ""
}

func pageMeta(page, perPage int, total int64) map[string]any {
	lastPage := int64(1)
	if perPage > 0 {
		lastPage = (total + int64(perPage) - 1) / int64(perPage)
		if lastPage < 1 {
			lastPage = 1
		}
	}
	return map[string]any{
		"page":      page,
		"per_page":  perPage,
		"total":     total,
		"last_page": lastPage,
		"has_next":  int64(page) < lastPage,
	}
}
