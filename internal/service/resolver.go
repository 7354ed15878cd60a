package service

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"pokedex/internal/client/pokeapi"
	"pokedex/internal/models"
	"pokedex/internal/repository"
)

// nameSuggestionCap bounds autocomplete responses.
const nameSuggestionCap = 10

// UpstreamClient is the slice of the PokeAPI client the resolver depends
// on. The concrete client is injected at construction; nothing here reaches
// for a global.
type UpstreamClient interface {
	ListPage(ctx context.Context, limit, offset int) ([]pokeapi.PageEntry, error)
	FindByName(ctx context.Context, name string) (*pokeapi.Pokemon, error)
	FindByType(ctx context.Context, typ string) ([]pokeapi.Pokemon, error)
	ListTypes(ctx context.Context) ([]string, error)
}

// Resolver reconciles the local store with upstream truth, lazily and on
// demand: store first, one bounded upstream attempt on a miss, then the
// store again as the single source of truth.
type Resolver struct {
	Store  repository.PokemonRepository
	API    UpstreamClient
	Logger *zap.Logger
}

type ResolveParams struct {
	Name    string
	Type    string
	Limit   int
	Offset  int
	OrderBy string
	Asc     *bool
}

type ResolveResult struct {
	Items []models.Pokemon
	Total int64
	// Fetched reports whether this call went upstream and persisted data.
	Fetched bool
}

// Resolve queries the store with the given filters. On an empty result it
// makes exactly one upstream attempt — the name branch when a name filter
// is present, otherwise the type branch — persists whatever came back, and
// re-runs the same store query once. Upstream failures degrade to an empty
// result; they never fail the call.
func (r *Resolver) Resolve(ctx context.Context, params ResolveParams) (ResolveResult, error) {
	listParams := repository.ListPokemonParams{
		Limit:   params.Limit,
		Offset:  params.Offset,
		OrderBy: params.OrderBy,
		Asc:     params.Asc,
	}
	name := strings.TrimSpace(params.Name)
	typ := strings.TrimSpace(params.Type)
	if name != "" {
		listParams.Name = &name
	}
	if typ != "" {
		listParams.Type = &typ
	}

	total, err := r.Store.CountPokemon(ctx, listParams)
	if err != nil {
		return ResolveResult{}, err
	}

	fetched := false
	if total == 0 {
		// The name branch takes precedence when both filters are given;
		// the type branch is never attempted in that case.
		if name != "" {
			fetched = r.fetchByName(ctx, name) != nil
		} else if typ != "" {
			fetched = r.fetchByType(ctx, typ) > 0
		}
		if fetched {
			total, err = r.Store.CountPokemon(ctx, listParams)
			if err != nil {
				return ResolveResult{}, err
			}
		}
	}

	items, err := r.Store.ListPokemon(ctx, listParams)
	if err != nil {
		return ResolveResult{}, err
	}
	return ResolveResult{Items: items, Total: total, Fetched: fetched}, nil
}

// GetByID resolves a single record by external id or surrogate id. On a
// local miss it makes one upstream detail fetch by the numeric id and
// persists the result. A nil record with a nil error means not found.
func (r *Resolver) GetByID(ctx context.Context, id int) (*models.Pokemon, error) {
	item, err := r.Store.GetPokemonByAnyID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item != nil {
		return item, nil
	}
	return r.fetchByName(ctx, strconv.Itoa(id)), nil
}

// AutocompleteNames suggests up to nameSuggestionCap stored names matching
// the query as a case-insensitive substring. When the store has no match it
// falls back to a single upstream lookup — upstream has no prefix search,
// so at most that one name is surfaced.
func (r *Resolver) AutocompleteNames(ctx context.Context, query string) ([]string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	names, err := r.Store.ListPokemonNames(ctx, query, nameSuggestionCap)
	if err != nil {
		return nil, err
	}
	if len(names) > 0 {
		return names, nil
	}
	if stored := r.fetchByName(ctx, query); stored != nil {
		return []string{stored.Name}, nil
	}
	return nil, nil
}

// ListTypes returns the deduplicated, ascending set of types across all
// stored records. With an empty store it falls back to the upstream type
// catalog (already reduced to the canonical allow-list by the client).
func (r *Resolver) ListTypes(ctx context.Context) ([]string, error) {
	types, err := r.Store.ListDistinctTypes(ctx)
	if err != nil {
		return nil, err
	}
	if len(types) > 0 {
		return types, nil
	}
	remote, err := r.API.ListTypes(ctx)
	if err != nil {
		r.logWarn("upstream type catalog fetch failed", zap.Error(err))
		return nil, nil
	}
	sort.Strings(remote)
	return remote, nil
}

// AutocompleteTypes filters ListTypes by a case-insensitive substring
// match. An empty query returns the full catalog.
func (r *Resolver) AutocompleteTypes(ctx context.Context, query string) ([]string, error) {
	types, err := r.ListTypes(ctx)
	if err != nil {
		return nil, err
	}
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return types, nil
	}
	out := make([]string, 0, len(types))
	for _, typ := range types {
		if strings.Contains(strings.ToLower(typ), query) {
			out = append(out, typ)
		}
	}
	return out, nil
}

// fetchByName performs the single bounded upstream attempt for a name miss
// and persists a hit. All failures are logged and reported as absence.
func (r *Resolver) fetchByName(ctx context.Context, name string) *models.Pokemon {
	detail, err := r.API.FindByName(ctx, name)
	if err != nil {
		r.logWarn("upstream pokemon lookup failed", zap.String("name", name), zap.Error(err))
		return nil
	}
	if detail == nil {
		return nil
	}
	stored, err := r.Store.UpsertPokemon(ctx, recordFromUpstream(*detail, time.Now().UTC()))
	if err != nil {
		r.logWarn("pokemon upsert failed", zap.String("name", name), zap.Error(err))
		return nil
	}
	return stored
}

// fetchByType pulls the capped member list for a type miss and persists
// each record, returning how many were stored.
func (r *Resolver) fetchByType(ctx context.Context, typ string) int {
	details, err := r.API.FindByType(ctx, typ)
	if err != nil {
		r.logWarn("upstream type lookup failed", zap.String("type", typ), zap.Error(err))
		return 0
	}
	stored := 0
	for _, detail := range details {
		if _, err := r.Store.UpsertPokemon(ctx, recordFromUpstream(detail, time.Now().UTC())); err != nil {
			r.logWarn("pokemon upsert failed", zap.String("name", detail.Name), zap.Error(err))
			continue
		}
		stored++
	}
	return stored
}

func (r *Resolver) logWarn(msg string, fields ...zap.Field) {
	if r.Logger != nil {
		r.Logger.Warn(msg, fields...)
	}
}

// recordFromUpstream maps the client's normalized shape onto the persisted
// entity. Names keep their upstream casing; filters compare lowercased.
func recordFromUpstream(detail pokeapi.Pokemon, now time.Time) *models.Pokemon {
	item := &models.Pokemon{
		APIID:        detail.ID,
		Name:         detail.Name,
		Height:       detail.Height,
		Weight:       detail.Weight,
		ImageURL:     detail.ImageURL,
		LastSyncedAt: now,
	}
	item.SetTypes(detail.Types)
	item.SetAbilities(detail.Abilities)
	return item
}
