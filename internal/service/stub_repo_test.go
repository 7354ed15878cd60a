package service

import (
	"context"
	"sort"
	"strings"

	"gorm.io/gorm"

	"pokedex/internal/client/pokeapi"
	"pokedex/internal/models"
	"pokedex/internal/repository"
)

// stubRepo is a test-only in-memory implementation of
// repository.PokemonRepository. Filtering mirrors the SQL semantics:
// case-insensitive name substring, exact type membership, api_id ordering.
type stubRepo struct {
	items  map[int]models.Pokemon // keyed by api_id
	states map[string]models.SyncState
	nextID uint64
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		items:  map[int]models.Pokemon{},
		states: map[string]models.SyncState{},
	}
}

func (s *stubRepo) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error { return fn(nil) }

func (s *stubRepo) UpsertPokemon(ctx context.Context, item *models.Pokemon) (*models.Pokemon, error) {
	if item == nil || item.APIID == 0 {
		return nil, nil
	}
	stored, ok := s.items[item.APIID]
	if ok {
		item.ID = stored.ID
	} else {
		s.nextID++
		item.ID = s.nextID
	}
	s.items[item.APIID] = *item
	out := *item
	return &out, nil
}

func (s *stubRepo) UpsertPokemonsTx(ctx context.Context, tx *gorm.DB, items []models.Pokemon) error {
	for i := range items {
		if _, err := s.UpsertPokemon(ctx, &items[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *stubRepo) matching(params repository.ListPokemonParams) []models.Pokemon {
	out := make([]models.Pokemon, 0, len(s.items))
	for _, item := range s.items {
		if params.Name != nil {
			needle := strings.ToLower(strings.TrimSpace(*params.Name))
			if !strings.Contains(strings.ToLower(item.Name), needle) {
				continue
			}
		}
		if params.Type != nil {
			want := strings.ToLower(strings.TrimSpace(*params.Type))
			found := false
			for _, typ := range item.TypeList() {
				if typ == want {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].APIID < out[j].APIID })
	return out
}

func (s *stubRepo) ListPokemon(ctx context.Context, params repository.ListPokemonParams) ([]models.Pokemon, error) {
	out := s.matching(params)
	offset := params.Offset
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	limit := params.Limit
	if limit <= 0 {
		limit = 50
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *stubRepo) CountPokemon(ctx context.Context, params repository.ListPokemonParams) (int64, error) {
	return int64(len(s.matching(params))), nil
}

func (s *stubRepo) GetPokemonByAnyID(ctx context.Context, id int) (*models.Pokemon, error) {
	if item, ok := s.items[id]; ok {
		out := item
		return &out, nil
	}
	for _, item := range s.items {
		if item.ID == uint64(id) {
			out := item
			return &out, nil
		}
	}
	return nil, nil
}

func (s *stubRepo) ListPokemonNames(ctx context.Context, query string, limit int) ([]string, error) {
	var matched []models.Pokemon
	for _, item := range s.items {
		if strings.Contains(strings.ToLower(item.Name), strings.ToLower(query)) {
			matched = append(matched, item)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].APIID < matched[j].APIID })
	if limit <= 0 {
		limit = 10
	}
	names := make([]string, 0, limit)
	for _, item := range matched {
		if len(names) >= limit {
			break
		}
		names = append(names, item.Name)
	}
	return names, nil
}

func (s *stubRepo) ListDistinctTypes(ctx context.Context) ([]string, error) {
	seen := map[string]struct{}{}
	for _, item := range s.items {
		for _, typ := range item.TypeList() {
			seen[typ] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for typ := range seen {
		out = append(out, typ)
	}
	sort.Strings(out)
	return out, nil
}

func (s *stubRepo) GetSyncState(ctx context.Context, scope string) (*models.SyncState, error) {
	if state, ok := s.states[scope]; ok {
		out := state
		return &out, nil
	}
	return nil, nil
}

func (s *stubRepo) SaveSyncStateTx(ctx context.Context, tx *gorm.DB, state *models.SyncState) error {
	if state != nil {
		s.states[state.Scope] = *state
	}
	return nil
}

func (s *stubRepo) ListSyncStates(ctx context.Context) ([]models.SyncState, error) {
	out := make([]models.SyncState, 0, len(s.states))
	for _, state := range s.states {
		out = append(out, state)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Scope < out[j].Scope })
	return out, nil
}

var _ repository.PokemonRepository = (*stubRepo)(nil)

// stubClient is a canned UpstreamClient that counts calls.
type stubClient struct {
	byName  map[string]*pokeapi.Pokemon
	byType  map[string][]pokeapi.Pokemon
	types   []string
	entries []pokeapi.PageEntry

	listErr error
	nameErr error

	nameCalls []string
	typeCalls []string
	listCalls int
	lastLimit int
	lastOff   int
}

// ListPage slices the canned listing the way the real endpoint pages it.
func (c *stubClient) ListPage(ctx context.Context, limit, offset int) ([]pokeapi.PageEntry, error) {
	c.listCalls++
	c.lastLimit = limit
	c.lastOff = offset
	if c.listErr != nil {
		return nil, c.listErr
	}
	if offset > len(c.entries) {
		offset = len(c.entries)
	}
	end := offset + limit
	if end > len(c.entries) {
		end = len(c.entries)
	}
	return c.entries[offset:end], nil
}

func (c *stubClient) FindByName(ctx context.Context, name string) (*pokeapi.Pokemon, error) {
	c.nameCalls = append(c.nameCalls, name)
	if c.nameErr != nil {
		return nil, c.nameErr
	}
	if detail, ok := c.byName[strings.ToLower(name)]; ok {
		out := *detail
		return &out, nil
	}
	return nil, nil
}

func (c *stubClient) FindByType(ctx context.Context, typ string) ([]pokeapi.Pokemon, error) {
	c.typeCalls = append(c.typeCalls, typ)
	return c.byType[strings.ToLower(typ)], nil
}

func (c *stubClient) ListTypes(ctx context.Context) ([]string, error) {
	return c.types, nil
}

var _ UpstreamClient = (*stubClient)(nil)

func stateWithCursor(cursor string) models.SyncState {
	return models.SyncState{Scope: syncScope, Cursor: &cursor}
}

func upstream(id int, name string, types ...string) *pokeapi.Pokemon {
	return &pokeapi.Pokemon{
		ID:     id,
		Name:   name,
		Height: 7,
		Weight: 69,
		Types:  types,
	}
}
