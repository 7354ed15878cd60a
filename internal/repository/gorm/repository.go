package gormrepository

import (
	"context"
	"encoding/json"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pokedex/internal/models"
	"pokedex/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

var pokemonUpsertColumns = []string{
	"name",
	"types",
	"height",
	"weight",
	"abilities",
	"image_url",
	"last_synced_at",
	"updated_at",
}

func (s *Store) UpsertPokemon(ctx context.Context, item *models.Pokemon) (*models.Pokemon, error) {
	if s == nil || s.db == nil || item == nil {
		return nil, nil
	}
	if item.APIID == 0 {
		return nil, nil
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "api_id"}},
		DoUpdates: clause.AssignmentColumns(pokemonUpsertColumns),
	}).Create(item).Error
	if err != nil {
		return nil, err
	}
	// On conflict the surrogate id of the inserted value is not populated;
	// read the row back by its natural key.
	var stored models.Pokemon
	if err := s.db.WithContext(ctx).First(&stored, "api_id = ?", item.APIID).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

func (s *Store) UpsertPokemonsTx(ctx context.Context, tx *gorm.DB, items []models.Pokemon) error {
	if len(items) == 0 {
		return nil
	}
	return tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "api_id"}},
		DoUpdates: clause.AssignmentColumns(pokemonUpsertColumns),
	}).CreateInBatches(items, 100).Error
}

func (s *Store) ListPokemon(ctx context.Context, params repository.ListPokemonParams) ([]models.Pokemon, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := applyPokemonFilters(s.db.WithContext(ctx).Model(&models.Pokemon{}), params)
	query = applyOrder(query, params.OrderBy, params.Asc, "api_id")
	limit := normalizeLimit(params.Limit, 50)
	offset := normalizeOffset(params.Offset)
	var items []models.Pokemon
	if err := query.Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountPokemon(ctx context.Context, params repository.ListPokemonParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	query := applyPokemonFilters(s.db.WithContext(ctx).Model(&models.Pokemon{}), params)
	if err := query.Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) GetPokemonByAnyID(ctx context.Context, id int) (*models.Pokemon, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Pokemon
	err := s.db.WithContext(ctx).First(&item, "api_id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		err = s.db.WithContext(ctx).First(&item, "id = ?", id).Error
	}
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListPokemonNames(ctx context.Context, query string, limit int) ([]string, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	limit = normalizeLimit(limit, 10)
	var names []string
	err := s.db.WithContext(ctx).
		Model(&models.Pokemon{}).
		Where("LOWER(name) LIKE ?", "%"+strings.ToLower(query)+"%").
		Order("api_id asc").
		Limit(limit).
		Pluck("name", &names).Error
	if err != nil {
		return nil, err
	}
	return names, nil
}

func (s *Store) ListDistinctTypes(ctx context.Context) ([]string, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var types []string
	err := s.db.WithContext(ctx).
		Raw(`SELECT DISTINCT t.name
			FROM pokemon, jsonb_array_elements_text(pokemon.types) AS t(name)
			ORDER BY t.name ASC`).
		Scan(&types).Error
	if err != nil {
		return nil, err
	}
	return types, nil
}

func (s *Store) GetSyncState(ctx context.Context, scope string) (*models.SyncState, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var state models.SyncState
	err := s.db.WithContext(ctx).First(&state, "scope = ?", scope).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *Store) SaveSyncStateTx(ctx context.Context, tx *gorm.DB, state *models.SyncState) error {
	if state == nil {
		return nil
	}
	return tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "scope"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"cursor",
			"last_success_at",
			"last_attempt_at",
			"last_error",
			"stats_json",
		}),
	}).Create(state).Error
}

func (s *Store) ListSyncStates(ctx context.Context) ([]models.SyncState, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var states []models.SyncState
	if err := s.db.WithContext(ctx).Order("scope asc").Find(&states).Error; err != nil {
		return nil, err
	}
	return states, nil
}

func applyPokemonFilters(query *gorm.DB, params repository.ListPokemonParams) *gorm.DB {
	if params.Name != nil && strings.TrimSpace(*params.Name) != "" {
		name := strings.ToLower(strings.TrimSpace(*params.Name))
		query = query.Where("LOWER(name) LIKE ?", "%"+name+"%")
	}
	if params.Type != nil && strings.TrimSpace(*params.Type) != "" {
		// Membership against the jsonb array, not a substring match:
		// filtering "fire" must not match "firefly".
		member, _ := json.Marshal([]string{strings.ToLower(strings.TrimSpace(*params.Type))})
		query = query.Where("types @> ?::jsonb", string(member))
	}
	return query
}

func applyOrder(query *gorm.DB, orderBy string, asc *bool, fallback string) *gorm.DB {
	column := strings.TrimSpace(orderBy)
	if column == "" {
		column = fallback
	}
	direction := "asc"
	if asc != nil && !*asc {
		direction = "desc"
	}
	return query.Order(column + " " + direction)
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > 500 {
		return 500
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}

var _ repository.PokemonRepository = (*Store)(nil)
