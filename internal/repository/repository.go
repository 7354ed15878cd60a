package repository

import (
	"context"

	"gorm.io/gorm"

	"pokedex/internal/models"
)

// PokemonRepository is the persistence surface for the local cache. Query
// results reflect committed state at call time; the "cache" semantics live
// one layer up, in the resolver.
type PokemonRepository interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error

	// UpsertPokemon creates or fully overwrites the record keyed by api_id
	// and returns the stored row.
	UpsertPokemon(ctx context.Context, item *models.Pokemon) (*models.Pokemon, error)
	UpsertPokemonsTx(ctx context.Context, tx *gorm.DB, items []models.Pokemon) error

	ListPokemon(ctx context.Context, params ListPokemonParams) ([]models.Pokemon, error)
	CountPokemon(ctx context.Context, params ListPokemonParams) (int64, error)

	// GetPokemonByAnyID resolves by api_id first, then by the surrogate id.
	GetPokemonByAnyID(ctx context.Context, id int) (*models.Pokemon, error)

	ListPokemonNames(ctx context.Context, query string, limit int) ([]string, error)
	ListDistinctTypes(ctx context.Context) ([]string, error)

	GetSyncState(ctx context.Context, scope string) (*models.SyncState, error)
	SaveSyncStateTx(ctx context.Context, tx *gorm.DB, state *models.SyncState) error
	ListSyncStates(ctx context.Context) ([]models.SyncState, error)
}

type ListPokemonParams struct {
	Limit   int
	Offset  int
	Name    *string
	Type    *string
	OrderBy string
	Asc     *bool
}
