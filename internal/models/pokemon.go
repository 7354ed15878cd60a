package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Pokemon is the locally cached record for one Pokémon. Height and weight
// are stored in the raw upstream units (decimeters and hectograms); all
// conversions happen at read time.
type Pokemon struct {
	ID           uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	APIID        int            `gorm:"uniqueIndex;not null" json:"api_id"`
	Name         string         `gorm:"type:text;not null;index" json:"name"`
	Types        datatypes.JSON `gorm:"type:jsonb;not null" json:"types"`
	Height       int            `gorm:"not null" json:"height"`
	Weight       int            `gorm:"not null" json:"weight"`
	Abilities    datatypes.JSON `gorm:"type:jsonb" json:"abilities"`
	ImageURL     *string        `gorm:"type:text" json:"image_url"`
	LastSyncedAt time.Time      `gorm:"type:timestamptz;not null" json:"last_synced_at"`
	CreatedAt    time.Time      `gorm:"type:timestamptz" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"type:timestamptz" json:"updated_at"`
}

func (Pokemon) TableName() string {
	return "pokemon"
}

// TypeList decodes the jsonb types column. A corrupt or null column decodes
// as an empty list rather than an error.
func (p *Pokemon) TypeList() []string {
	return decodeStrings(p.Types)
}

func (p *Pokemon) AbilityList() []string {
	return decodeStrings(p.Abilities)
}

// PrimaryType is the first entry of the types list, kept for consumers of
// the legacy single-type shape. Nil when the record has no types.
func (p *Pokemon) PrimaryType() *string {
	types := p.TypeList()
	if len(types) == 0 {
		return nil
	}
	return &types[0]
}

// HeightCm converts the stored decimeters to centimeters.
func (p *Pokemon) HeightCm() int {
	return p.Height * 10
}

// WeightKg converts the stored hectograms to kilograms. Decimal division
// keeps the conversion exact (69 hg is 6.9 kg, not 6.8999...).
func (p *Pokemon) WeightKg() decimal.Decimal {
	return decimal.NewFromInt(int64(p.Weight)).Div(decimal.NewFromInt(10))
}

func (p *Pokemon) SetTypes(types []string) {
	p.Types = encodeStrings(types)
}

func (p *Pokemon) SetAbilities(abilities []string) {
	p.Abilities = encodeStrings(abilities)
}

func decodeStrings(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

func encodeStrings(items []string) datatypes.JSON {
	if items == nil {
		items = []string{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return datatypes.JSON([]byte("[]"))
	}
	return datatypes.JSON(raw)
}
