package pokeapi

// Pokemon is the normalized shape the client hands to callers: upstream
// detail payloads flattened to the fields the store persists.
type Pokemon struct {
	ID        int
	Name      string
	Height    int
	Weight    int
	Types     []string
	Abilities []string
	ImageURL  *string
}

// PageEntry is one row of the upstream paged listing. The listing omits
// detail fields, so each entry needs a follow-up detail fetch.
type PageEntry struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type listResponse struct {
	Count   int         `json:"count"`
	Results []PageEntry `json:"results"`
}

type detailResponse struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Height    int    `json:"height"`
	Weight    int    `json:"weight"`
	Types     []struct {
		Slot int `json:"slot"`
		Type struct {
			Name string `json:"name"`
		} `json:"type"`
	} `json:"types"`
	Abilities []struct {
		Ability struct {
			Name string `json:"name"`
		} `json:"ability"`
	} `json:"abilities"`
	Sprites struct {
		FrontDefault *string `json:"front_default"`
		Other        struct {
			OfficialArtwork struct {
				FrontDefault *string `json:"front_default"`
			} `json:"official-artwork"`
		} `json:"other"`
	} `json:"sprites"`
}

type typeDetailResponse struct {
	Pokemon []struct {
		Pokemon struct {
			Name string `json:"name"`
			URL  string `json:"url"`
		} `json:"pokemon"`
	} `json:"pokemon"`
}

func (d *detailResponse) normalize() *Pokemon {
	if d == nil || d.ID == 0 || len(d.Types) == 0 {
		return nil
	}
	types := make([]string, 0, len(d.Types))
	for _, entry := range d.Types {
		if entry.Type.Name != "" {
			types = append(types, entry.Type.Name)
		}
	}
	if len(types) == 0 {
		return nil
	}
	abilities := make([]string, 0, len(d.Abilities))
	for _, entry := range d.Abilities {
		if entry.Ability.Name != "" {
			abilities = append(abilities, entry.Ability.Name)
		}
	}
	image := d.Sprites.Other.OfficialArtwork.FrontDefault
	if image == nil || *image == "" {
		image = d.Sprites.FrontDefault
	}
	if image != nil && *image == "" {
		image = nil
	}
	return &Pokemon{
		ID:        d.ID,
		Name:      d.Name,
		Height:    d.Height,
		Weight:    d.Weight,
		Types:     types,
		Abilities: abilities,
		ImageURL:  image,
	}
}
