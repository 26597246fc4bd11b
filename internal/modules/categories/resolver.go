package categories

import (
	"github.com/rs/zerolog"

	"github.com/salesops/resource-planner/internal/domain"
)

// Resolver maps monetary values onto TCV bands, globally and per service
// line.
type Resolver struct {
	repo *Repository
	log  zerolog.Logger
}

// NewResolver creates a new category resolver
func NewResolver(repo *Repository, log zerolog.Logger) *Resolver {
	return &Resolver{
		repo: repo,
		log:  log.With().Str("service", "category_resolver").Logger(),
	}
}

// ResolveOpportunityCategory returns the global band for a TCV, or nil when
// the value is negative or no band applies.
func (r *Resolver) ResolveOpportunityCategory(tcv float64) (*OpportunityCategory, error) {
	if tcv < 0 {
		return nil, nil
	}

	cats, err := r.repo.ListOpportunityCategories()
	if err != nil {
		return nil, err
	}

	bands := make([]band, len(cats))
	for i, c := range cats {
		bands[i] = band{id: c.ID, min: c.MinTCV, max: c.MaxTCV}
	}

	idx := selectBand(bands, tcv)
	if idx < 0 {
		return nil, nil
	}
	return &cats[idx], nil
}

// ResolveServiceLineCategory returns the band for a service line's revenue,
// or nil when the value is non-positive or no band applies.
func (r *Resolver) ResolveServiceLineCategory(sl domain.ServiceLine, tcv float64) (*ServiceLineCategory, error) {
	if tcv <= 0 {
		return nil, nil
	}

	cats, err := r.repo.ListServiceLineCategories(sl)
	if err != nil {
		return nil, err
	}

	bands := make([]band, len(cats))
	for i, c := range cats {
		bands[i] = band{id: c.ID, min: c.MinTCV, max: c.MaxTCV}
	}

	idx := selectBand(bands, tcv)
	if idx < 0 {
		return nil, nil
	}
	return &cats[idx], nil
}

// ResolveOpportunityCategoryName is a convenience wrapper returning just
// the band name, empty when unresolved.
func (r *Resolver) ResolveOpportunityCategoryName(tcv float64) (string, error) {
	cat, err := r.ResolveOpportunityCategory(tcv)
	if err != nil {
		return "", err
	}
	if cat == nil {
		return "", nil
	}
	return cat.Name, nil
}

type band struct {
	id  int64
	min float64
	max *float64 // nil = unbounded
}

// selectBand picks the band with the largest min_tcv among those containing
// the value; ties break to the highest id. When no band contains the value
// the unbounded band, if any, wins. Returns -1 when nothing applies.
func selectBand(bands []band, tcv float64) int {
	best := -1
	for i, b := range bands {
		if tcv < b.min {
			continue
		}
		if b.max != nil && tcv >= *b.max {
			continue
		}
		if best < 0 || b.min > bands[best].min || (b.min == bands[best].min && b.id > bands[best].id) {
			best = i
		}
	}
	if best >= 0 {
		return best
	}

	// Fall back to the unbounded band when the value escapes every range.
	for i, b := range bands {
		if b.max != nil {
			continue
		}
		if best < 0 || b.min > bands[best].min || (b.min == bands[best].min && b.id > bands[best].id) {
			best = i
		}
	}
	return best
}
