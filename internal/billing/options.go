package billing

import "github.com/CynthiaArdman-Appomni/NightCityBot/internal/model"

// Category is one independently billable obligation group.
type Category string

const (
	CategoryBaseline  Category = "baseline"
	CategoryHousing   Category = "housing"
	CategoryBusiness  Category = "business"
	CategoryTrauma    Category = "trauma"
	CategoryCyberware Category = "cyberware"
)

// AllCategories lists categories in processing order.
var AllCategories = []Category{
	CategoryBaseline,
	CategoryHousing,
	CategoryBusiness,
	CategoryTrauma,
	CategoryCyberware,
}

// Toggle returns the runtime toggle name guarding the category.
func (c Category) Toggle() string {
	switch c {
	case CategoryHousing:
		return "housing_rent"
	case CategoryBusiness:
		return "business_rent"
	case CategoryTrauma:
		return "trauma_team"
	case CategoryCyberware:
		return "cyberware"
	default:
		return "baseline"
	}
}

// Options is the typed command surface of a billing run, parsed once at
// the command boundary and passed into the orchestrator as plain data.
type Options struct {
	DryRun     bool
	Verbose    bool
	Force      bool
	Target     *model.Member // nil means the whole community
	Categories []Category    // empty means all categories
}

// Global reports whether the run covers the whole community.
func (o Options) Global() bool { return o.Target == nil }

// Includes reports whether the run covers the category.
func (o Options) Includes(c Category) bool {
	if len(o.Categories) == 0 {
		return true
	}
	for _, have := range o.Categories {
		if have == c {
			return true
		}
	}
	return false
}

// FullRun reports whether every category is in scope, which is when
// passive income is credited.
func (o Options) FullRun() bool { return len(o.Categories) == 0 }
