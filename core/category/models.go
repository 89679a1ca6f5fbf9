package category

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/romangrishanov/ditado/core"
)

// Category groups dictations by theme or difficulty ("Acentuação", "4º ano"...).
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

// NewCategory contains information needed to create a new Category.
type NewCategory struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

func (nc *NewCategory) Validate(validate *validator.Validate, svc Service) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Description = core.CleanString(nc.Description)

	if err := validate.Struct(nc); err != nil {
		return err
	}
	return svc.CheckUniqueness(nc.Name)
}

// UpdateCategory defines what information may be provided to modify an existing Category.
type UpdateCategory struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (uc *UpdateCategory) Validate(orig Category, validate *validator.Validate, svc Service) error {
	if name := core.CleanString(uc.Name); name != "" {
		uc.Name = name
	} else {
		uc.Name = orig.Name
	}
	uc.Description = core.CleanString(uc.Description)

	if err := validate.Struct(uc); err != nil {
		return err
	}
	return svc.CheckUniqueness(uc.Name, orig)
}

type QueryFilter struct {
	Search string `query:"search"`
}

func (qf *QueryFilter) IsEmpty() bool { return qf.Search == "" }

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
