package rosterfile

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/okian/linemate/internal/domain/model"
)

var validate = newValidator() //nolint:gochecknoglobals // validators cache struct metadata

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	return v
}

// Validate checks every player's fields and rejects names that collide
// after normalization.
func Validate(players []model.Player) error {
	seen := make(map[string]int, len(players))
	for i, p := range players {
		if err := validate.Struct(p); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) && len(verrs) > 0 {
				fe := verrs[0]
				return fmt.Errorf("%w: player %d (%q): %s failed %s", ErrInvalidPlayer, i+1, p.Name, fe.Field(), fe.Tag())
			}
			return fmt.Errorf("%w: player %d: %w", ErrInvalidPlayer, i+1, err)
		}
		key := p.Key()
		if j, ok := seen[key]; ok {
			return fmt.Errorf("%w: %q at %d and %d", ErrDuplicatePlayer, p.Name, j+1, i+1)
		}
		seen[key] = i
	}
	return nil
}
