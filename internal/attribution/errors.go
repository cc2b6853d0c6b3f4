package attribution

import (
	"fmt"
	"strings"

	"github.com/podsight/attribution-engine/internal/domain"
)

// UnknownModelError is returned when a caller requests a model name that is
// not in the registered set. The call fails before any model runs; it is
// never silently downgraded to a default model.
type UnknownModelError struct {
	Name  domain.ModelName
	Valid []domain.ModelName
}

func (e *UnknownModelError) Error() string {
	valid := make([]string, len(e.Valid))
	for i, m := range e.Valid {
		valid[i] = string(m)
	}
	return fmt.Sprintf("unknown attribution model %q (valid: %s)", e.Name, strings.Join(valid, ", "))
}
