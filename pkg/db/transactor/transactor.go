package transactor

import (
	"context"
)

// Transactor runs function within single database transaction
type Transactor interface {
	WithinTransaction(context.Context, func(context.Context) error) error
}
