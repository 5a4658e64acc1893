package ordernum

import (
	"context"
	"errors"
	"fmt"
	"time"

	"verlo/utils"
)

const maxAttempts = 10

// ErrExhausted is returned when every candidate collided. The caller must
// abort order creation rather than persist a synthetic number.
var ErrExhausted = errors.New("order number allocation attempts exhausted")

// Checker answers whether an order number is already taken. The check is a
// cost-reduction heuristic only; the storage layer's unique index on
// orderNumber is the real guarantee under concurrent allocation.
type Checker interface {
	ExistsByNumber(ctx context.Context, number string) (bool, error)
}

// Allocator composes human-readable order numbers of the form
// <prefix>-YYYYMMDD-<6 random digits>.
type Allocator struct {
	prefix  string
	checker Checker
}

func New(prefix string, checker Checker) *Allocator {
	if prefix == "" {
		prefix = "ORD"
	}
	return &Allocator{prefix: prefix, checker: checker}
}

// Allocate returns a candidate number not currently in use, retrying on
// collisions up to maxAttempts.
func (a *Allocator) Allocate(ctx context.Context) (string, error) {
	date := time.Now().UTC().Format("20060102")
	for i := 0; i < maxAttempts; i++ {
		candidate := fmt.Sprintf("%s-%s-%s", a.prefix, date, utils.GenerateRandomDigitString(6))

		exists, err := a.checker.ExistsByNumber(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", ErrExhausted
}
