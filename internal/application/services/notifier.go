package services

import (
	"context"
	"errors"

	"github.com/zatekoja/medlab/internal/domain/entities"
)

// ChangeNotifier is told about every committed write
type ChangeNotifier interface {
	Notify(ctx context.Context, collection entities.Collection, action entities.ChangeAction, recordID int64)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, entities.Collection, entities.ChangeAction, int64) {}

func notifierOrNop(n ChangeNotifier) ChangeNotifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}

// Confirmation asks the caller whether a destructive action may proceed.
// action is a short description such as "replace all data".
type Confirmation func(ctx context.Context, action string) (bool, error)

// Confirmed approves every action.
func Confirmed(context.Context, string) (bool, error) { return true, nil }

// Declined refuses every action.
func Declined(context.Context, string) (bool, error) { return false, nil }

// ErrNotConfirmed is returned when a destructive action was declined.
var ErrNotConfirmed = errors.New("operation not confirmed")

func confirm(ctx context.Context, c Confirmation, action string) error {
	if c == nil {
		return ErrNotConfirmed
	}
	ok, err := c(ctx, action)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotConfirmed
	}
	return nil
}
