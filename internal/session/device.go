package session

import (
	"context"
	"errors"
	"fmt"

	"refactortrack/internal/shared/constants"
	"refactortrack/pkg/storage"

	"github.com/google/uuid"
)

// EnsureDeviceID returns the persisted device id, generating it on first use.
// The id is a fingerprint hint for the backend, not a credential.
func EnsureDeviceID(ctx context.Context, store storage.Storage) (string, error) {
	raw, err := store.Get(ctx, constants.STORAGE_KEY_DEVICE)
	if err == nil {
		if id, perr := uuid.ParseBytes(raw); perr == nil {
			return id.String(), nil
		}
	} else if !errors.Is(err, storage.ErrNotFound) {
		return "", fmt.Errorf("read device id: %w", err)
	}

	id := uuid.NewString()
	if err := store.Set(ctx, constants.STORAGE_KEY_DEVICE, []byte(id)); err != nil {
		return "", fmt.Errorf("store device id: %w", err)
	}
	return id, nil
}
