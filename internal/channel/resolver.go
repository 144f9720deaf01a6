package channel

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/yndnr/chanstore/internal/core/domain"
)

// DefaultName is the channel name used when none is configured.
const DefaultName = "storage-for-a-bot"

// Resolver finds the storage channel of a workspace or provisions it.
type Resolver struct {
	provider Provider
	logger   *slog.Logger
}

// NewResolver creates a resolver over provider.
func NewResolver(provider Provider, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{provider: provider, logger: logger}
}

// FindOrCreate returns the channel called name, creating it when absent.
//
// A created channel sits at position 0 and denies read access to the
// general membership role. Calls are idempotent by name.
func (r *Resolver) FindOrCreate(ctx context.Context, workspace, name string) (*Ref, error) {
	if workspace == "" || name == "" {
		return nil, domain.ErrInvalidArgument.WithDetails("workspace and channel name are required")
	}

	existing, err := r.find(ctx, workspace, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		r.logger.Debug("storage channel found", "channel", existing.String(), "channel_id", existing.ID)
		return existing, nil
	}

	created, err := r.provider.CreateChannel(ctx, workspace, CreateSpec{
		Name:             name,
		Position:         0,
		DenyEveryoneRead: true,
	})
	if err != nil {
		// Lost a creation race; the winner's channel is the one to use.
		if domain.GetErrorCode(err) == domain.ErrChannelExists.Code {
			if ch, ferr := r.find(ctx, workspace, name); ferr == nil && ch != nil {
				return ch, nil
			}
		}
		return nil, fmt.Errorf("create channel %s/%s: %w", workspace, name,
			domain.NewProviderError(OpCreateChannel, name, err))
	}

	r.logger.Info("channel created",
		"channel", created.String(),
		"channel_id", created.ID,
		"restricted", created.Restricted)
	return created, nil
}

func (r *Resolver) find(ctx context.Context, workspace, name string) (*Ref, error) {
	channels, err := r.provider.ListChannels(ctx, workspace)
	if err != nil {
		return nil, fmt.Errorf("list channels of %s: %w", workspace,
			domain.NewProviderError(OpListChannels, "", err))
	}
	for i := range channels {
		if channels[i].Name == name {
			ch := channels[i]
			return &ch, nil
		}
	}
	return nil, nil
}
