package backend

import (
	"context"

	"github.com/ardiutama/Piutang/internal/realtime"
	"github.com/ardiutama/Piutang/internal/session"
	"github.com/ardiutama/Piutang/internal/store"
)

// CleanupFunc releases backend resources at shutdown.
type CleanupFunc func() error

// Result is what a factory hands back: the persistence collaborator, plus
// the remote variant's extras (nil for the local variant).
type Result struct {
	Backend  store.Backend
	Feed     *realtime.Client // change-notification channel, remote only
	Sessions session.Resolver // token resolver, remote only
	Cleanup  CleanupFunc
}

// Factory creates backends based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Variant selects the persistence variant.
type Variant string

const (
	RemoteVariant Variant = "remote"
	LocalVariant  Variant = "local"
)

func (v Variant) String() string {
	return string(v)
}

func (v Variant) IsValid() bool {
	return v == RemoteVariant || v == LocalVariant
}
