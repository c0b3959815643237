// Package settings holds runtime switches that a super admin can flip
// without a restart.
package settings

import (
	"context"
	"sync/atomic"
)

// Flags is the in-process view of the runtime switches. It is safe for
// concurrent use.
type Flags struct {
	forceTwoFactor atomic.Bool
}

func NewFlags(forceTwoFactor bool) *Flags {
	f := &Flags{}
	f.forceTwoFactor.Store(forceTwoFactor)
	return f
}

// ForceTwoFactor reports whether every login must pass a 2FA challenge.
func (f *Flags) ForceTwoFactor() bool { return f.forceTwoFactor.Load() }

func (f *Flags) SetForceTwoFactor(v bool) { f.forceTwoFactor.Store(v) }

// Store changes the force-2FA switch for every instance that shares it.
type Store interface {
	SetForceTwoFactor(ctx context.Context, v bool) error
}

// LocalStore only changes the flag of this process.
type LocalStore struct {
	Flags *Flags
}

func (s LocalStore) SetForceTwoFactor(_ context.Context, v bool) error {
	s.Flags.SetForceTwoFactor(v)
	return nil
}
