package session_test

import (
	"github.com/aretw0/spellout"
	"github.com/aretw0/spellout/pkg/domain"
)

func spelloutHooks(h domain.LifecycleHooks) spellout.Option {
	return spellout.WithLifecycleHooks(h)
}
