package cli

import (
	"github.com/axellelanca/linkshorter/cmd"
	"github.com/axellelanca/linkshorter/internal/services"
	"github.com/axellelanca/linkshorter/internal/store"
)

type serviceSet struct {
	tokens   *services.TokenService
	shorters *services.ShorterService
}

func newServiceSet(st *store.Store) *serviceSet {
	return &serviceSet{
		tokens: services.NewTokenService(st),
		// Admin commands run in a short-lived process; no resolve cache.
		shorters: services.NewShorterService(st, nil, cmd.Cfg.Shorter.PathLength),
	}
}

// withStore opens the configured database for the duration of fn.
func withStore(fn func(svc *serviceSet) error) error {
	st, err := cmd.OpenStore()
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(newServiceSet(st))
}
