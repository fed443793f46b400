package server

import (
	"context"

	"rootify-backend/internal/access"
	"rootify-backend/internal/audit"
	"rootify-backend/internal/config"
	"rootify-backend/internal/database"
	"rootify-backend/internal/gemini"
	"rootify-backend/internal/identity"
	"rootify-backend/internal/logging"
	"rootify-backend/internal/records"
	"rootify-backend/internal/store"
	"rootify-backend/internal/users"
)

type backends struct {
	store       store.Store
	credentials identity.CredentialRepository
	sessions    identity.SessionRepository
	audit       audit.Repository
	close       func() error
}

// Build assembles the service for cfg.StoreDriver. The returned func
// releases the database, if one was opened.
func Build(ctx context.Context, cfg *config.Config, log logging.Logger, opts ...identity.Option) (*Deps, func() error, error) {
	b, err := openBackends(cfg)
	if err != nil {
		return nil, nil, err
	}

	opts = append([]identity.Option{
		identity.WithPasswordSignup(cfg.PasswordSignup),
		identity.WithSessionTTL(cfg.SessionTTL),
	}, opts...)
	idp := identity.NewService(b.credentials, b.sessions, opts...)
	userRepo := users.NewRepository(b.store)
	auditSvc := audit.NewService(b.audit)

	d := &Deps{
		Config:   cfg,
		Log:      log,
		Identity: idp,
		Resolver: access.NewResolver(idp, userRepo, auditSvc, log),
		Users:    userRepo,
		Records:  records.NewService(b.store, userRepo, auditSvc, log),
		Audit:    auditSvc,
		Gemini:   gemini.NewClient(cfg.Gemini),
	}

	if cfg.OIDC.Enabled() {
		// IdP error redirects run through the same callback as code exchanges.
		rp, err := identity.NewRelyingParty(ctx, cfg.OIDC, federatedCallback(d))
		if err != nil {
			_ = b.close()
			return nil, nil, err
		}
		d.RelyingParty = rp
	}

	return d, b.close, nil
}

func openBackends(cfg *config.Config) (*backends, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		return &backends{
			store:       store.NewMemory(),
			credentials: identity.NewMemoryCredentials(),
			sessions:    identity.NewMemorySessions(),
			audit:       audit.NewMemoryRepository(),
			close:       func() error { return nil },
		}, nil
	}

	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	return &backends{
		store:       store.NewGorm(db),
		credentials: identity.NewGormCredentials(db),
		sessions:    identity.NewGormSessions(db),
		audit:       audit.NewGormRepository(db),
		close:       func() error { return database.Close(db) },
	}, nil
}
