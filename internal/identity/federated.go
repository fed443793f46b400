package identity

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"time"

	"rootify-backend/internal/config"

	"github.com/google/uuid"
	"github.com/zitadel/oidc/v3/pkg/client/rp"
	httphelper "github.com/zitadel/oidc/v3/pkg/http"
	"github.com/zitadel/oidc/v3/pkg/oidc"
	"golang.org/x/crypto/hkdf"
)

// FederatedCallback receives the outcome of one IdP round trip: either
// verified claims or a provider error flow.
type FederatedCallback func(w http.ResponseWriter, r *http.Request, flow FederatedFlow)

// RelyingParty runs the OIDC authorization code flow against the external IdP.
type RelyingParty struct {
	rp     rp.RelyingParty
	issuer string
}

// NewRelyingParty discovers the issuer and prepares PKCE/state cookies.
// IdP error redirects are reported to onError as failed flows.
func NewRelyingParty(ctx context.Context, cfg config.OIDCConfig, onError FederatedCallback) (*RelyingParty, error) {
	hashKey, cryptoKey, err := cookieKeys(cfg.CookieKey)
	if err != nil {
		return nil, err
	}

	var cookieOpts []httphelper.CookieHandlerOpt
	if !cfg.SecureCookies() {
		cookieOpts = append(cookieOpts, httphelper.WithUnsecure())
	}
	cookieHandler := httphelper.NewCookieHandler(hashKey, cryptoKey, cookieOpts...)
	options := []rp.Option{
		rp.WithCookieHandler(cookieHandler),
		rp.WithVerifierOpts(rp.WithIssuedAtMaxAge(time.Minute)),
		rp.WithPKCE(cookieHandler),
		rp.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, errorType string, errorDesc string, state string) {
			onError(w, r, FlowForIdPError(errorType, errorDesc))
		}),
	}

	relyingParty, err := rp.NewRelyingPartyOIDC(ctx, cfg.Issuer, cfg.ClientID, cfg.ClientSecret, cfg.RedirectURI, cfg.Scopes, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC relying party: %w", err)
	}
	return &RelyingParty{rp: relyingParty, issuer: cfg.Issuer}, nil
}

// LoginHandler redirects the browser to the IdP.
func (r *RelyingParty) LoginHandler() http.HandlerFunc {
	return rp.AuthURLHandler(uuid.NewString, r.rp)
}

// CallbackHandler exchanges the code and hands a flow to cb. The flow signs
// the verified holder in through svc when the caller runs it.
func (r *RelyingParty) CallbackHandler(svc *Service, cb FederatedCallback) http.HandlerFunc {
	exchanged := func(w http.ResponseWriter, req *http.Request, tokens *oidc.Tokens[*oidc.IDTokenClaims], state string, _ rp.RelyingParty) {
		claims := tokens.IDTokenClaims
		cb(w, req, svc.Federated(FederatedClaims{
			Issuer:  r.issuer,
			Subject: claims.Subject,
			Email:   claims.Email,
			Name:    claims.Name,
		}))
	}
	return rp.CodeExchangeHandler(exchanged, r.rp)
}

// FlowForIdPError translates an OAuth error redirect into a provider error.
func FlowForIdPError(errorType, errorDesc string) FederatedFlow {
	switch errorType {
	case "access_denied":
		return Failed(CodePopupClosed, "Sign-in was cancelled by the user.")
	case "interaction_required", "login_required", "temporarily_unavailable":
		return Failed(CodeCancelledPopup, "Another sign-in request is already in progress.")
	default:
		msg := errorType
		if errorDesc != "" {
			msg = errorType + ": " + errorDesc
		}
		return Failed(CodeInternal, msg)
	}
}

// cookieKeys derives the state/PKCE cookie keys from secret so every instance
// can read cookies set by another. An empty secret yields per-process keys.
func cookieKeys(secret string) (hashKey, cryptoKey []byte, err error) {
	if secret == "" {
		if hashKey, err = randomBytes(32); err != nil {
			return nil, nil, err
		}
		if cryptoKey, err = randomBytes(32); err != nil {
			return nil, nil, err
		}
		return hashKey, cryptoKey, nil
	}

	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte("rootify oidc cookies"))
	hashKey, cryptoKey = make([]byte, 32), make([]byte, 32)
	if _, err := io.ReadFull(kdf, hashKey); err != nil {
		return nil, nil, fmt.Errorf("derive cookie hash key: %w", err)
	}
	if _, err := io.ReadFull(kdf, cryptoKey); err != nil {
		return nil, nil, fmt.Errorf("derive cookie crypto key: %w", err)
	}
	return hashKey, cryptoKey, nil
}

func randomBytes(size int) ([]byte, error) {
	b := make([]byte, size)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return b, nil
}
