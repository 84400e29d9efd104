package app

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
)

// AuthURL builds the Google consent URL for linking a staff account. The
// account id travels in the state parameter and comes back on the callback.
func (a *App) AuthURL(accountID string) string {
	return a.oauth.AuthCodeURL(accountID, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Link exchanges an authorization code for an initial token pair and stores
// it, replacing any prior credential for the account wholesale.
func (a *App) Link(ctx context.Context, accountID, code string) (*Credential, error) {
	tok, err := a.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("code exchange for %s: %w", accountID, err)
	}
	cred := &Credential{
		AccountID:    accountID,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
	}
	if err := a.Store.UpsertCredential(ctx, cred); err != nil {
		return nil, err
	}
	a.Log.Info().Str("account", accountID).Msg("google account linked")
	return cred, nil
}

// GetCredential returns the stored token pair, ErrAccountNotLinked when none
// exists.
func (a *App) GetCredential(ctx context.Context, accountID string) (*Credential, error) {
	cred, err := a.Store.GetCredential(ctx, accountID)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("account %s: %w", accountID, ErrAccountNotLinked)
	}
	if err != nil {
		return nil, err
	}
	return cred, nil
}

// Refresh forces a refresh-token exchange and persists the result. A rejected
// exchange (revoked grant) fails ErrTokenRefreshFailed; the account then
// needs re-linking, retrying is pointless.
func (a *App) Refresh(ctx context.Context, accountID string) (*Credential, error) {
	cred, err := a.GetCredential(ctx, accountID)
	if err != nil {
		return nil, err
	}
	// an empty access token makes the token source hit the refresh grant
	if err := a.refreshCredential(ctx, cred, &oauth2.Token{RefreshToken: cred.RefreshToken}); err != nil {
		return nil, err
	}
	return cred, nil
}

// freshToken returns a usable access token for the credential, performing and
// persisting a refresh when the stored one is expired.
func (a *App) freshToken(ctx context.Context, cred *Credential) (*oauth2.Token, error) {
	tok := &oauth2.Token{
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
		Expiry:       cred.ExpiresAt,
	}
	if tok.Valid() {
		return tok, nil
	}
	if err := a.refreshCredential(ctx, cred, tok); err != nil {
		return nil, err
	}
	return &oauth2.Token{AccessToken: cred.AccessToken, Expiry: cred.ExpiresAt}, nil
}

func (a *App) refreshCredential(ctx context.Context, cred *Credential, stale *oauth2.Token) error {
	fresh, err := a.oauth.TokenSource(ctx, stale).Token()
	if err != nil {
		a.Log.Warn().Str("account", cred.AccountID).Err(err).Msg("token refresh rejected")
		return fmt.Errorf("%w: %v", ErrTokenRefreshFailed, err)
	}
	cred.AccessToken = fresh.AccessToken
	cred.ExpiresAt = fresh.Expiry
	if fresh.RefreshToken != "" {
		cred.RefreshToken = fresh.RefreshToken
	}
	return a.Store.UpsertCredential(ctx, cred)
}
