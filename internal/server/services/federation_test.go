package services

import (
	"context"
	"encoding/base64"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/oauth"
)

type fakeProvider struct {
	profile *oauth.Profile
	err     error
}

func (p *fakeProvider) AuthCodeURL(state string) string {
	return "https://idp.example/auth?state=" + url.QueryEscape(state)
}

func (p *fakeProvider) Exchange(context.Context, string) (*oauth.Profile, error) {
	return p.profile, p.err
}

func newFederation(e *env, p *fakeProvider) *FederationService {
	return NewFederationService(nil, e.manager, e.hasher, p, e.auth, logging.NewNop())
}

func stateFromURL(t *testing.T, raw string) string {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u.Query().Get("state")
}

func TestFederation_ProvisionsOnceThenReuses(t *testing.T) {
	e := newEnv(t)
	p := &fakeProvider{profile: &oauth.Profile{Email: "g@b.c", VerifiedEmail: true, Name: "G", Picture: "https://pic"}}
	svc := newFederation(e, p)
	ctx := context.Background()

	state := stateFromURL(t, svc.AuthorizationURL("ua-fed", "10.1.1.1"))

	first, err := svc.Complete(ctx, "code-1", state)
	require.NoError(t, err)
	second, err := svc.Complete(ctx, "code-2", state)
	require.NoError(t, err)

	a, err := e.signer.VerifyAccess(first.AccessToken)
	require.NoError(t, err)
	b, err := e.signer.VerifyAccess(second.AccessToken)
	require.NoError(t, err)

	assert.Equal(t, a.UserID, b.UserID)
	assert.NotEqual(t, a.DeviceID, b.DeviceID, "each sign-in gets its own device")
	assert.Equal(t, models.RoleClient, a.RoleName)

	device, ok := e.store.Device(a.DeviceID)
	require.True(t, ok)
	assert.Equal(t, "ua-fed", device.UserAgent)
	assert.Equal(t, "10.1.1.1", device.IP)

	user, err := e.manager.Users(nil).FindByEmail(ctx, "g@b.c")
	require.NoError(t, err)
	require.NotNil(t, user.Avatar)
	assert.Equal(t, "https://pic", *user.Avatar)
}

func TestFederation_ExistingPasswordAccount(t *testing.T) {
	e := newEnv(t)
	e.register(t, "a@b.c", "secret1")
	svc := newFederation(e, &fakeProvider{profile: &oauth.Profile{Email: "a@b.c", VerifiedEmail: true}})
	ctx := context.Background()

	_, err := svc.Complete(ctx, "code", "")
	require.NoError(t, err)

	// Password still works, the account was not replaced.
	_, err = e.auth.Login(ctx, LoginInput{Email: "a@b.c", Password: "secret1"})
	assert.NoError(t, err)
}

func TestFederation_UnreadableStateFallsBack(t *testing.T) {
	e := newEnv(t)
	svc := newFederation(e, &fakeProvider{profile: &oauth.Profile{Email: "g@b.c", VerifiedEmail: true}})

	for _, state := range []string{"%%%", base64.StdEncoding.EncodeToString([]byte("not json")), ""} {
		pair, err := svc.Complete(context.Background(), "code", state)
		require.NoError(t, err)

		claims, err := e.signer.VerifyAccess(pair.AccessToken)
		require.NoError(t, err)
		device, ok := e.store.Device(claims.DeviceID)
		require.True(t, ok)
		assert.Equal(t, common.UnknownClient, device.UserAgent, "state %q", state)
		assert.Equal(t, common.UnknownClient, device.IP, "state %q", state)
	}
}

func TestFederation_Errors(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := newFederation(e, &fakeProvider{profile: &oauth.Profile{Name: "no email"}}).Complete(ctx, "code", "")
	assert.ErrorIs(t, err, common.ErrFederationEmailMissing)

	_, err = newFederation(e, &fakeProvider{err: errBoom}).Complete(ctx, "code", "")
	assert.ErrorIs(t, err, errBoom)
}

func TestFederation_ConcurrentFirstSignIn(t *testing.T) {
	e := newEnv(t)
	svc := newFederation(e, &fakeProvider{profile: &oauth.Profile{Email: "race@b.c", VerifiedEmail: true}})

	var wg sync.WaitGroup
	ids := make([]int64, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pair, err := svc.Complete(context.Background(), "code", "")
			if !assert.NoError(t, err) {
				return
			}
			claims, err := e.signer.VerifyAccess(pair.AccessToken)
			if assert.NoError(t, err) {
				ids[i] = claims.UserID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func TestFederation_UnverifiedEmailCannotTakeOverAccount(t *testing.T) {
	e := newEnv(t)
	e.register(t, "victim@b.c", "secret1")
	svc := newFederation(e, &fakeProvider{profile: &oauth.Profile{Email: "victim@b.c", VerifiedEmail: false}})

	pair, err := svc.Complete(context.Background(), "code", "")
	assert.Nil(t, pair)
	assert.ErrorIs(t, err, common.ErrFederationEmailUnverified)

	// The owner's password login is untouched.
	_, err = e.auth.Login(context.Background(), LoginInput{Email: "victim@b.c", Password: "secret1"})
	assert.NoError(t, err)
}

func TestFederation_UnverifiedEmailIsNotProvisioned(t *testing.T) {
	e := newEnv(t)
	svc := newFederation(e, &fakeProvider{profile: &oauth.Profile{Email: "new@b.c"}})

	_, err := svc.Complete(context.Background(), "code", "")
	assert.ErrorIs(t, err, common.ErrFederationEmailUnverified)

	_, err = e.manager.Users(nil).FindByEmail(context.Background(), "new@b.c")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}
