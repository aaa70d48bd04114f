package otp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/memory"
)

func newStore() *Store {
	return NewStore(memory.NewStore().VerificationCodes())
}

func TestIssue_CodeShape(t *testing.T) {
	s := newStore()

	code, err := s.Issue(context.Background(), "a@b.c", models.PurposeRegister, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Len(t, code, CodeLength)
	assert.Regexp(t, `^\d{6}$`, code)
}

func TestIssue_SecondInvalidatesFirst(t *testing.T) {
	s := newStore()
	ctx := context.Background()
	exp := time.Now().Add(time.Minute)

	first, err := s.Issue(ctx, "a@b.c", models.PurposeRegister, exp)
	require.NoError(t, err)

	var second string
	for {
		second, err = s.Issue(ctx, "a@b.c", models.PurposeRegister, exp)
		require.NoError(t, err)
		if second != first {
			break
		}
	}

	_, err = s.Validate(ctx, "a@b.c", first, models.PurposeRegister)
	assert.ErrorIs(t, err, common.ErrInvalidOTP)

	vc, err := s.Validate(ctx, "a@b.c", second, models.PurposeRegister)
	require.NoError(t, err)
	assert.Equal(t, second, vc.Code)
}

func TestValidate_PurposeAndEmailMustMatch(t *testing.T) {
	s := newStore()
	ctx := context.Background()

	code, err := s.Issue(ctx, "a@b.c", models.PurposeRegister, time.Now().Add(time.Minute))
	require.NoError(t, err)

	_, err = s.Validate(ctx, "a@b.c", code, models.PurposeForgotPassword)
	assert.ErrorIs(t, err, common.ErrInvalidOTP)
	_, err = s.Validate(ctx, "x@b.c", code, models.PurposeRegister)
	assert.ErrorIs(t, err, common.ErrInvalidOTP)
}

func TestValidate_Expired(t *testing.T) {
	s := newStore()
	ctx := context.Background()

	code, err := s.Issue(ctx, "a@b.c", models.PurposeForgotPassword, time.Now().Add(-time.Second))
	require.NoError(t, err)

	_, err = s.Validate(ctx, "a@b.c", code, models.PurposeForgotPassword)
	assert.ErrorIs(t, err, common.ErrOTPExpired)
}

func TestValidate_UsesClock(t *testing.T) {
	s := newStore()
	ctx := context.Background()
	exp := time.Now().Add(time.Minute)

	code, err := s.Issue(ctx, "a@b.c", models.PurposeRegister, exp)
	require.NoError(t, err)

	s.WithClock(func() time.Time { return exp.Add(time.Second) })
	_, err = s.Validate(ctx, "a@b.c", code, models.PurposeRegister)
	assert.ErrorIs(t, err, common.ErrOTPExpired)
}

func TestConsume_Idempotent(t *testing.T) {
	s := newStore()
	ctx := context.Background()

	code, err := s.Issue(ctx, "a@b.c", models.PurposeRegister, time.Now().Add(time.Minute))
	require.NoError(t, err)

	require.NoError(t, s.Consume(ctx, "a@b.c", code, models.PurposeRegister))
	require.NoError(t, s.Consume(ctx, "a@b.c", code, models.PurposeRegister))

	_, err = s.Validate(ctx, "a@b.c", code, models.PurposeRegister)
	assert.ErrorIs(t, err, common.ErrInvalidOTP)
}

type failingRepo struct{ err error }

func (f failingRepo) Upsert(context.Context, *models.VerificationCode) error { return f.err }
func (f failingRepo) Find(context.Context, string, string, models.VerificationPurpose) (*models.VerificationCode, error) {
	return nil, f.err
}
func (f failingRepo) Delete(context.Context, string, string, models.VerificationPurpose) error {
	return f.err
}

func TestStore_PropagatesStorageErrors(t *testing.T) {
	boom := errors.New("boom")
	s := NewStore(failingRepo{err: boom})
	ctx := context.Background()

	_, err := s.Issue(ctx, "a@b.c", models.PurposeRegister, time.Now())
	assert.ErrorIs(t, err, boom)

	_, err = s.Validate(ctx, "a@b.c", "123456", models.PurposeRegister)
	assert.ErrorIs(t, err, boom)
	assert.False(t, common.IsDomain(err))

	assert.ErrorIs(t, s.Consume(ctx, "a@b.c", "123456", models.PurposeRegister), boom)
}
