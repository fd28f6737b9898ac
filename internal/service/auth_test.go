package service_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"luxora/internal/core/apperr"
	"luxora/internal/domain"
	"luxora/internal/service"
)

func TestRegisterDuplicateIsConflictAndCreatesNothing(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.customer(t, "asha@x.io", "9876543210")

	cases := []service.RegisterUserInput{
		{Name: "Dup", Email: "ASHA@x.io", Mobile: "9123456789", Password: "secret1"},
		{Name: "Dup", Email: "other@x.io", Mobile: "9876543210", Password: "secret1"},
	}
	for _, in := range cases {
		res, err := e.auth.RegisterUser(ctx, in)
		assert.Nil(t, res)
		assert.True(t, apperr.IsKind(err, apperr.KindConflict), "%v", err)
	}
	var n int64
	require.NoError(t, e.db.Model(&domain.User{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestLoginTokenResolvesToSameUser(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.customer(t, "asha@x.io", "9876543210")

	for _, id := range []string{"asha@x.io", "9876543210"} {
		res, err := e.auth.LoginUser(ctx, service.LoginInput{Identifier: id, Password: "secret1"})
		require.NoError(t, err)
		claims, err := e.jwt.Parse(res.Token)
		require.NoError(t, err)
		p, err := e.auth.LoadPrincipal(ctx, claims.UID, claims.Role)
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, domain.KindCustomer, p.Kind)
		assert.Equal(t, u.ID, p.ID())
		assert.NotNil(t, res.User.LastLogin)
	}

	res, err := e.auth.LoginUser(ctx, service.LoginInput{Email: "asha@x.io", Password: "wrong-pw"})
	assert.Nil(t, res)
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthorized))

	_, err = e.auth.LoginUser(ctx, service.LoginInput{Email: "ghost@x.io", Password: "secret1"})
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthorized), "unknown account looks the same as a bad password")
}

func TestSellerRegisterLoginAndPrincipal(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	res, err := e.auth.RegisterSeller(ctx, service.RegisterSellerInput{
		Name: "Ravi", Email: "ravi@shop.io", Mobile: "9000000009", Password: "Str0ngPass",
		BusinessName: "Ravi Traders", PAN: "abcde1234f", BankAccountNumber: "123456789012",
	})
	require.NoError(t, err)
	assert.Equal(t, "seller", res.Seller.Role)
	assert.False(t, res.Seller.IsApproved)

	_, err = e.auth.RegisterSeller(ctx, service.RegisterSellerInput{
		Name: "Ravi", Email: "ravi@shop.io", Mobile: "9000000010", Password: "Str0ngPass", BusinessName: "Again",
	})
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))

	login, err := e.auth.LoginSeller(ctx, service.LoginInput{Mobile: "9000000009", Password: "Str0ngPass"})
	require.NoError(t, err)
	claims, err := e.jwt.Parse(login.Token)
	require.NoError(t, err)
	p, err := e.auth.LoadPrincipal(ctx, claims.UID, claims.Role)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, domain.KindSeller, p.Kind)

	st, err := e.sellers.Settings(ctx, res.Seller.ID)
	require.NoError(t, err)
	assert.Equal(t, "ABCDE1234F", st.PAN)
	assert.Equal(t, "********9012", st.BankAccountMasked)

	// 卖家 token 的 id 在 users 表里不存在
	p, err = e.auth.LoadPrincipal(ctx, claims.UID, "user")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestEnsureAdminAndAdminLogin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.auth.EnsureAdmin(ctx, "root@luxora.io", "rootpass"))
	require.NoError(t, e.auth.EnsureAdmin(ctx, "root@luxora.io", "rootpass"))

	res, err := e.auth.LoginAdmin(ctx, service.LoginInput{Email: "root@luxora.io", Password: "rootpass"})
	require.NoError(t, err)
	claims, err := e.jwt.Parse(res.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Role)

	e.customer(t, "asha@x.io", "9876543210")
	_, err = e.auth.LoginAdmin(ctx, service.LoginInput{Email: "asha@x.io", Password: "secret1"})
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
}

var tokenRe = regexp.MustCompile(`token=([0-9a-f]+)`)

func TestPasswordResetIsSingleUse(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.customer(t, "asha@x.io", "9876543210")

	require.NoError(t, e.account.ForgotPassword(ctx, service.ForgotPasswordInput{Email: "nobody@x.io"}))
	assert.Empty(t, e.outbox.Sent(), "unknown email sends nothing but still succeeds")

	require.NoError(t, e.account.ForgotPassword(ctx, service.ForgotPasswordInput{Email: "asha@x.io"}))
	sent := e.outbox.Sent()
	require.Len(t, sent, 1)
	m := tokenRe.FindStringSubmatch(sent[0].Text)
	require.Len(t, m, 2)

	require.NoError(t, e.account.ResetPassword(ctx, service.ResetPasswordInput{Token: m[1], Password: "newpass1"}))
	err := e.account.ResetPassword(ctx, service.ResetPasswordInput{Token: m[1], Password: "another1"})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = e.auth.LoginUser(ctx, service.LoginInput{Email: "asha@x.io", Password: "newpass1"})
	assert.NoError(t, err)
}

func TestChangePasswordAndDeleteAccount(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.customer(t, "asha@x.io", "9876543210")

	err := e.account.ChangePassword(ctx, u.ID, service.ChangePasswordInput{CurrentPassword: "nope", NewPassword: "changed1"})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	require.NoError(t, e.account.ChangePassword(ctx, u.ID, service.ChangePasswordInput{CurrentPassword: "secret1", NewPassword: "changed1"}))

	prof, err := e.account.UpdateProfile(ctx, u.ID, service.UpdateProfileInput{Name: ptr("Asha K"), Address: &addr})
	require.NoError(t, err)
	assert.Equal(t, "Asha K", prof.Name)
	assert.Equal(t, "560001", prof.Address.Pincode)

	require.NoError(t, e.account.DeleteAccount(ctx, u.ID))
	p, err := e.auth.LoadPrincipal(ctx, u.ID, "user")
	require.NoError(t, err)
	assert.Nil(t, p)
	_, err = e.auth.LoginUser(ctx, service.LoginInput{Email: "asha@x.io", Password: "changed1"})
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthorized))
}
