package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"blog-api/internal/model"
	"blog-api/internal/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct{ err error }

func (f failingStore) GetUserByUsername(context.Context, string) (*model.User, error) {
	return nil, f.err
}

func (f failingStore) GetAdminByUsername(context.Context, string) (*model.Admin, error) {
	return nil, f.err
}

func TestResolve_UserAndAdminAreDisjoint(t *testing.T) {
	ctx := context.Background()
	codec := newTestCodec(t)
	st := memory.NewStore()
	now := time.Now()

	_, err := st.CreateUser(ctx, model.User{Username: "alice", Email: "alice@x.com"})
	require.NoError(t, err)
	_, err = st.CreateAdmin(ctx, model.Admin{Username: "root", Email: "root@x.com"})
	require.NoError(t, err)

	r := NewResolver(codec, st)

	userTok, err := codec.IssueAccess("alice", PrincipalUser, now)
	require.NoError(t, err)
	p, err := r.Resolve(ctx, userTok, KindAccess, PrincipalUser, now)
	require.NoError(t, err)
	assert.Equal(t, PrincipalUser, p.Kind)
	assert.Equal(t, "alice", p.Username())
	assert.Nil(t, p.Admin)

	_, err = r.Resolve(ctx, userTok, KindAccess, PrincipalAdmin, now)
	assert.ErrorIs(t, err, ErrTokenInvalid)
	assert.True(t, IsUnauthorized(err))

	adminTok, err := codec.IssueAccess("root", PrincipalAdmin, now)
	require.NoError(t, err)
	p, err = r.Resolve(ctx, adminTok, KindAccess, PrincipalAdmin, now)
	require.NoError(t, err)
	assert.Equal(t, PrincipalAdmin, p.Kind)
	assert.Equal(t, "root", p.Username())

	_, err = r.Resolve(ctx, adminTok, KindAccess, PrincipalUser, now)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestResolve_CollidingUsernames(t *testing.T) {
	ctx := context.Background()
	codec := newTestCodec(t)
	st := memory.NewStore()
	now := time.Now()

	_, err := st.CreateAdmin(ctx, model.Admin{Username: "root", Email: "root@x.com"})
	require.NoError(t, err)
	_, err = st.CreateUser(ctx, model.User{Username: "root", Email: "attacker@x.com"})
	require.NoError(t, err)

	r := NewResolver(codec, st)

	userTok, err := codec.IssueAccess("root", PrincipalUser, now)
	require.NoError(t, err)
	_, err = r.Resolve(ctx, userTok, KindAccess, PrincipalAdmin, now)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	p, err := r.Resolve(ctx, userTok, KindAccess, PrincipalUser, now)
	require.NoError(t, err)
	assert.Equal(t, "attacker@x.com", p.User.Email)

	adminTok, err := codec.IssueAccess("root", PrincipalAdmin, now)
	require.NoError(t, err)
	_, err = r.Resolve(ctx, adminTok, KindAccess, PrincipalUser, now)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestResolve_DeletedPrincipal(t *testing.T) {
	ctx := context.Background()
	codec := newTestCodec(t)
	st := memory.NewStore()
	now := time.Now()

	u, err := st.CreateUser(ctx, model.User{Username: "alice", Email: "alice@x.com"})
	require.NoError(t, err)
	tok, err := codec.IssueAccess("alice", PrincipalUser, now)
	require.NoError(t, err)

	r := NewResolver(codec, st)
	_, err = r.Resolve(ctx, tok, KindAccess, PrincipalUser, now)
	require.NoError(t, err)

	require.NoError(t, st.DeleteUser(ctx, u.ID))
	_, err = r.Resolve(ctx, tok, KindAccess, PrincipalUser, now)
	assert.ErrorIs(t, err, ErrPrincipalNotFound)
	assert.True(t, IsUnauthorized(err))
}

func TestResolve_TokenErrorsPassThrough(t *testing.T) {
	ctx := context.Background()
	codec := newTestCodec(t)
	r := NewResolver(codec, memory.NewStore())
	now := time.Now()

	_, err := r.Resolve(ctx, "garbage", KindAccess, PrincipalUser, now)
	assert.ErrorIs(t, err, ErrTokenMalformed)
	assert.True(t, IsUnauthorized(err))

	tok, err := codec.IssueAccess("alice", PrincipalUser, now)
	require.NoError(t, err)
	_, err = r.Resolve(ctx, tok, KindAccess, PrincipalUser, now.Add(time.Hour))
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.True(t, IsUnauthorized(err))
}

func TestResolve_StoreFailureIsNotUnauthorized(t *testing.T) {
	ctx := context.Background()
	codec := newTestCodec(t)
	boom := errors.New("connection refused")
	r := NewResolver(codec, failingStore{err: boom})
	now := time.Now()

	tok, err := codec.IssueAccess("alice", PrincipalUser, now)
	require.NoError(t, err)

	_, err = r.Resolve(ctx, tok, KindAccess, PrincipalUser, now)
	assert.ErrorIs(t, err, boom)
	assert.False(t, IsUnauthorized(err))
}
