package identity

import (
	"context"
	"strings"

	"github.com/zubacrafts/storefront/internal/store"
)

// Collection holds user accounts with a unique primary lookup by id and an
// email index for login.
const Collection = "users"

const emailIndex = "email"

// Spec is the collection schema, declared once at startup.
var Spec = store.CollectionSpec{
	Name:       Collection,
	PrimaryKey: "id",
	Indexes: []store.IndexSpec{
		{Name: emailIndex, Field: "email"},
	},
}

type storeRepo struct{ db store.Store }

// NewStoreRepository creates a gateway-backed user repository.
func NewStoreRepository(db store.Store) Repository { return &storeRepo{db: db} }

func (r *storeRepo) CreateUser(ctx context.Context, u *User) error {
	id, err := r.db.Add(ctx, Collection, u)
	if err != nil {
		return err
	}
	u.ID = id
	return nil
}

func (r *storeRepo) GetUserByID(ctx context.Context, id string) (*User, error) {
	var u User
	ok, err := r.db.GetByID(ctx, Collection, id, &u)
	if err != nil || !ok {
		return nil, err
	}
	return &u, nil
}

func (r *storeRepo) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var users []*User
	if err := r.db.GetByIndex(ctx, Collection, emailIndex, strings.ToLower(email), &users); err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}
	return users[0], nil
}

func (r *storeRepo) UpdateUser(ctx context.Context, u *User) error {
	return r.db.Update(ctx, Collection, u)
}

func (r *storeRepo) ListUsers(ctx context.Context) ([]*User, error) {
	var users []*User
	if err := r.db.GetAll(ctx, Collection, &users); err != nil {
		return nil, err
	}
	return users, nil
}
