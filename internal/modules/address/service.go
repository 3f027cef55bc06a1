package address

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zubacrafts/storefront/internal/modules/identity"
)

var (
	// ErrNotAuthenticated is returned for guest actors; the address book is
	// per-user only.
	ErrNotAuthenticated = errors.New("address: not authenticated")

	// ErrAddressNotFound is returned when an operation names a missing or
	// foreign address.
	ErrAddressNotFound = errors.New("address: not found")
)

// Service maintains a user's address book and enforces the single-default
// invariant per (user, type). Multi-step updates run demote-then-promote in
// that order so two defaults of one type are never both observable; partial
// failure is recovered by retrying the whole operation.
type Service interface {
	Add(ctx context.Context, actor identity.Actor, req Request) (*Address, error)
	Update(ctx context.Context, actor identity.Actor, id string, req Request) (*Address, error)
	Delete(ctx context.Context, actor identity.Actor, id string) error
	SetDefault(ctx context.Context, actor identity.Actor, id string) error
	List(ctx context.Context, actor identity.Actor) ([]*Address, error)

	// Default returns the default address of a type, nil when the type has
	// none (a valid empty state).
	Default(ctx context.Context, actor identity.Actor, t Type) (*Address, error)
}

// Request holds the data for creating or updating an address.
type Request struct {
	Type       Type   `json:"type"`
	IsDefault  bool   `json:"isDefault"`
	FullName   string `json:"fullName"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	Province   string `json:"province"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`
}

type service struct {
	repo Repository
	log  *logrus.Entry
}

// NewService creates a new address book service.
func NewService(repo Repository, log *logrus.Entry) Service {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &service{repo: repo, log: log}
}

func (s *service) Add(ctx context.Context, actor identity.Actor, req Request) (*Address, error) {
	if actor.Guest() {
		return nil, ErrNotAuthenticated
	}
	if err := validate(req); err != nil {
		return nil, err
	}
	now := time.Now()
	a := &Address{
		UserID:     actor.UserID,
		Type:       req.Type,
		IsDefault:  req.IsDefault,
		FullName:   req.FullName,
		Line1:      req.Line1,
		Line2:      req.Line2,
		City:       req.City,
		Province:   req.Province,
		PostalCode: req.PostalCode,
		Country:    req.Country,
		Phone:      req.Phone,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	// demote the prior default before the insert so the invariant holds at
	// every observable point
	if a.IsDefault {
		if err := s.demoteDefault(ctx, actor.UserID, a.Type, ""); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("create address: %w", err)
	}
	return a, nil
}

func (s *service) Update(ctx context.Context, actor identity.Actor, id string, req Request) (*Address, error) {
	if actor.Guest() {
		return nil, ErrNotAuthenticated
	}
	a, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := validate(req); err != nil {
		return nil, err
	}
	becameDefault := req.IsDefault && !a.IsDefault

	a.Type = req.Type
	a.IsDefault = req.IsDefault
	a.FullName = req.FullName
	a.Line1 = req.Line1
	a.Line2 = req.Line2
	a.City = req.City
	a.Province = req.Province
	a.PostalCode = req.PostalCode
	a.Country = req.Country
	a.Phone = req.Phone
	a.UpdatedAt = time.Now()

	if becameDefault {
		if err := s.demoteDefault(ctx, actor.UserID, a.Type, a.ID); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("update address: %w", err)
	}
	return a, nil
}

func (s *service) Delete(ctx context.Context, actor identity.Actor, id string) error {
	if actor.Guest() {
		return ErrNotAuthenticated
	}
	a, err := s.owned(ctx, actor, id)
	if err != nil {
		if errors.Is(err, ErrAddressNotFound) {
			return nil // idempotent
		}
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete address: %w", err)
	}
	// deleting the default promotes another address of the type, if any
	if a.IsDefault {
		rest, err := s.repo.ListByUser(ctx, actor.UserID)
		if err != nil {
			return fmt.Errorf("list addresses: %w", err)
		}
		for _, other := range rest {
			if other.Type == a.Type {
				other.IsDefault = true
				other.UpdatedAt = time.Now()
				if err := s.repo.Update(ctx, other); err != nil {
					return fmt.Errorf("promote replacement default: %w", err)
				}
				break
			}
		}
	}
	return nil
}

func (s *service) SetDefault(ctx context.Context, actor identity.Actor, id string) error {
	if actor.Guest() {
		return ErrNotAuthenticated
	}
	a, err := s.owned(ctx, actor, id)
	if err != nil {
		return err
	}
	if a.IsDefault {
		return nil
	}
	// demote first, then promote, on distinct records
	if err := s.demoteDefault(ctx, actor.UserID, a.Type, a.ID); err != nil {
		return err
	}
	a.IsDefault = true
	a.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, a); err != nil {
		return fmt.Errorf("promote default: %w", err)
	}
	return nil
}

func (s *service) List(ctx context.Context, actor identity.Actor) ([]*Address, error) {
	if actor.Guest() {
		return nil, ErrNotAuthenticated
	}
	return s.repo.ListByUser(ctx, actor.UserID)
}

func (s *service) Default(ctx context.Context, actor identity.Actor, t Type) (*Address, error) {
	if actor.Guest() {
		return nil, ErrNotAuthenticated
	}
	addrs, err := s.repo.ListByUser(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	for _, a := range addrs {
		if a.Type == t && a.IsDefault {
			return a, nil
		}
	}
	return nil, nil
}

// ── helpers ──────────────────────────────────────────────────────────────────

// demoteDefault clears the default flag on every address of the type except
// the one identified by keep.
func (s *service) demoteDefault(ctx context.Context, userID string, t Type, keep string) error {
	addrs, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("list addresses: %w", err)
	}
	for _, a := range addrs {
		if a.ID == keep || a.Type != t || !a.IsDefault {
			continue
		}
		a.IsDefault = false
		a.UpdatedAt = time.Now()
		if err := s.repo.Update(ctx, a); err != nil {
			return fmt.Errorf("demote default %s: %w", a.ID, err)
		}
	}
	return nil
}

func (s *service) owned(ctx context.Context, actor identity.Actor, id string) (*Address, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil || a.UserID != actor.UserID {
		return nil, ErrAddressNotFound
	}
	return a, nil
}

func validate(req Request) error {
	if req.Type != TypeShipping && req.Type != TypeBilling {
		return fmt.Errorf("address: type must be shipping or billing")
	}
	if req.FullName == "" || req.Line1 == "" || req.City == "" || req.Country == "" {
		return fmt.Errorf("address: full name, line1, city and country are required")
	}
	return nil
}
