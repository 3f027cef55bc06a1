package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zubacrafts/storefront/internal/store"
)

// Session flags live in the flat key space, apart from the indexed
// collections, and are read on every per-identity call.
const (
	sessionAuthKey = "session:authenticated"
	sessionUserKey = "session:user"
)

var (
	// ErrInvalidCredentials is returned when the email is unknown or the
	// password does not match.
	ErrInvalidCredentials = errors.New("identity: invalid credentials")

	// ErrTwoFactorRequired signals that the account has a second factor
	// enabled. A distinguished login outcome, not a generic failure.
	ErrTwoFactorRequired = errors.New("identity: two-factor verification required")

	// ErrNotAuthenticated is returned where a session is required.
	ErrNotAuthenticated = errors.New("identity: not authenticated")

	// ErrEmailTaken is returned when registering an email that exists.
	ErrEmailTaken = errors.New("identity: email already registered")
)

// Service answers "who is acting now" from persisted session state and
// manages account registration and login. No network calls.
type Service interface {
	// Register creates an account. The password is prepared by the
	// configured credential verifier.
	Register(ctx context.Context, req RegisterRequest) (*User, error)

	// Login resolves the account by email, verifies the credential, and
	// establishes the session. Returns ErrInvalidCredentials on mismatch or
	// ErrTwoFactorRequired when the account has a second factor enabled.
	// The caller must trigger the guest cart merge after a successful login.
	Login(ctx context.Context, email, password string) (*User, error)

	// Logout clears the session unconditionally; it never fails.
	Logout(ctx context.Context)

	// Current returns the session principal, nil when anonymous.
	Current(ctx context.Context) (*User, error)

	// CurrentActor resolves the acting identity; the guest actor when no
	// session exists.
	CurrentActor(ctx context.Context) Actor

	// IsAuthenticated and IsAdmin are derived views over Current.
	IsAuthenticated(ctx context.Context) bool
	IsAdmin(ctx context.Context) bool

	// GetUser retrieves an account by id, nil when absent.
	GetUser(ctx context.Context, id string) (*User, error)
}

// RegisterRequest holds the data for creating an account.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
}

type service struct {
	repo     Repository
	sessions store.Store
	verify   CredentialVerifier
	log      *logrus.Entry
}

// NewService creates a new identity service. The store carries only the
// session flags; account data goes through the repository.
func NewService(repo Repository, sessions store.Store, verify CredentialVerifier, log *logrus.Entry) Service {
	if verify == nil {
		verify = PlaintextVerifier{}
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &service{repo: repo, sessions: sessions, verify: verify, log: log}
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, fmt.Errorf("identity: email and password are required")
	}
	existing, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("look up email: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}
	stored, err := s.verify.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("prepare credential: %w", err)
	}
	now := time.Now()
	u := &User{
		Email:     email,
		Password:  stored,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Role:      RoleCustomer,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (s *service) Login(ctx context.Context, email, password string) (*User, error) {
	u, err := s.repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, fmt.Errorf("look up email: %w", err)
	}
	if u == nil || !s.verify.Verify(u.Password, password) {
		return nil, ErrInvalidCredentials
	}
	if u.TwoFactorEnabled {
		return nil, ErrTwoFactorRequired
	}

	now := time.Now()
	u.LastLogin = &now
	u.UpdatedAt = now
	if err := s.repo.UpdateUser(ctx, u); err != nil {
		s.log.WithFields(logrus.Fields{"op": "login", "userId": u.ID, "error": err}).
			Warn("could not record last login")
	}
	if err := s.establishSession(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *service) Logout(ctx context.Context) {
	// best effort; a failed delete leaves stale flags that the next login
	// overwrites
	if err := s.sessions.DeleteValue(ctx, sessionUserKey); err != nil {
		s.log.WithField("op", "logout").Warn("could not clear session principal")
	}
	if err := s.sessions.DeleteValue(ctx, sessionAuthKey); err != nil {
		s.log.WithField("op", "logout").Warn("could not clear session flag")
	}
}

func (s *service) Current(ctx context.Context) (*User, error) {
	raw, ok, err := s.sessions.GetValue(ctx, sessionUserKey)
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var sess session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return s.repo.GetUserByID(ctx, sess.UserID)
}

func (s *service) CurrentActor(ctx context.Context) Actor {
	u, err := s.Current(ctx)
	if err != nil {
		s.log.WithFields(logrus.Fields{"op": "currentActor", "error": err}).
			Warn("could not resolve session, treating as guest")
		return Actor{}
	}
	return ActorFor(u)
}

func (s *service) IsAuthenticated(ctx context.Context) bool {
	u, err := s.Current(ctx)
	return err == nil && u != nil
}

func (s *service) IsAdmin(ctx context.Context) bool {
	u, err := s.Current(ctx)
	return err == nil && u != nil && u.Role == RoleAdmin
}

func (s *service) GetUser(ctx context.Context, id string) (*User, error) {
	return s.repo.GetUserByID(ctx, id)
}

func (s *service) establishSession(ctx context.Context, u *User) error {
	raw, err := json.Marshal(session{
		UserID:   u.ID,
		Email:    u.Email,
		Admin:    u.Role == RoleAdmin,
		IssuedAt: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.sessions.SetValue(ctx, sessionUserKey, raw); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	if err := s.sessions.SetValue(ctx, sessionAuthKey, []byte("true")); err != nil {
		return fmt.Errorf("persist session flag: %w", err)
	}
	return nil
}
