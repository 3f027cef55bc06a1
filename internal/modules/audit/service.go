package audit

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zubacrafts/storefront/internal/modules/identity"
)

// ErrPermissionDenied guards reading the log.
var ErrPermissionDenied = errors.New("audit: permission denied")

// Service appends and reads the admin audit log. Record never fails the
// calling operation: a write error is logged and swallowed.
type Service interface {
	// Record appends an entry for an admin action. Non-admin actors are
	// ignored.
	Record(ctx context.Context, actor identity.Actor, action, entity, entityID, detail string)

	// List returns the log, optionally filtered by entity kind. Admin only.
	List(ctx context.Context, actor identity.Actor, entity string) ([]*Entry, error)
}

type service struct {
	repo Repository
	log  *logrus.Entry
}

// NewService creates a new audit service.
func NewService(repo Repository, log *logrus.Entry) Service {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &service{repo: repo, log: log}
}

func (s *service) Record(ctx context.Context, actor identity.Actor, action, entity, entityID, detail string) {
	if !actor.Admin {
		return
	}
	e := &Entry{
		AdminID:   actor.UserID,
		Action:    action,
		Entity:    entity,
		EntityID:  entityID,
		Detail:    detail,
		Timestamp: time.Now(),
	}
	if err := s.repo.CreateEntry(ctx, e); err != nil {
		s.log.WithFields(logrus.Fields{"op": "audit", "action": action, "entity": entity, "error": err}).
			Warn("could not append audit entry")
	}
}

func (s *service) List(ctx context.Context, actor identity.Actor, entity string) ([]*Entry, error) {
	if !actor.Admin {
		return nil, ErrPermissionDenied
	}
	if entity != "" {
		return s.repo.ListEntriesByEntity(ctx, entity)
	}
	return s.repo.ListEntries(ctx)
}
