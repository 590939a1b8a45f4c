package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "restgate/pkg/domain"
	audit "restgate/pkg/platform/audit"
)

type AuditStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
}

func (s *AuditStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
}

func TestAuditStoreSuite(t *testing.T) {
	suite.Run(t, new(AuditStoreSuite))
}

func (s *AuditStoreSuite) TestAppendAndListBySubject() {
	subject := id.NewIdentity()
	other := id.NewIdentity()

	s.Require().NoError(s.store.Append(s.ctx, audit.Event{
		Action:    audit.ActionDecisionRecorded,
		Timestamp: time.Now(),
		Subject:   subject,
	}))
	s.Require().NoError(s.store.Append(s.ctx, audit.Event{
		Action:  audit.ActionPolicyUpdated,
		Subject: other,
	}))

	events, err := s.store.ListBySubject(s.ctx, subject)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(audit.ActionDecisionRecorded, events[0].Action)
}

func (s *AuditStoreSuite) TestEmitSatisfiesEmitter() {
	var _ audit.Emitter = s.store

	subject := id.NewIdentity()
	s.Require().NoError(s.store.Emit(s.ctx, audit.Event{Action: audit.ActionAdminTransferred, Subject: subject}))

	all, err := s.store.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 1)
}

func (s *AuditStoreSuite) TestClear() {
	s.Require().NoError(s.store.Append(s.ctx, audit.Event{Subject: id.NewIdentity()}))
	s.store.Clear()

	all, err := s.store.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Empty(all)
}

func (s *AuditStoreSuite) TestListReturnsCopy() {
	subject := id.NewIdentity()
	s.Require().NoError(s.store.Append(s.ctx, audit.Event{Action: audit.ActionPolicyUpdated, Subject: subject}))

	events, err := s.store.ListBySubject(s.ctx, subject)
	s.Require().NoError(err)
	events[0].Action = audit.ActionAdminTransferred

	again, err := s.store.ListBySubject(s.ctx, subject)
	s.Require().NoError(err)
	s.Equal(audit.ActionPolicyUpdated, again[0].Action, "callers cannot mutate stored events")
}
