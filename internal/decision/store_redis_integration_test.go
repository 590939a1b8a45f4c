//go:build integration

package decision

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"restgate/internal/encval"
	id "restgate/pkg/domain"
	"restgate/pkg/platform/sentinel"
	"restgate/pkg/testutil/containers"
)

type RedisDecisionStoreSuite struct {
	suite.Suite
	rc    *containers.RedisContainer
	store *RedisStore
	ctx   context.Context
}

func (s *RedisDecisionStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.rc = containers.NewRedisContainer(s.T())
	s.store = NewRedisStore(s.rc.Client)
}

func (s *RedisDecisionStoreSuite) SetupTest() {
	s.Require().NoError(s.rc.FlushAll(s.ctx))
}

func TestRedisDecisionStoreSuite(t *testing.T) {
	suite.Run(t, new(RedisDecisionStoreSuite))
}

func (s *RedisDecisionStoreSuite) TestLatestUnknownSubject() {
	_, err := s.store.Latest(s.ctx, id.NewIdentity())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisDecisionStoreSuite) TestSaveAndLatest() {
	subject := id.NewIdentity()
	var handle encval.Handle
	handle[31] = 0xEE

	record := Record{Subject: subject, Handle: handle, Public: true, UpdatedAt: time.Now()}
	s.Require().NoError(s.store.Save(s.ctx, record))

	found, err := s.store.Latest(s.ctx, subject)
	s.Require().NoError(err)
	s.Equal(handle, found.Handle)
	s.True(found.Public)
	s.WithinDuration(record.UpdatedAt, found.UpdatedAt, time.Millisecond)
}

func (s *RedisDecisionStoreSuite) TestOverwrite() {
	subject := id.NewIdentity()
	var first, second encval.Handle
	first[0] = 1
	second[0] = 2

	s.Require().NoError(s.store.Save(s.ctx, Record{Subject: subject, Handle: first, UpdatedAt: time.Now()}))
	s.Require().NoError(s.store.Save(s.ctx, Record{Subject: subject, Handle: second, UpdatedAt: time.Now()}))

	found, err := s.store.Latest(s.ctx, subject)
	s.Require().NoError(err)
	s.Equal(second, found.Handle)
}

func (s *RedisDecisionStoreSuite) TestSubjectsIsolated() {
	a := id.NewIdentity()
	var handle encval.Handle
	handle[0] = 7
	s.Require().NoError(s.store.Save(s.ctx, Record{Subject: a, Handle: handle, UpdatedAt: time.Now()}))

	_, err := s.store.Latest(s.ctx, id.NewIdentity())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}
