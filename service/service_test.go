package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Ahmed-Sermani/citerank/service"
	gc "gopkg.in/check.v1"
)

var _ = gc.Suite(new(GroupTestSuite))

func Test(t *testing.T) {
	gc.TestingT(t)
}

type GroupTestSuite struct{}

func (s *GroupTestSuite) TestAllServicesComplete(c *gc.C) {
	a, b := &stubService{name: "a"}, &stubService{name: "b"}
	c.Assert(service.Group{a, b}.Run(context.TODO()), gc.IsNil)
	c.Assert(a.ran, gc.Equals, true)
	c.Assert(b.ran, gc.Equals, true)
}

func (s *GroupTestSuite) TestErrorCancelsOthers(c *gc.C) {
	failing := &stubService{name: "failing", err: errors.New("boom")}
	blocking := &stubService{name: "blocking", block: true}

	err := service.Group{failing, blocking}.Run(context.TODO())
	c.Assert(err, gc.ErrorMatches, "(?s).*failing: boom.*")
	c.Assert(blocking.ran, gc.Equals, true)
}

func (s *GroupTestSuite) TestParentCancellation(c *gc.C) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	blocking := &stubService{name: "blocking", block: true}
	c.Assert(service.Group{blocking}.Run(ctx), gc.IsNil)
}

type stubService struct {
	name  string
	err   error
	block bool
	ran   bool
}

func (s *stubService) Name() string { return s.name }

func (s *stubService) Run(ctx context.Context) error {
	s.ran = true
	if s.block {
		<-ctx.Done()
		return nil
	}
	return s.err
}
