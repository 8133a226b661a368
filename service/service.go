/*
   Long running units of work and their joint lifecycle.
*/
package service

import (
	"context"
	"sync"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/xerrors"
)

// Service is a named unit of work.
type Service interface {
	Name() string

	// Run executes the service and blocks until its work is done, the
	// context gets cancelled or an error occurs.
	Run(context.Context) error
}

// Group runs several services concurrently.
type Group []Service

// Run executes all services in the group with a shared context. It blocks
// until every service has returned. The first failing service cancels the
// others and all errors are reported together.
func (g Group) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errCh := make(chan error, len(g))
	wg.Add(len(g))
	for _, s := range g {
		go func(s Service) {
			defer wg.Done()
			if err := s.Run(runCtx); err != nil {
				errCh <- xerrors.Errorf("%s: %w", s.Name(), err)
				cancel()
			}
		}(s)
	}
	wg.Wait()

	var err error
	close(errCh)
	for svcErr := range errCh {
		err = multierror.Append(err, svcErr)
	}
	return err
}
