package testing

import (
	"context"
	"os"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/gravitational/qbrest/lib/logger"
)

// Suite is a testify suite carrying a per-test context.
type Suite struct {
	suite.Suite
	ctx context.Context
}

// SetContext installs a context that expires after timeout and is canceled
// when the current test finishes.
func (s *Suite) SetContext(timeout time.Duration) context.Context {
	t := s.T()
	t.Helper()

	require.Nil(t, s.ctx, "Context cannot be set twice")

	ctx, _ := logger.WithField(context.Background(), "test", t.Name())
	ctx, cancel := context.WithTimeout(ctx, timeout)
	t.Cleanup(func() {
		cancel()
		s.ctx = nil
	})
	s.ctx = ctx
	return ctx
}

// Ctx returns the current test context, creating one with a 5s timeout.
func (s *Suite) Ctx() context.Context {
	t := s.T()
	t.Helper()

	if ctx := s.ctx; ctx != nil {
		return ctx
	}
	return s.SetContext(5 * time.Second)
}

// NewTmpFile creates a temporary file removed after the test.
func (s *Suite) NewTmpFile(pattern string) *os.File {
	t := s.T()
	t.Helper()

	file, err := os.CreateTemp("", pattern)
	require.NoError(t, err)
	t.Cleanup(func() {
		err := os.Remove(file.Name())
		require.NoError(t, err)
	})
	return file
}

// NewTmpDir creates a temporary directory removed after the test.
func (s *Suite) NewTmpDir() string {
	return s.T().TempDir()
}
