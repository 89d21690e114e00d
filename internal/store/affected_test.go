package store

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeResult struct {
	rows int64
	err  error
}

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.rows, r.err }

func TestRequireAffected(t *testing.T) {
	assert.NoError(t, requireAffected(fakeResult{rows: 1}, "user", "u1"))

	err := requireAffected(fakeResult{}, "user", "u1")
	assert.True(t, errors.Is(err, ErrNotFound))

	driverErr := errors.New("driver does not report rows")
	err = requireAffected(fakeResult{err: driverErr}, "user", "u1")
	assert.True(t, errors.Is(err, driverErr))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "user u1")
}
