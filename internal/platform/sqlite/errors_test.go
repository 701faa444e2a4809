package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/phrazzld/scry-review/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestMapErrorPassThrough(t *testing.T) {
	t.Parallel()

	assert.NoError(t, MapError(nil))
	assert.ErrorIs(t, MapError(sql.ErrNoRows), store.ErrNotFound)
	assert.ErrorIs(t, MapError(fmt.Errorf("scan: %w", sql.ErrNoRows)), store.ErrNotFound)

	plain := errors.New("disk I/O error")
	assert.Equal(t, plain, MapError(plain))
}
