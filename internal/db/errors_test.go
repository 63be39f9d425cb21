package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestIsDuplicateKey(t *testing.T) {
	assert.False(t, IsDuplicateKey(nil))
	assert.True(t, IsDuplicateKey(fmt.Errorf("create: %w", gorm.ErrDuplicatedKey)))
	assert.True(t, IsDuplicateKey(errors.New(`ERROR: duplicate key value violates unique constraint "idx_members_category_email"`)))
	assert.True(t, IsDuplicateKey(errors.New("UNIQUE constraint failed: members.category, members.email")))
	assert.False(t, IsDuplicateKey(gorm.ErrRecordNotFound))
}
