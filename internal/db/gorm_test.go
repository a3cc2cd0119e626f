package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodorder/internal/model"
)

func TestOpenGormSQLiteMigrates(t *testing.T) {
	db, err := OpenGorm(context.Background(), "sqlite", ":memory:")
	require.NoError(t, err)

	for _, m := range []interface{}{&model.User{}, &model.Food{}, &model.Order{}} {
		assert.True(t, db.Migrator().HasTable(m))
	}
}

func TestOpenGormRejectsUnknownDriver(t *testing.T) {
	_, err := OpenGorm(context.Background(), "oracle", "")
	assert.ErrorContains(t, err, "unsupported DB_DRIVER")
}
