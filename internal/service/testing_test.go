package service

import (
	"fmt"
	"strings"
	"testing"

	"github.com/folio/internal/access"
	"github.com/folio/internal/db"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	gdb, err := db.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name), logger.Silent)
	require.NoError(t, err, "failed to open test database")
	require.NoError(t, db.Migrate(gdb), "failed to migrate test database")

	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return gdb
}

func seedUser(t *testing.T, gdb *gorm.DB, username string) access.Actor {
	t.Helper()
	user := db.User{Username: username, Password: "hashed", IsActive: true}
	require.NoError(t, gdb.Create(&user).Error, "failed to seed user")
	return access.User(user.ID)
}

func ptr[T any](v T) *T { return &v }
