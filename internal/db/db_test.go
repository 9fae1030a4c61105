package db

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()), logger.Silent)
	require.NoError(t, err)
	require.NoError(t, Migrate(gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return gdb
}

func TestWithForeignKeys(t *testing.T) {
	assert.Equal(t, "folio.db?_foreign_keys=1", withForeignKeys("folio.db"))
	assert.Equal(t, "file:x?mode=memory&_foreign_keys=1", withForeignKeys("file:x?mode=memory"))
	assert.Equal(t, "a.db?_foreign_keys=0", withForeignKeys("a.db?_foreign_keys=0"))
}

func TestInitCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "folio.db")
	require.NoError(t, Init(path))
	t.Cleanup(func() {
		if sqlDB, err := DB.DB(); err == nil {
			sqlDB.Close()
		}
	})

	assert.True(t, DB.Migrator().HasTable(&Page{}))
	assert.True(t, DB.Migrator().HasTable(&Post{}))
	assert.True(t, DB.Migrator().HasTable(&Token{}))
}

func TestTimestampsAreMaintained(t *testing.T) {
	gdb := openTestDB(t)

	user := User{Username: "alice", Password: "x", IsActive: true}
	require.NoError(t, gdb.Create(&user).Error)

	post := Post{Title: "Hello", Slug: "hello", Content: "body", AuthorID: user.ID}
	require.NoError(t, gdb.Create(&post).Error)
	assert.False(t, post.CreatedAt.IsZero())
	assert.False(t, post.UpdatedAt.IsZero())

	created := post.CreatedAt
	require.NoError(t, gdb.Model(&post).Update("title", "Hello again").Error)

	var reloaded Post
	require.NoError(t, gdb.First(&reloaded, post.ID).Error)
	assert.True(t, reloaded.CreatedAt.Equal(created))
	assert.False(t, reloaded.UpdatedAt.Before(created))
}

func TestSlugUniqueIndexRejectsDuplicates(t *testing.T) {
	gdb := openTestDB(t)

	user := User{Username: "alice", Password: "x", IsActive: true}
	require.NoError(t, gdb.Create(&user).Error)

	require.NoError(t, gdb.Create(&Page{Title: "About", Slug: "about", AuthorID: user.ID}).Error)
	err := gdb.Create(&Page{Title: "About", Slug: "about", AuthorID: user.ID}).Error
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey), "expected duplicated key, got %v", err)

	// slugs are unique per kind only
	require.NoError(t, gdb.Create(&Post{Title: "About", Slug: "about", AuthorID: user.ID}).Error)
}

func TestDeletingUserCascades(t *testing.T) {
	gdb := openTestDB(t)

	user := User{Username: "alice", Password: "x", IsActive: true}
	require.NoError(t, gdb.Create(&user).Error)
	require.NoError(t, gdb.Create(&Post{Title: "Hello", Slug: "hello", AuthorID: user.ID}).Error)
	require.NoError(t, gdb.Create(&Token{Key: "k", UserID: user.ID}).Error)

	require.NoError(t, gdb.Delete(&user).Error)

	var posts, tokens int64
	gdb.Model(&Post{}).Count(&posts)
	gdb.Model(&Token{}).Count(&tokens)
	assert.Zero(t, posts)
	assert.Zero(t, tokens)
}

func TestEnsureUser(t *testing.T) {
	gdb := openTestDB(t)

	created, err := EnsureUser(gdb, " admin ", "admin@example.com", "secret123")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = EnsureUser(gdb, "admin", "", "other")
	require.NoError(t, err)
	assert.False(t, created)

	created, err = EnsureUser(gdb, "", "", "")
	require.NoError(t, err)
	assert.False(t, created)

	var user User
	require.NoError(t, gdb.Where("username = ?", "admin").First(&user).Error)
	assert.True(t, user.IsActive)
	assert.NotEqual(t, "secret123", user.Password)
}
