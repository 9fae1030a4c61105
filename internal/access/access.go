// Package access decides who may read and who may change authored content.
//
// The actor is always passed in explicitly. Reads go through VisibleTo (or
// its query form Scope); writes additionally require CanMutate.
package access

import "gorm.io/gorm"

// Actor identifies the caller of an operation. The zero value is anonymous.
type Actor struct {
	UserID uint
}

// Anonymous returns an actor without identity.
func Anonymous() Actor { return Actor{} }

// User returns an authenticated actor for the given user id.
func User(id uint) Actor { return Actor{UserID: id} }

// Authenticated reports whether the actor carries an identity.
func (a Actor) Authenticated() bool { return a.UserID != 0 }

// Authored is implemented by content that has an author and a publication flag.
type Authored interface {
	AuthoredBy() uint
	IsPublished() bool
}

// VisibleTo returns the read predicate for actor: published content for
// anonymous actors, published or own content for authenticated ones.
func VisibleTo(actor Actor) func(Authored) bool {
	if !actor.Authenticated() {
		return func(e Authored) bool { return e.IsPublished() }
	}
	return func(e Authored) bool {
		return e.IsPublished() || e.AuthoredBy() == actor.UserID
	}
}

// CanMutate reports whether actor may update or delete entity.
func CanMutate(entity Authored, actor Actor) bool {
	return actor.Authenticated() && entity.AuthoredBy() == actor.UserID
}

// Scope applies the VisibleTo predicate to a query over a table with
// published and author_id columns.
func Scope(actor Actor) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		if !actor.Authenticated() {
			return tx.Where("published = ?", true)
		}
		return tx.Where("(published = ? OR author_id = ?)", true, actor.UserID)
	}
}

// Decision is the outcome of resolving a write against an entity.
type Decision int

const (
	// Allowed means the actor may write.
	Allowed Decision = iota
	// Hidden means the entity must be reported as missing.
	Hidden
	// Forbidden means the entity is visible but belongs to someone else.
	Forbidden
)

// ForWrite combines visibility and authorship for update and delete.
func ForWrite(entity Authored, actor Actor) Decision {
	if !VisibleTo(actor)(entity) {
		return Hidden
	}
	if !CanMutate(entity, actor) {
		return Forbidden
	}
	return Allowed
}
