package db

// Page represents a standalone content page such as About, Contact or Terms.
type Page struct {
	ID               uint   `gorm:"primaryKey"`
	Title            string `gorm:"size:200;not null"`
	Slug             string `gorm:"size:200;uniqueIndex;not null"`
	Content          string `gorm:"type:text;not null"`
	MetaDescription  string `gorm:"size:160"`
	AuthorID         uint   `gorm:"index;not null"`
	Author           User   `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	Published        bool   `gorm:"index;not null"`
	Order            int    `gorm:"column:sort_order;index;not null"`
	ShowInNavigation bool   `gorm:"not null"`
	Timestamps
}

// AuthoredBy returns the id of the page's author.
func (p Page) AuthoredBy() uint { return p.AuthorID }

// IsPublished reports whether the page is publicly visible.
func (p Page) IsPublished() bool { return p.Published }
