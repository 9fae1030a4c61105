package db

// Post 定义了博客文章模型
type Post struct {
	ID        uint   `gorm:"primaryKey"`
	Title     string `gorm:"size:200;not null"`
	Slug      string `gorm:"size:200;uniqueIndex;not null"`
	Content   string `gorm:"type:text;not null"`
	AuthorID  uint   `gorm:"index;not null"`
	Author    User   `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	Published bool   `gorm:"index;not null"`
	Timestamps
}

// AuthoredBy returns the id of the post's author.
func (p Post) AuthoredBy() uint { return p.AuthorID }

// IsPublished reports whether the post is publicly visible.
func (p Post) IsPublished() bool { return p.Published }
