package models

// Exercise is a catalog entry that routines and records refer to.
type Exercise struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:128;not null;uniqueIndex" json:"name"`
	Category    string `gorm:"size:32;index" json:"category"`
	Description string `gorm:"size:512" json:"description"`
}
