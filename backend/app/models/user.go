package models

// User is the user/API key table. It is migrated but no operation reads or writes it.
type User struct {
	ID       uint   `gorm:"primaryKey"`
	Username string `gorm:"size:191;index"`
	Domain   string `gorm:"size:191;index"`
	APIKey   string `gorm:"size:255"`
}
