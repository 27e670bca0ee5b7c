package models

import "time"

type User struct {
	ID              int64      `json:"id" gorm:"primaryKey"`
	Email           string     `json:"email" gorm:"size:191;not null;uniqueIndex"`
	PasswordHash    string     `json:"-" gorm:"not null"`
	FullName        string     `json:"fullName" gorm:"size:255"`
	Mobile          string     `json:"mobile" gorm:"size:64"`
	DateOfBirth     *time.Time `json:"dateOfBirth"`
	Address         string     `json:"address" gorm:"size:255"`
	StartingBalance float64    `json:"startingBalance"`
	CreatedAt       time.Time  `json:"createdAt"`
}
