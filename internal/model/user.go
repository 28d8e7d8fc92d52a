package model

import (
	"time"

	"gorm.io/datatypes"
)

// User is a registered account. Only the backend stores these.
type User struct {
	ID            string         `json:"id" gorm:"primaryKey"`
	Email         string         `json:"email" gorm:"uniqueIndex;not null"`
	Password      string         `json:"password" gorm:"not null"`
	Name          string         `json:"name"`
	Plan          string         `json:"plan" gorm:"not null;default:free"`
	AnalysisCount int            `json:"analysisCount" gorm:"default:0"`
	Metadata      datatypes.JSON `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt     time.Time      `json:"createdAt"`
}

func (u *User) GetPublicProfile() map[string]interface{} {
	return map[string]interface{}{
		"id":            u.ID,
		"email":         u.Email,
		"name":          u.Name,
		"plan":          u.Plan,
		"analysisCount": u.AnalysisCount,
		"createdAt":     u.CreatedAt,
	}
}
