package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TrainingPlan stores a generated marathon plan as a JSONB document.
// The document layout is owned by the plandoc package.
type TrainingPlan struct {
	gorm.Model
	UserID   uint           `gorm:"not null;index"`
	User     User           `gorm:"constraint:OnDelete:CASCADE;"`
	PlanData datatypes.JSON `gorm:"type:jsonb;not null"`
}
