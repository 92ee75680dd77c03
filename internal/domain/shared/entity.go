package shared

import "time"

// Entity is the base interface for all catalog entities
type Entity interface {
	GetID() int
}

// BaseEntity provides the integer identity shared by catalog tables.
// Integer keys are required because the search filters use 0 and
// math.MaxInt32 as "none" and "any" sentinels.
type BaseEntity struct {
	ID int `gorm:"primaryKey;autoIncrement"`
}

// GetID returns the entity ID
func (e *BaseEntity) GetID() int {
	return e.ID
}

// IsTransient reports whether the entity has not been persisted yet
func (e *BaseEntity) IsTransient() bool {
	return e.ID == 0
}

// AuditedEntity adds creation and update timestamps
type AuditedEntity struct {
	BaseEntity
	CreatedOnUTC time.Time `gorm:"column:created_on_utc;not null"`
	UpdatedOnUTC time.Time `gorm:"column:updated_on_utc;not null"`
}

// Touch sets the timestamps for a save at now
func (e *AuditedEntity) Touch(now time.Time) {
	now = now.UTC()
	if e.CreatedOnUTC.IsZero() {
		e.CreatedOnUTC = now
	}
	e.UpdatedOnUTC = now
}
