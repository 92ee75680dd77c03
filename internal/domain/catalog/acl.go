package catalog

import "github.com/storefront/backend/internal/domain/shared"

// Entity names used by ACL records, store mappings and localized properties
const (
	EntityNameProduct  = "Product"
	EntityNameCategory = "Category"
)

// AclRecord grants a customer role access to an entity that is subject to ACL
type AclRecord struct {
	shared.BaseEntity
	EntityID       int    `gorm:"not null;index:idx_acl_entity,priority:1"`
	EntityName     string `gorm:"type:varchar(400);not null;index:idx_acl_entity,priority:2"`
	CustomerRoleID int    `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (AclRecord) TableName() string {
	return "acl_records"
}

// StoreMapping limits an entity to a store
type StoreMapping struct {
	shared.BaseEntity
	EntityID   int    `gorm:"not null;index:idx_store_mapping_entity,priority:1"`
	EntityName string `gorm:"type:varchar(400);not null;index:idx_store_mapping_entity,priority:2"`
	StoreID    int    `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (StoreMapping) TableName() string {
	return "store_mappings"
}

// LocalizedProperty holds a translated value of an entity property
type LocalizedProperty struct {
	shared.BaseEntity
	EntityID       int    `gorm:"not null;index"`
	LanguageID     int    `gorm:"not null;index"`
	LocaleKeyGroup string `gorm:"type:varchar(150);not null"`
	LocaleKey      string `gorm:"type:varchar(255);not null"`
	LocaleValue    string `gorm:"type:text;not null"`
}

// TableName returns the table name for GORM
func (LocalizedProperty) TableName() string {
	return "localized_properties"
}
