package catalog

import (
	"fmt"
	"strings"

	"github.com/storefront/backend/internal/domain/shared"
)

// MaxCategoryDepth is the maximum depth of the category hierarchy
const MaxCategoryDepth = 8

// Category is a node of the catalog tree. TreePath is the materialized
// path of ancestor IDs including the category itself, e.g. "/1/5/12/".
type Category struct {
	shared.BaseEntity
	Name         string `gorm:"type:varchar(400);not null"`
	ParentID     int    `gorm:"column:parent_category_id;not null;default:0;index"`
	TreePath     string `gorm:"type:varchar(400);not null;index"`
	Published    bool   `gorm:"not null;default:true"`
	SubjectToACL bool   `gorm:"column:subject_to_acl;not null;default:false"`
	DisplayOrder int    `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (Category) TableName() string {
	return "categories"
}

// NewCategory creates a category below parent. A nil parent creates a root.
// The tree path is completed by UpdateTreePath once the ID is known.
func NewCategory(name string, parent *Category) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Category name cannot be empty")
	}
	c := &Category{Name: name, Published: true}
	if parent != nil {
		if parent.Depth() >= MaxCategoryDepth {
			return nil, shared.NewDomainError("MAX_DEPTH_EXCEEDED", fmt.Sprintf("Category depth cannot exceed %d", MaxCategoryDepth))
		}
		c.ParentID = parent.ID
		c.TreePath = parent.TreePath
	}
	return c, nil
}

// UpdateTreePath appends the category's own ID to its parent path
func (c *Category) UpdateTreePath(parentPath string) {
	if parentPath == "" {
		parentPath = "/"
	}
	c.TreePath = fmt.Sprintf("%s%d/", parentPath, c.ID)
}

// Depth returns the number of levels in the tree path
func (c *Category) Depth() int {
	return len(c.AncestorIDs())
}

// AncestorIDs returns all IDs in the tree path, root first
func (c *Category) AncestorIDs() []int {
	var ids []int
	for _, part := range strings.Split(strings.Trim(c.TreePath, "/"), "/") {
		var id int
		if _, err := fmt.Sscanf(part, "%d", &id); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

// ProductCategory maps a product to a category
type ProductCategory struct {
	shared.BaseEntity
	ProductID         int  `gorm:"not null;index"`
	CategoryID        int  `gorm:"not null;index"`
	IsFeaturedProduct bool `gorm:"not null;default:false"`
	DisplayOrder      int  `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (ProductCategory) TableName() string {
	return "product_category_mappings"
}

// Manufacturer is the brand of a product
type Manufacturer struct {
	shared.BaseEntity
	Name         string `gorm:"type:varchar(400);not null"`
	Published    bool   `gorm:"not null;default:true"`
	DisplayOrder int    `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (Manufacturer) TableName() string {
	return "manufacturers"
}

// ProductManufacturer maps a product to a manufacturer
type ProductManufacturer struct {
	shared.BaseEntity
	ProductID         int  `gorm:"not null;index"`
	ManufacturerID    int  `gorm:"not null;index"`
	IsFeaturedProduct bool `gorm:"not null;default:false"`
	DisplayOrder      int  `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (ProductManufacturer) TableName() string {
	return "product_manufacturer_mappings"
}

// ProductTag is a free-form label
type ProductTag struct {
	shared.BaseEntity
	Name      string `gorm:"type:varchar(400);not null"`
	Published bool   `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (ProductTag) TableName() string {
	return "product_tags"
}
