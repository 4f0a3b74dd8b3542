package models

// Ingredient is a shared catalog entry referenced by recipe posts
type Ingredient struct {
	ID   int64  `gorm:"primaryKey;autoIncrement;column:id"`
	Name string `gorm:"type:varchar(255);not null;uniqueIndex:idx_ingredient_name;column:name"`
}

// TableName specifies the table name for Ingredient
func (Ingredient) TableName() string {
	return "ingredients"
}
