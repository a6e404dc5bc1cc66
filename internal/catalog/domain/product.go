// Package domain 包含菜单目录的领域模型
package domain

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidPrice    = errors.New("product price must not be negative")
)

// Product 菜品
type Product struct {
	gorm.Model
	// 名称
	Name string `gorm:"column:name;type:varchar(255);not null" json:"name"`
	// 描述
	Description string `gorm:"column:description;type:text" json:"description"`
	// 单价
	Price decimal.Decimal `gorm:"column:price;type:decimal(20,2);not null" json:"price"`
	// 重量（克）
	Weight float64 `gorm:"column:weight" json:"weight"`
	// 分类
	Category string `gorm:"column:category;type:varchar(100);index" json:"category"`
}

func (Product) TableName() string { return "products" }

// Validate 校验菜品字段
func (p *Product) Validate() error {
	if p.Price.IsNegative() {
		return ErrInvalidPrice
	}
	return nil
}
