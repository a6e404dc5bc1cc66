// Package domain 包含购物车聚合及其不变量
package domain

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrCartNotFound        = errors.New("cart not found")
	ErrCartAlreadyExists   = errors.New("cart already exists for user")
	ErrEmptyCart           = errors.New("cart is empty")
	ErrEmptySelection      = errors.New("no cart lines selected")
	ErrInvalidQuantity     = errors.New("quantity must be positive")
	ErrConcurrencyConflict = errors.New("concurrent cart modification, retry the operation")
)

// Cart 购物车，每个用户恰好一个
type Cart struct {
	gorm.Model
	// 归属用户 ID，独立于购物车主键
	UserID string `gorm:"column:user_id;type:varchar(36);uniqueIndex;not null"`
	// 购物车条目
	Lines []CartLine `gorm:"foreignKey:CartID"`
}

func (Cart) TableName() string { return "carts" }

// CartLine 购物车条目，同一商品在车内至多一条
type CartLine struct {
	gorm.Model
	CartID    uint `gorm:"column:cart_id;not null;uniqueIndex:uniq_cart_product"`
	ProductID uint `gorm:"column:product_id;not null;uniqueIndex:uniq_cart_product"`
	// 数量，恒 ≥ 1；归零的条目整条删除
	Quantity int `gorm:"column:quantity;not null"`
}

func (CartLine) TableName() string { return "cart_lines" }

// LineChangeKind 条目变更种类
type LineChangeKind int

const (
	LineUnchanged LineChangeKind = iota
	LineCreated
	LineUpdated
	LineRemoved
)

// LineChange 一次数量变更对条目产生的影响，供仓储落库
type LineChange struct {
	Kind LineChangeKind
	Line *CartLine
}

// Line 返回指定商品的条目，不存在时返回 nil
func (c *Cart) Line(productID uint) *CartLine {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			return &c.Lines[i]
		}
	}
	return nil
}

// IsEmpty 购物车是否为空
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// ApplyDelta 对指定商品的数量施加增量
// 结果 ≤ 0 时整条删除；条目不存在且增量为正时新建；不存在且增量非正时无操作
func (c *Cart) ApplyDelta(productID uint, delta int) LineChange {
	line := c.Line(productID)
	if line == nil {
		if delta <= 0 {
			return LineChange{Kind: LineUnchanged}
		}
		c.Lines = append(c.Lines, CartLine{CartID: c.ID, ProductID: productID, Quantity: delta})
		return LineChange{Kind: LineCreated, Line: &c.Lines[len(c.Lines)-1]}
	}

	line.Quantity += delta
	if line.Quantity <= 0 {
		removed := *line
		c.removeLine(productID)
		return LineChange{Kind: LineRemoved, Line: &removed}
	}
	return LineChange{Kind: LineUpdated, Line: line}
}

// RemoveLine 删除指定商品的条目，不存在时无操作
func (c *Cart) RemoveLine(productID uint) LineChange {
	line := c.Line(productID)
	if line == nil {
		return LineChange{Kind: LineUnchanged}
	}
	removed := *line
	c.removeLine(productID)
	return LineChange{Kind: LineRemoved, Line: &removed}
}

// Clear 清空购物车
func (c *Cart) Clear() {
	c.Lines = nil
}

// SelectLines 按商品 ID 选取条目子集，保持车内顺序，重复 ID 只取一次
func (c *Cart) SelectLines(productIDs []uint) []CartLine {
	wanted := make(map[uint]bool, len(productIDs))
	for _, id := range productIDs {
		wanted[id] = true
	}
	var selected []CartLine
	for _, line := range c.Lines {
		if wanted[line.ProductID] {
			selected = append(selected, line)
		}
	}
	return selected
}

func (c *Cart) removeLine(productID uint) {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return
		}
	}
}
