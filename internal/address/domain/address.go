// Package domain 包含收货地址的领域模型
package domain

import (
	"errors"

	"gorm.io/gorm"
)

var ErrAddressNotFound = errors.New("address not found")

// Address 收货地址，归属于单个用户
type Address struct {
	gorm.Model
	// 归属用户 ID
	UserID string `gorm:"column:user_id;type:varchar(36);index;not null" json:"user_id"`
	// 城市
	City string `gorm:"column:city;type:varchar(100);not null" json:"city"`
	// 街道
	Street string `gorm:"column:street;type:varchar(255);not null" json:"street"`
	// 门牌号
	House string `gorm:"column:house;type:varchar(50);not null" json:"house"`
}

func (Address) TableName() string { return "addresses" }
