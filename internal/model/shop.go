package model

import (
	"time"
)

// Shop 状态常量
const (
	ShopStatusActive      = 1 // 正常
	ShopStatusUninstalled = 2 // 已卸载
)

// Shop 已安装应用的店铺
// 由安装/授权流程写入，打标引擎只读取离线 Token
type Shop struct {
	BaseModel
	Domain      string `gorm:"size:255;not null;uniqueIndex" json:"domain"` // xxx.myshopify.com
	AccessToken string `gorm:"size:255" json:"-"`
	Scope       string `gorm:"size:512" json:"scope"`
	Status      int    `gorm:"default:1;comment:状态 1-正常 2-已卸载" json:"status"`

	InstalledAt   time.Time  `json:"installed_at"`
	UninstalledAt *time.Time `json:"uninstalled_at,omitempty"`
}

func (Shop) TableName() string {
	return "shops"
}

// IsActive 店铺是否可调用平台接口
func (s *Shop) IsActive() bool {
	return s.Status == ShopStatusActive && s.AccessToken != ""
}
