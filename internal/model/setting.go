package model

// Setting is a site-wide key/value row (announcement banner, etc.).
type Setting struct {
	Key   string `gorm:"size:64;primaryKey" json:"key"`
	Value string `gorm:"type:text" json:"value"`
}

const SettingAnnouncement = "announcement"
