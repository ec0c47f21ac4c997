package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONB JSONB类型
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("failed to scan JSONB: %v", value)
	}
	return json.Unmarshal(bytes, j)
}

// JSONBArray JSONB数组类型
type JSONBArray []interface{}

func (j JSONBArray) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONBArray) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("failed to scan JSONBArray: %v", value)
	}
	return json.Unmarshal(bytes, j)
}

// 角色
const (
	RoleAdmin        = "admin"
	RoleOps          = "ops"
	RoleManufacturer = "manufacturer"
)

// Actor 请求操作者（由JWT中间件+TenantScope解析）
type Actor struct {
	UserID         string
	Name           string
	Role           string
	ManufacturerID string // 仅manufacturer角色有值，空=无关联
}

// IsStaff admin/ops内部角色
func (a Actor) IsStaff() bool {
	return a.Role == RoleAdmin || a.Role == RoleOps
}
