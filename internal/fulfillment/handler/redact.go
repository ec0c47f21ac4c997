package handler

import (
	"encoding/json"

	"github.com/bitfantasy/loom/internal/fulfillment/entity"
)

// financialFields manufacturer角色响应里要剥离的金额字段（snake_case键名）
var financialFields = map[string]struct{}{
	"unit_price":  {},
	"line_total":  {},
	"subtotal":    {},
	"total":       {},
	"tax":         {},
	"discount":    {},
	"msrp":        {},
	"cost":        {},
	"base_price":  {},
	"commission":  {},
	"revenue":     {},
	"amount_paid": {},
	"invoice_url": {},
	"actual_cost": {},
}

// Redact 按角色剥离金额字段
// 只有manufacturer角色触发过滤；通过JSON序列化转成通用结构后深度遍历，
// 嵌套对象和数组逐层处理，防止预加载关联把金额带出去
func Redact(payload interface{}, role string) interface{} {
	if role != entity.RoleManufacturer || payload == nil {
		return payload
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return payload
	}

	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return payload
	}

	return scrub(generic)
}

func scrub(node interface{}) interface{} {
	switch v := node.(type) {
	case map[string]interface{}:
		for key, value := range v {
			if _, blocked := financialFields[key]; blocked {
				delete(v, key)
				continue
			}
			v[key] = scrub(value)
		}
		return v
	case []interface{}:
		for i := range v {
			v[i] = scrub(v[i])
		}
		return v
	default:
		return v
	}
}
