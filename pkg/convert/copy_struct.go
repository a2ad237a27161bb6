package convert

import (
	"github.com/bytedance/sonic"
	"github.com/jinzhu/copier"
)

// StructAssign copies fields with matching names from binding into target.
// Both arguments must be pointers to structs.
// StructAssign 将 binding 中同名字段复制到 target，两个参数都必须是结构体指针
func StructAssign(target interface{}, binding interface{}) error {
	return copier.Copy(target, binding)
}

// StructToMap converts a struct to a map keyed by the JSON field names.
// StructToMap 将结构体转换为以 JSON 字段名为键的 map
func StructToMap(obj interface{}) (map[string]interface{}, error) {
	data, err := sonic.Marshal(obj)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := sonic.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}
