package cfg

import (
	"strconv"

	"github.com/pkg/errors"
)

// Storage 层级化配置数据，底层为 map/slice/标量的组合
// key 用点号（.）表示多级嵌套，[i] 表示数组索引，例如 "database.hosts[0].port"
type Storage struct {
	data any
}

func NewStorage(data any) *Storage {
	return &Storage{data: data}
}

// Data 返回底层原始数据
func (s *Storage) Data() any {
	return s.data
}

// parseKey 解析 key 字符串，点号和方括号都作为层级分隔
func parseKey(key string) []string {
	var keys []string
	var current string
	inBracket := false

	for _, char := range key {
		switch char {
		case '.':
			if inBracket {
				current += string(char)
				continue
			}
			if current != "" {
				keys = append(keys, current)
				current = ""
			}
		case '[':
			if current != "" {
				keys = append(keys, current)
				current = ""
			}
			inBracket = true
		case ']':
			if inBracket {
				if current != "" {
					keys = append(keys, current)
					current = ""
				}
				inBracket = false
			} else {
				current += string(char)
			}
		default:
			current += string(char)
		}
	}

	if current != "" {
		keys = append(keys, current)
	}
	return keys
}

// Get 按 key 路径读取值，路径上任何一级缺失返回 (nil, false)
func (s *Storage) Get(key string) (any, bool) {
	if key == "" {
		return s.data, true
	}

	current := s.data
	for _, k := range parseKey(key) {
		next, ok := childValue(current, k)
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

func childValue(data any, key string) (any, bool) {
	switch v := data.(type) {
	case map[string]any:
		value, ok := v[key]
		return value, ok
	case []any:
		index, err := strconv.Atoi(key)
		if err != nil || index < 0 || index >= len(v) {
			return nil, false
		}
		return v[index], true
	default:
		return nil, false
	}
}

// Set 按 key 路径写入值，路径上缺失的中间层按 map 创建
// 数组索引只能写已有下标或正好追加一位
func (s *Storage) Set(key string, value any) error {
	if key == "" {
		s.data = value
		return nil
	}

	keys := parseKey(key)
	data, err := setValue(s.data, keys, value)
	if err != nil {
		return err
	}
	s.data = data
	return nil
}

func setValue(data any, keys []string, value any) (any, error) {
	if len(keys) == 0 {
		return value, nil
	}

	key := keys[0]
	if index, err := strconv.Atoi(key); err == nil {
		list, ok := data.([]any)
		if !ok && data != nil {
			return nil, errors.Errorf("key %q indexes a non-array value", key)
		}
		if index < 0 || index > len(list) {
			return nil, errors.Errorf("array index %d out of range", index)
		}
		if index == len(list) {
			child, err := setValue(nil, keys[1:], value)
			if err != nil {
				return nil, err
			}
			return append(list, child), nil
		}
		child, err := setValue(list[index], keys[1:], value)
		if err != nil {
			return nil, err
		}
		list[index] = child
		return list, nil
	}

	m, ok := data.(map[string]any)
	if !ok {
		if data != nil {
			return nil, errors.Errorf("key %q addresses into a non-map value", key)
		}
		m = map[string]any{}
	}
	child, err := setValue(m[key], keys[1:], value)
	if err != nil {
		return nil, err
	}
	m[key] = child
	return m, nil
}

// Sub 获取子配置存储对象，key 为空时返回自身
func (s *Storage) Sub(key string) *Storage {
	if key == "" {
		return s
	}
	value, _ := s.Get(key)
	return NewStorage(value)
}
