package cfg

import (
	"encoding/json"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

// decode 把文件内容解码为层级数据
// json/yaml/toml 解析为 map[string]any 的嵌套结构，ini 为两级 map
func decode(data []byte, format string) (any, error) {
	switch format {
	case "json":
		var result any
		if err := json.Unmarshal(data, &result); err != nil {
			return nil, errors.Wrap(err, "json.Unmarshal failed")
		}
		return result, nil
	case "yaml", "yml":
		var result any
		if err := yaml.Unmarshal(data, &result); err != nil {
			return nil, errors.Wrap(err, "yaml.Unmarshal failed")
		}
		return normalizeValue(result), nil
	case "toml":
		var result map[string]any
		if err := toml.Unmarshal(data, &result); err != nil {
			return nil, errors.Wrap(err, "toml.Unmarshal failed")
		}
		return normalizeValue(result), nil
	case "ini":
		file, err := ini.Load(data)
		if err != nil {
			return nil, errors.Wrap(err, "ini.Load failed")
		}
		result := map[string]any{}
		for _, section := range file.Sections() {
			values := map[string]any{}
			for _, key := range section.Keys() {
				values[key.Name()] = key.Value()
			}
			if section.Name() == ini.DefaultSection {
				for name, value := range values {
					result[name] = value
				}
				continue
			}
			result[section.Name()] = values
		}
		return result, nil
	default:
		return nil, errors.Errorf("unsupported format: %s", format)
	}
}

// encode 把层级数据编码回文件内容，Set/Save 回写时使用
func encode(data any, format string) ([]byte, error) {
	switch format {
	case "json":
		buf, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return nil, errors.Wrap(err, "json.Marshal failed")
		}
		return append(buf, '\n'), nil
	case "yaml", "yml":
		buf, err := yaml.Marshal(data)
		if err != nil {
			return nil, errors.Wrap(err, "yaml.Marshal failed")
		}
		return buf, nil
	default:
		return nil, errors.Errorf("format %s does not support encoding", format)
	}
}

// normalizeValue 统一嵌套结构的 map 键类型为 string
// yaml 解析出的 map 键可能是 any，toml 的子表类型也需要拉平
func normalizeValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		result := make(map[string]any, len(v))
		for key, item := range v {
			result[key] = normalizeValue(item)
		}
		return result
	case map[any]any:
		result := make(map[string]any, len(v))
		for key, item := range v {
			if name, ok := key.(string); ok {
				result[name] = normalizeValue(item)
			}
		}
		return result
	case []any:
		result := make([]any, len(v))
		for i, item := range v {
			result[i] = normalizeValue(item)
		}
		return result
	default:
		return value
	}
}
