package cfg

import (
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

var validate = validator.New()

// ConvertTo 将配置数据转成结构体或者 map/slice 等任意结构
// 结构体字段名取 cfg tag，零值字段用 def tag 填充默认值
// 转换完成后按 validate tag 校验
func (s *Storage) ConvertTo(object any) error {
	rv := reflect.ValueOf(object)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return errors.New("object must be a non-nil pointer")
	}

	if err := convertValue(s.data, rv.Elem()); err != nil {
		return err
	}

	if rv.Elem().Kind() == reflect.Struct {
		if err := validate.Struct(object); err != nil {
			return errors.WithMessage(err, "validate failed")
		}
	}
	return nil
}

func convertValue(data any, target reflect.Value) error {
	for target.Kind() == reflect.Ptr {
		if target.IsNil() {
			target.Set(reflect.New(target.Type().Elem()))
		}
		target = target.Elem()
	}

	switch target.Kind() {
	case reflect.Struct:
		return convertStruct(data, target)
	case reflect.Map:
		return convertMap(data, target)
	case reflect.Slice:
		return convertSlice(data, target)
	case reflect.Interface:
		if data != nil {
			target.Set(reflect.ValueOf(data))
		}
		return nil
	default:
		return convertScalar(data, target)
	}
}

func convertStruct(data any, target reflect.Value) error {
	var m map[string]any
	if data != nil {
		var ok bool
		m, ok = data.(map[string]any)
		if !ok {
			return errors.Errorf("expected map for struct %s, got %T", target.Type(), data)
		}
	}

	rt := target.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}

		name := field.Tag.Get("cfg")
		if idx := strings.Index(name, ","); idx != -1 {
			name = name[:idx]
		}
		if name == "-" {
			continue
		}
		if name == "" {
			name = field.Name
		}

		value, ok := m[name]
		if ok {
			if err := convertValue(value, target.Field(i)); err != nil {
				return errors.WithMessagef(err, "field %s", field.Name)
			}
			continue
		}

		// 缺失的字段用 def tag 填默认值
		if def := field.Tag.Get("def"); def != "" && target.Field(i).IsZero() {
			if err := convertValue(def, target.Field(i)); err != nil {
				return errors.WithMessagef(err, "default of field %s", field.Name)
			}
		}
	}
	return nil
}

func convertMap(data any, target reflect.Value) error {
	if data == nil {
		return nil
	}
	m, ok := data.(map[string]any)
	if !ok {
		return errors.Errorf("expected map, got %T", data)
	}

	result := reflect.MakeMapWithSize(target.Type(), len(m))
	for key, value := range m {
		elem := reflect.New(target.Type().Elem()).Elem()
		if err := convertValue(value, elem); err != nil {
			return errors.WithMessagef(err, "key %s", key)
		}
		result.SetMapIndex(reflect.ValueOf(key), elem)
	}
	target.Set(result)
	return nil
}

func convertSlice(data any, target reflect.Value) error {
	if data == nil {
		return nil
	}
	list, ok := data.([]any)
	if !ok {
		return errors.Errorf("expected array, got %T", data)
	}

	result := reflect.MakeSlice(target.Type(), len(list), len(list))
	for i, value := range list {
		if err := convertValue(value, result.Index(i)); err != nil {
			return errors.WithMessagef(err, "index %d", i)
		}
	}
	target.Set(result)
	return nil
}

var durationType = reflect.TypeOf(time.Duration(0))

func convertScalar(data any, target reflect.Value) error {
	if data == nil {
		return nil
	}

	// 字符串形式的时长、数字和布尔值按目标类型解析
	if str, ok := data.(string); ok && target.Kind() != reflect.String {
		return convertString(str, target)
	}

	value := reflect.ValueOf(data)
	if value.Type().AssignableTo(target.Type()) {
		target.Set(value)
		return nil
	}
	if value.Type().ConvertibleTo(target.Type()) {
		target.Set(value.Convert(target.Type()))
		return nil
	}
	return errors.Errorf("cannot convert %T to %s", data, target.Type())
}

func convertString(str string, target reflect.Value) error {
	if target.Type() == durationType {
		d, err := time.ParseDuration(str)
		if err != nil {
			return errors.Wrap(err, "invalid duration")
		}
		target.SetInt(int64(d))
		return nil
	}

	switch target.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(str, 10, 64)
		if err != nil {
			return errors.Wrap(err, "invalid integer")
		}
		target.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(str, 10, 64)
		if err != nil {
			return errors.Wrap(err, "invalid unsigned integer")
		}
		target.SetUint(u)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return errors.Wrap(err, "invalid float")
		}
		target.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(str)
		if err != nil {
			return errors.Wrap(err, "invalid bool")
		}
		target.SetBool(b)
	default:
		return errors.Errorf("cannot convert string to %s", target.Type())
	}
	return nil
}
