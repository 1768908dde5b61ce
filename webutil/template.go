package webutil

import "strings"

// Render 对模板做逐键替换，占位符形如 {{key}}
// 未提供的占位符原样保留，不做转义和求值
func Render(tpl string, vars map[string]string) string {
	for key, value := range vars {
		tpl = strings.ReplaceAll(tpl, "{{"+key+"}}", value)
	}
	return tpl
}
