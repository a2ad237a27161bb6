package code

import (
	"errors"
)

// lang holds the per-language message texts of a Code.
// lang 保存状态码的多语言消息文本。
type lang struct {
	en    string // English // 英文
	zh_cn string // Chinese // 中文
}

// Default language is English // 默认语言为英文
var lng = "en"

const FALLBACK_LNG = "en"

var supportedLanguages = []string{"en", "zh_cn"}

// GetMessage returns the message for the globally selected language,
// falling back to English when the selected text is empty.
// GetMessage 返回全局选定语言的消息，文本为空时回退到英文。
func (l lang) GetMessage() string {
	var msg string
	switch lng {
	case "zh_cn":
		msg = l.zh_cn
	default:
		msg = l.en
	}
	if msg == "" {
		msg = l.en
	}
	if msg == "" {
		return "no message available for language: " + lng
	}
	return msg
}

// GetSupportedLanguages 返回支持的语言列表
func GetSupportedLanguages() []string {
	out := make([]string, len(supportedLanguages))
	copy(out, supportedLanguages)
	return out
}

// SetGlobalDefaultLang sets the global default language.
// SetGlobalDefaultLang 设置全局默认语言。
func SetGlobalDefaultLang(language string) error {
	for _, l := range supportedLanguages {
		if language == l {
			lng = language
			return nil
		}
	}
	lng = FALLBACK_LNG
	return errors.New("unsupported language type, set defaulting to " + FALLBACK_LNG)
}

// GetGlobalDefaultLang 获取全局默认语言
func GetGlobalDefaultLang() string {
	return lng
}
