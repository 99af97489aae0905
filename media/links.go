package media

import "regexp"

// 正文链接按http/https开头、到空白截止匹配
var urlPattern = regexp.MustCompile(`https?://[^\s]+`)

// ExtractLinks 按出现顺序提取正文中的链接，同一条消息内不去重
func ExtractLinks(text string) []string {
	if text == "" {
		return nil
	}
	return urlPattern.FindAllString(text, -1)
}

// HasLink 正文是否含有可提取链接
func HasLink(text string) bool {
	return text != "" && urlPattern.MatchString(text)
}
