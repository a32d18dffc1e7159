package llm

import (
	"regexp"
	"strings"
)

var (
	fencePattern  = regexp.MustCompile("```(?:json)?\\n?")
	thinkPattern  = regexp.MustCompile(`(?s)<think>.*?</think>`)
	objectPattern = regexp.MustCompile(`(?s)\{.*\}`)
	anyPattern    = regexp.MustCompile(`(?s)\{.*\}|\[.*\]`)
)

// Clean 去掉代码块标记与推理模型的 <think> 段落。
func Clean(s string) string {
	s = fencePattern.ReplaceAllString(s, "")
	s = thinkPattern.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// ExtractObject 返回文本中第一个 '{' 到最后一个 '}' 之间的内容；
// 若给定 key，则只有包含 "key" 的对象才会被截取，否则原样返回。
func ExtractObject(s, key string) string {
	m := objectPattern.FindString(s)
	if m == "" {
		return s
	}
	if key != "" && !strings.Contains(m, `"`+key+`"`) {
		return s
	}
	return m
}

// ExtractJSON 截取文本中的对象或数组，找不到时原样返回。
func ExtractJSON(s string) string {
	if m := anyPattern.FindString(s); m != "" {
		return m
	}
	return s
}
