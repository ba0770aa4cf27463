// Package stylist rewrites dictated text into a speaking style with a chat
// completion model.
package stylist

import (
	"fmt"
	"strings"
)

type Style string

const (
	Normal   Style = "normal"
	Formal   Style = "formal"
	Polite   Style = "polite"
	Casual   Style = "casual"
	Cute     Style = "cute"
	Aegyo    Style = "aegyo"
	Romantic Style = "romantic"
	Cold     Style = "cold"
	Humor    Style = "humor"
	Pro      Style = "pro"
)

// Styles lists every style in menu order.
var Styles = []Style{Normal, Formal, Polite, Casual, Cute, Aegyo, Romantic, Cold, Humor, Pro}

var displayNames = map[Style]string{
	Normal:   "그대로",
	Formal:   "공적",
	Polite:   "정중",
	Casual:   "반말",
	Cute:     "귀엽게",
	Aegyo:    "애교",
	Romantic: "다정",
	Cold:     "쿨하게",
	Humor:    "유머",
	Pro:      "비즈니스",
}

var instructions = map[Style]string{
	Formal:   "격식체 존댓말로 바꿔줘. (예: ~습니다, ~합니다)",
	Polite:   "공손한 존댓말로 바꿔줘. (예: ~해요, ~세요)",
	Casual:   "친구한테 하는 반말로 바꿔줘. (예: ~야, ~어, ~지)",
	Cute:     "귀여운 말투로 바꿔줘. (예: ~요, ~용, ~당, ~해용)",
	Aegyo:    "애교 섞인 말투로 바꿔줘. (예: ~잉, ~쪄, ~행, 응응)",
	Romantic: "다정하고 따뜻한 말투로 바꿔줘. (예: ~해줄게, ~고 싶어)",
	Cold:     "쿨하고 담담한 말투로 바꿔줘. (예: ~임, ~ㅇㅇ, 짧게)",
	Humor:    "재미있고 유머러스하게 바꿔줘. 약간의 드립이나 재치 추가.",
	Pro:      "비즈니스 전문가 말투로 바꿔줘. (예: ~드립니다, ~하겠습니다)",
}

const (
	spellingPrompt = "다음 한국어 텍스트의 맞춤법과 띄어쓰기를 수정해줘. 원래 의미를 유지하면서 올바른 맞춤법으로 수정해. 수정된 텍스트만 출력하고 다른 설명은 하지 마."
	styleTemplate  = "텍스트의 말투만 바꿔줘. 내용은 절대 바꾸지 마. %s 맞춤법도 수정해. 변환된 텍스트만 출력하고 다른 설명은 하지 마."

	spellingTemperature = 0.1
	styleTemperature    = 0.2
	maxTokens           = 500
)

func ParseStyle(s string) (Style, error) {
	st := Style(strings.ToLower(strings.TrimSpace(s)))
	if st == "" {
		return Normal, nil
	}
	if _, ok := displayNames[st]; !ok {
		return "", fmt.Errorf("unknown style %q", s)
	}
	return st, nil
}

// DisplayName is the Korean label shown in the UI.
func (s Style) DisplayName() string {
	if n, ok := displayNames[s]; ok {
		return n
	}
	return string(s)
}

// Prompt returns the system prompt and sampling temperature for s. Styles
// without an instruction only fix spelling.
func (s Style) Prompt() (system string, temperature float64) {
	instr, ok := instructions[s]
	if !ok {
		return spellingPrompt, spellingTemperature
	}
	return fmt.Sprintf(styleTemplate, instr), styleTemperature
}

// stripQuotes removes one pair of surrounding double quotes, then one pair of
// single quotes.
func stripQuotes(s string) string {
	s = strings.TrimSpace(s)
	for _, q := range []string{`"`, `'`} {
		if len(s) >= 2 && strings.HasPrefix(s, q) && strings.HasSuffix(s, q) {
			s = s[1 : len(s)-1]
		}
	}
	return s
}
