package captions

import (
	"regexp"
	"strings"

	"github.com/go-ego/gse"
)

// Line 一条字幕
type Line struct {
	Text  string  // 字幕文本
	Start float64 // 开始时间（秒）
	End   float64 // 结束时间（秒）
}

// Splitter 字幕文本分割器
// 将旁白文本按自然方式分割为适合屏幕显示的字幕行
type Splitter struct {
	maxLength int            // 每行最大字符数（默认12）
	segmenter *gse.Segmenter // gse 分词器
}

// NewSplitter 创建字幕分割器
func NewSplitter(maxLength int) *Splitter {
	if maxLength <= 0 {
		maxLength = 12
	}

	// 初始化失败时降级到逐字符分割
	var segmenter *gse.Segmenter
	if seg, err := gse.New(); err == nil {
		segmenter = &seg
	}

	return &Splitter{
		maxLength: maxLength,
		segmenter: segmenter,
	}
}

var (
	spaceRe = regexp.MustCompile(`\s+`)
	punctRe = regexp.MustCompile(`[，。；：、！？""''（）【】《》「」『』…—–,.;:!?"'()\[\]{}|~·]`)
)

// cleanText 移除空白和标点，用于长度计算
func cleanText(text string) string {
	text = spaceRe.ReplaceAllString(text, "")
	return punctRe.ReplaceAllString(text, "")
}

// runeLen 可见字符数
func runeLen(text string) int {
	return len([]rune(cleanText(text)))
}

// Split 将文本分割为字幕行
// 先按句子结束符分割，过长的句子再按词边界分割
func (s *Splitter) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	sentences := splitByEndings(text, []rune{'。', '！', '？', '；', '…', '：', '.', '!', '?'})

	// 没有明显句子分割且文本很长时，按次级标点分割
	if len(sentences) == 1 && runeLen(sentences[0]) > s.maxLength*2 {
		sentences = splitByEndings(sentences[0], []rune{'，', '、', ','})
	}

	var lines []string
	for _, sentence := range sentences {
		if runeLen(sentence) <= s.maxLength {
			lines = append(lines, sentence)
		} else {
			lines = append(lines, s.splitLongSentence(sentence)...)
		}
	}

	return mergeShortLines(lines)
}

// SplitTimed 分割文本并按行长度比例分配时间
// totalDuration 为对应音频的总时长（秒）
func (s *Splitter) SplitTimed(text string, totalDuration float64) []Line {
	texts := s.Split(text)
	if len(texts) == 0 {
		return nil
	}

	total := 0
	for _, t := range texts {
		total += runeLen(t)
	}
	if total == 0 {
		total = len(texts)
	}

	lines := make([]Line, 0, len(texts))
	cursor := 0.0
	for i, t := range texts {
		share := float64(runeLen(t)) / float64(total)
		end := cursor + totalDuration*share
		if i == len(texts)-1 {
			end = totalDuration // 最后一行吸收舍入误差
		}
		lines = append(lines, Line{Text: t, Start: cursor, End: end})
		cursor = end
	}

	return lines
}

// splitByEndings 按结束符分割，结束符保留在前一段末尾
func splitByEndings(text string, endings []rune) []string {
	var sentences []string
	var current strings.Builder

	endingSet := make(map[rune]bool, len(endings))
	for _, r := range endings {
		endingSet[r] = true
	}

	for _, char := range text {
		current.WriteRune(char)
		if endingSet[char] {
			if seg := strings.TrimSpace(current.String()); seg != "" {
				sentences = append(sentences, seg)
			}
			current.Reset()
		}
	}

	if seg := strings.TrimSpace(current.String()); seg != "" {
		sentences = append(sentences, seg)
	}

	return sentences
}

// splitLongSentence 按词边界分割过长的句子，避免词组被裁断
func (s *Splitter) splitLongSentence(sentence string) []string {
	var words []string
	if s.segmenter != nil {
		words = s.segmenter.Cut(sentence, false)
	} else {
		for _, char := range sentence {
			words = append(words, string(char))
		}
	}

	var segments []string
	var current string

	for _, word := range words {
		if cleanText(word) == "" {
			// 纯标点直接附加到当前行
			current += word
			continue
		}

		if runeLen(current+word) <= s.maxLength {
			current += word
			continue
		}

		if current != "" {
			segments = append(segments, current)
		}
		current = word

		// 单个词超长时强制按字符切开
		if runeLen(current) > s.maxLength {
			parts := chunkRunes(current, s.maxLength)
			segments = append(segments, parts[:len(parts)-1]...)
			current = parts[len(parts)-1]
		}
	}

	if current != "" {
		segments = append(segments, current)
	}

	return segments
}

// chunkRunes 按字符数硬切
func chunkRunes(text string, size int) []string {
	runes := []rune(text)
	if len(runes) <= size {
		return []string{text}
	}

	var parts []string
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		parts = append(parts, string(runes[start:end]))
	}
	return parts
}

// mergeShortLines 过滤空行，单字符行并入相邻行
func mergeShortLines(lines []string) []string {
	var out []string
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if runeLen(line) <= 1 {
			if len(out) > 0 {
				out[len(out)-1] += line
			} else if i+1 < len(lines) {
				lines[i+1] = line + lines[i+1]
			} else {
				out = append(out, line)
			}
			continue
		}
		out = append(out, line)
	}
	return out
}
