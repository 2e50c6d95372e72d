package geometry

import "unicode"

// textWeight sums per-rune width weights. Regular characters weigh 1, emoji
// EmojiWeight, and zero-width parts of a cluster (combining marks, joiners,
// variation selectors, skin tone modifiers, the second half of a flag) weigh 0.
func textWeight(s string) float64 {
	total := 0.0
	afterZWJ := false
	pendingFlag := false
	for _, r := range s {
		switch {
		case isZeroWidth(r):
			afterZWJ = r == 0x200D
			continue
		case isRegionalIndicator(r):
			if pendingFlag {
				pendingFlag = false
				continue
			}
			pendingFlag = true
			total += EmojiWeight
		case isEmoji(r):
			pendingFlag = false
			if !afterZWJ {
				total += EmojiWeight
			}
		default:
			pendingFlag = false
			total++
		}
		afterZWJ = false
	}
	return total
}

// Clusters 按与 textWeight 相同的规则把一行拆成字形簇：零宽字符、
// ZWJ 之后的 emoji 与旗帜的第二个区域指示符都并入前一个簇。
// 字间距加在相邻簇之间。
func Clusters(s string) []string {
	var out []string
	start := -1
	afterZWJ := false
	pendingFlag := false
	for i, r := range s {
		joins := false
		switch {
		case isZeroWidth(r):
			joins = true
		case isRegionalIndicator(r):
			joins = pendingFlag
			pendingFlag = !pendingFlag
		case isEmoji(r):
			joins = afterZWJ
			pendingFlag = false
		default:
			pendingFlag = false
		}
		afterZWJ = r == 0x200D
		if joins && start >= 0 {
			continue
		}
		if start >= 0 {
			out = append(out, s[start:i])
		}
		start = i
	}
	if start >= 0 {
		out = append(out, s[start:])
	}
	return out
}

func isZeroWidth(r rune) bool {
	switch {
	case r == 0x200B, r == 0x200C, r == 0x200D, r == 0x2060:
		return true
	case r >= 0xFE00 && r <= 0xFE0F:
		return true
	case r >= 0x1F3FB && r <= 0x1F3FF:
		return true
	case r >= 0xE0020 && r <= 0xE007F:
		return true
	case r == 0x20E3:
		return true
	}
	return unicode.In(r, unicode.Mn, unicode.Me, unicode.Cc, unicode.Cf)
}

func isRegionalIndicator(r rune) bool {
	return r >= 0x1F1E6 && r <= 0x1F1FF
}

// isEmoji covers the default-emoji-presentation blocks plus the dingbat and
// miscellaneous-symbol ranges commonly rendered as emoji on mobile keyboards.
func isEmoji(r rune) bool {
	switch {
	case r >= 0x1F300 && r <= 0x1F5FF: // Misc Symbols and Pictographs
		return true
	case r >= 0x1F600 && r <= 0x1F64F: // Emoticons
		return true
	case r >= 0x1F680 && r <= 0x1F6FF: // Transport and Map
		return true
	case r >= 0x1F900 && r <= 0x1F9FF: // Supplemental Symbols and Pictographs
		return true
	case r >= 0x1FA70 && r <= 0x1FAFF: // Symbols and Pictographs Extended-A
		return true
	case r >= 0x1F000 && r <= 0x1F0FF: // Mahjong, Domino, Playing Cards
		return true
	case r >= 0x1F200 && r <= 0x1F2FF: // Enclosed Ideographic Supplement
		return true
	case r >= 0x2600 && r <= 0x26FF: // Misc Symbols
		return true
	case r >= 0x2700 && r <= 0x27BF: // Dingbats
		return true
	case r == 0x2B50, r == 0x2B55, r == 0x2B1B, r == 0x2B1C:
		return true
	case r == 0x231A, r == 0x231B, r == 0x23F0, r == 0x23F3:
		return true
	case r == 0x00A9, r == 0x00AE, r == 0x203C, r == 0x2049, r == 0x2122:
		return true
	}
	return false
}
