package hangul

// Compatibility jamo in the orders used by the precomposed syllable block.
var (
	choseong = []rune{
		'ㄱ', 'ㄲ', 'ㄴ', 'ㄷ', 'ㄸ', 'ㄹ', 'ㅁ', 'ㅂ', 'ㅃ', 'ㅅ',
		'ㅆ', 'ㅇ', 'ㅈ', 'ㅉ', 'ㅊ', 'ㅋ', 'ㅌ', 'ㅍ', 'ㅎ',
	}
	jongseong = []rune{
		0, 'ㄱ', 'ㄲ', 'ㄳ', 'ㄴ', 'ㄵ', 'ㄶ', 'ㄷ', 'ㄹ', 'ㄺ',
		'ㄻ', 'ㄼ', 'ㄽ', 'ㄾ', 'ㄿ', 'ㅀ', 'ㅁ', 'ㅂ', 'ㅄ', 'ㅅ',
		'ㅆ', 'ㅇ', 'ㅈ', 'ㅊ', 'ㅋ', 'ㅌ', 'ㅍ', 'ㅎ',
	}
)

const (
	syllableBase = 0xAC00
	firstVowel   = 'ㅏ'
	lastVowel    = 'ㅣ'
	medialCount  = 21
	finalCount   = 28
)

var (
	choIndex  = indexOf(choseong)
	jongIndex = indexOf(jongseong)
)

func indexOf(rs []rune) map[rune]int {
	m := make(map[rune]int, len(rs))
	for i, r := range rs {
		if r != 0 {
			m[r] = i
		}
	}
	return m
}

func isVowel(r rune) bool { return r >= firstVowel && r <= lastVowel }

func canBeFinal(r rune) bool {
	_, ok := jongIndex[r]
	return ok
}

// compose builds a precomposed syllable. cho and jung are required.
func compose(cho, jung, jong rune) rune {
	c := choIndex[cho]
	v := int(jung - firstVowel)
	f := 0
	if jong != 0 {
		f = jongIndex[jong]
	}
	return rune(syllableBase + (c*medialCount+v)*finalCount + f)
}

type pair struct{ a, b rune }

var compoundVowels = map[pair]rune{
	{'ㅗ', 'ㅏ'}: 'ㅘ',
	{'ㅗ', 'ㅐ'}: 'ㅙ',
	{'ㅗ', 'ㅣ'}: 'ㅚ',
	{'ㅜ', 'ㅓ'}: 'ㅝ',
	{'ㅜ', 'ㅔ'}: 'ㅞ',
	{'ㅜ', 'ㅣ'}: 'ㅟ',
	{'ㅡ', 'ㅣ'}: 'ㅢ',
}

var compoundFinals = map[pair]rune{
	{'ㄱ', 'ㅅ'}: 'ㄳ',
	{'ㄴ', 'ㅈ'}: 'ㄵ',
	{'ㄴ', 'ㅎ'}: 'ㄶ',
	{'ㄹ', 'ㄱ'}: 'ㄺ',
	{'ㄹ', 'ㅁ'}: 'ㄻ',
	{'ㄹ', 'ㅂ'}: 'ㄼ',
	{'ㄹ', 'ㅅ'}: 'ㄽ',
	{'ㄹ', 'ㅌ'}: 'ㄾ',
	{'ㄹ', 'ㅍ'}: 'ㄿ',
	{'ㄹ', 'ㅎ'}: 'ㅀ',
	{'ㅂ', 'ㅅ'}: 'ㅄ',
}

var (
	splitVowels = invert(compoundVowels)
	splitFinals = invert(compoundFinals)
)

func invert(m map[pair]rune) map[rune]pair {
	out := make(map[rune]pair, len(m))
	for k, v := range m {
		out[v] = k
	}
	return out
}
