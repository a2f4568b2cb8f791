// Package jaso converts Korean text into the unit sequence the analyzer scans
// (precomposed Hangul syllables split into compatibility jamo) and back.
package jaso

import "strings"

// --- UNICODE RANGES ---

const (
	syllableBase = 0xAC00 // '가'
	syllableLast = 0xD7A3 // '힣'

	jungCount = 21
	jongCount = 28
)

// choseong, jungseong and jongseong in Hangul Compatibility Jamo, in the order
// of the syllable composition formula.
var (
	choseong  = []rune("ㄱㄲㄴㄷㄸㄹㅁㅂㅃㅅㅆㅇㅈㅉㅊㅋㅌㅍㅎ")
	jungseong = []rune("ㅏㅐㅑㅒㅓㅔㅕㅖㅗㅘㅙㅚㅛㅜㅝㅞㅟㅠㅡㅢㅣ")
	// index 0 means "no final consonant".
	jongseong = append([]rune{0}, []rune("ㄱㄲㄳㄴㄵㄶㄷㄹㄺㄻㄼㄽㄾㄿㅀㅁㅂㅄㅅㅆㅇㅈㅊㅋㅌㅍㅎ")...)

	choIndex  = indexFrom(choseong, 0)
	jungIndex = indexFrom(jungseong, 0)
	jongIndex = indexFrom(jongseong, 1)
)

func indexFrom(units []rune, start int) map[rune]int {
	m := make(map[rune]int, len(units))
	for i := start; i < len(units); i++ {
		m[units[i]] = i
	}
	return m
}

// IsSyllable reports whether r is a precomposed Hangul syllable.
func IsSyllable(r rune) bool {
	return r >= syllableBase && r <= syllableLast
}

// Parse splits every precomposed syllable of s into its jamo. Other runes are
// kept as they are, so rune offsets of the result are stable lattice positions.
func Parse(s string) string {
	var b strings.Builder
	b.Grow(len(s) * 2)
	for _, r := range s {
		if !IsSyllable(r) {
			b.WriteRune(r)
			continue
		}
		code := int(r - syllableBase)
		cho := code / (jungCount * jongCount)
		jung := (code % (jungCount * jongCount)) / jongCount
		jong := code % jongCount
		b.WriteRune(choseong[cho])
		b.WriteRune(jungseong[jung])
		if jong != 0 {
			b.WriteRune(jongseong[jong])
		}
	}
	return b.String()
}

// Combine is the inverse of Parse. Jamo that cannot form a syllable (a lone
// final consonant of an ending, for instance) are left uncombined.
func Combine(s string) string {
	units := []rune(s)
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(units); i++ {
		cho, isCho := choIndex[units[i]]
		if !isCho || i+1 >= len(units) {
			b.WriteRune(units[i])
			continue
		}
		jung, isJung := jungIndex[units[i+1]]
		if !isJung {
			b.WriteRune(units[i])
			continue
		}
		jong := 0
		if i+2 < len(units) {
			if j, ok := jongIndex[units[i+2]]; ok {
				// a consonant followed by a vowel starts the next syllable.
				if i+3 >= len(units) || !isVowel(units[i+3]) {
					jong = j
				}
			}
		}
		b.WriteRune(rune(syllableBase + (cho*jungCount+jung)*jongCount + jong))
		if jong != 0 {
			i += 2
		} else {
			i++
		}
	}
	return b.String()
}

func isVowel(r rune) bool {
	_, ok := jungIndex[r]
	return ok
}

// Len returns the number of units of s after Parse.
func Len(s string) int {
	n := 0
	for _, r := range s {
		n++
		if IsSyllable(r) {
			n++
			if (r-syllableBase)%jongCount != 0 {
				n++
			}
		}
	}
	return n
}
