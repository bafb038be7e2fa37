package reviews

import "strings"

// Obscenity filtering for review comments. Texts are normalized first:
// common leetspeak/lookalike substitutions collapse onto Cyrillic
// letters and separators are stripped, so "х*у-й" still matches.

var russianProfanityRoots = []string{
	"хуй", "хуя", "хуе", "хуи", "хую",
	"пизд", "пезд",
	"блять", "бляд", "блят",
	"еба", "ебу", "ебе", "ебл", "ебн",
	"сука", "суч", "сучк",
	"муда", "мудо", "мудак",
	"залуп",
	"шлюх", "шалав",
	"гандон", "гондон",
	"дерьм", "говн", "сран", "засран",
	"заеб", "отъеб", "въеб", "уеб", "выеб",
}

var englishProfanity = []string{
	"fuck", "shit", "bitch", "cunt", "dick",
	"whore", "slut", "bastard", "asshole", "motherfucker", "bullshit",
}

var charReplacements = map[rune]rune{
	'0': 'о', 'o': 'о',
	'3': 'е', 'e': 'е', 'ё': 'е',
	'4': 'а', 'a': 'а', '@': 'а',
	'1': 'и', 'i': 'и', '!': 'и',
	'6': 'б', 'b': 'б',
	'y': 'у', 'u': 'у',
	'x': 'х', 'h': 'х',
	'p': 'р',
	'c': 'с', '$': 'с',
	'k': 'к',
	'm': 'м',
	'n': 'н',
}

var strippedRunes = map[rune]struct{}{
	'*': {}, '.': {}, '-': {}, '_': {}, ' ': {},
}

// NormalizeProfanityText lowercases, maps lookalike characters onto
// Cyrillic, drops separators and collapses runs of three or more
// repeated runes ("хххууууй" matches as "хуй").
func NormalizeProfanityText(text string) string {
	lowered := strings.ToLower(text)
	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		if _, strip := strippedRunes[r]; strip {
			continue
		}
		if mapped, ok := charReplacements[r]; ok {
			r = mapped
		}
		b.WriteRune(r)
	}
	return collapseRepeats(b.String())
}

// Runs of three or more repeats compress to a single rune; doubled
// letters in legitimate words survive untouched.
func collapseRepeats(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(runes); {
		j := i
		for j < len(runes) && runes[j] == runes[i] {
			j++
		}
		if j-i >= 3 {
			b.WriteRune(runes[i])
		} else {
			for k := i; k < j; k++ {
				b.WriteRune(runes[k])
			}
		}
		i = j
	}
	return b.String()
}

// ContainsProfanity reports whether the text matches any known
// obscenity root, returning the matched roots.
func ContainsProfanity(text string) (bool, []string) {
	if strings.TrimSpace(text) == "" {
		return false, nil
	}
	normalized := NormalizeProfanityText(text)
	originalLower := strings.ToLower(text)

	seen := make(map[string]struct{})
	var found []string
	record := func(word string) {
		if _, ok := seen[word]; ok {
			return
		}
		seen[word] = struct{}{}
		found = append(found, word)
	}

	for _, root := range russianProfanityRoots {
		if strings.Contains(normalized, root) {
			record(root)
		}
	}
	for _, word := range englishProfanity {
		if strings.Contains(originalLower, word) || strings.Contains(normalized, word) {
			record(word)
		}
	}
	return len(found) > 0, found
}
