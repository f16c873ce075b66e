package chunker

// lastIndexRunes returns the index of the last occurrence of sep in window,
// or -1 if sep is not present. Indices are rune positions, not bytes.
func lastIndexRunes(window, sep []rune) int {
	if len(sep) == 0 || len(sep) > len(window) {
		return -1
	}
outer:
	for i := len(window) - len(sep); i >= 0; i-- {
		for j := range sep {
			if window[i+j] != sep[j] {
				continue outer
			}
		}
		return i
	}
	return -1
}

// runeLen returns the length of s in runes.
func runeLen(s string) int {
	return len([]rune(s))
}
