package ingest

import (
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Dialect describes the delimiter and quoting convention of a CSV file.
type Dialect struct {
	Delimiter rune
	Quote     rune
}

var delimiterCandidates = []rune{',', ';', '\t', '|'}

// sniffLines is how many non-empty lines the sniffer samples.
const sniffLines = 10

// Sniff detects the CSV dialect from an initial sample. For each candidate
// delimiter it counts occurrences outside quoted regions on the sampled lines
// and prefers the candidate with the most consistent non-zero count. A sample
// with no delimiter at all is treated as single-column comma CSV.
func Sniff(sample string) Dialect {
	lines := sampleLines(sample, sniffLines)

	best := Dialect{Delimiter: ',', Quote: '"'}
	bestScore := 0

	for _, cand := range delimiterCandidates {
		counts := make([]int, 0, len(lines))
		for _, line := range lines {
			counts = append(counts, countOutsideQuotes(line, cand))
		}

		score := scoreCounts(counts)
		if score > bestScore {
			bestScore = score
			best.Delimiter = cand
		}
	}

	return best
}

// sampleLines returns up to max non-empty lines from s.
func sampleLines(s string, max int) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
		if len(lines) == max {
			break
		}
	}
	return lines
}

// countOutsideQuotes counts delim occurrences outside double-quoted regions.
func countOutsideQuotes(line string, delim rune) int {
	count := 0
	inQuotes := false
	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == delim && !inQuotes:
			count++
		}
	}
	return count
}

// scoreCounts rewards delimiters that appear on every sampled line with a
// consistent count. Perfectly consistent candidates outrank merely frequent
// ones regardless of raw occurrence counts.
func scoreCounts(counts []int) int {
	if len(counts) == 0 {
		return 0
	}

	modal := map[int]int{}
	for _, c := range counts {
		modal[c]++
	}

	bestCount, bestFreq := 0, 0
	for c, freq := range modal {
		if c == 0 {
			continue
		}
		if freq > bestFreq || (freq == bestFreq && c > bestCount) {
			bestCount, bestFreq = c, freq
		}
	}

	if bestCount == 0 {
		return 0
	}

	score := bestCount * bestFreq
	if bestFreq == len(counts) {
		score *= 100
	}
	return score
}

// DecodeText decodes raw upload bytes with a forgiving policy: a UTF-8 or
// UTF-16 byte-order mark selects the encoding, and undecodable bytes are
// dropped rather than failing the file.
func DecodeText(data []byte) (string, error) {
	t := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(t, data)
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(string(out), "�", ""), nil
}
