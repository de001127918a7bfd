// Package queryio is the thin collaborator between lpmtable and raw
// text: it tokenizes the input-file format, decodes per-line query
// addresses, and formats lookup results. None of it is part of the
// core LPM algorithm.
package queryio

import (
	"bufio"
	"fmt"
	"io"
	"net/netip"
	"strconv"
	"strings"

	"github.com/opencidr/lpm/lpmtable"
)

// NotCovered is printed for a query address covered by no stored
// prefix.
const NotCovered = "-"

// Entry is one `<prefix>/<len> <tag>` line of the input file, already
// parsed.
type Entry struct {
	Prefix netip.Prefix
	Tag    lpmtable.Tag
}

// LoadEntries tokenizes r as whitespace-separated `<prefix>/<len>`,
// `<tag>` pairs, tolerating blank lines and trailing whitespace.
// Tokenization is by successful scans only (bufio.Scanner's ScanWords),
// so it cannot produce a spurious extra read past the last real token.
func LoadEntries(r io.Reader) ([]Entry, error) {
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)

	var entries []Entry
	for {
		prefixTok, ok := nextToken(sc)
		if !ok {
			break
		}
		tagTok, ok := nextToken(sc)
		if !ok {
			return nil, fmt.Errorf("queryio: dangling prefix %q with no tag", prefixTok)
		}

		prefix, err := netip.ParsePrefix(prefixTok)
		if err != nil {
			return nil, fmt.Errorf("queryio: invalid prefix %q: %w", prefixTok, err)
		}
		tag, err := strconv.Atoi(tagTok)
		if err != nil {
			return nil, fmt.Errorf("queryio: invalid tag %q for prefix %q: %w", tagTok, prefixTok, err)
		}

		entries = append(entries, Entry{Prefix: prefix, Tag: tag})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("queryio: reading input file: %w", err)
	}
	return entries, nil
}

func nextToken(sc *bufio.Scanner) (string, bool) {
	if !sc.Scan() {
		return "", false
	}
	return sc.Text(), true
}

// ParseQueryAddr parses one query-stream line as an
// IPv4 or IPv6 textual address.
func ParseQueryAddr(line string) (netip.Addr, error) {
	line = strings.TrimSpace(line)
	addr, err := netip.ParseAddr(line)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("queryio: invalid query address %q: %w", line, err)
	}
	return addr, nil
}

// FormatResult renders a lookup result the way the query stream wants: the
// decimal tag, or a single hyphen when nothing covers the address.
func FormatResult(tag lpmtable.Tag, ok bool) string {
	if !ok {
		return NotCovered
	}
	return strconv.Itoa(tag)
}

// RunQueries reads one address per line from in, looks each up in tbl,
// and writes one result line per query to out, preserving input order.
// Blank lines are skipped, matching the loader's tolerance of blank
// lines in the input file.
func RunQueries(in io.Reader, out io.Writer, tbl *lpmtable.Table) error {
	sc := bufio.NewScanner(in)
	w := bufio.NewWriter(out)
	defer w.Flush()

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		addr, err := ParseQueryAddr(line)
		if err != nil {
			return err
		}
		tag, ok := tbl.Lookup(addr)
		if _, err := fmt.Fprintln(w, FormatResult(tag, ok)); err != nil {
			return fmt.Errorf("queryio: writing output: %w", err)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("queryio: reading query stream: %w", err)
	}
	return nil
}

// BuildTable loads entries from r and inserts them all into a fresh
// Table, enforcing each family's prefix-length cap as it goes.
func BuildTable(r io.Reader) (*lpmtable.Table, error) {
	entries, err := LoadEntries(r)
	if err != nil {
		return nil, err
	}

	tbl := lpmtable.New()
	for _, e := range entries {
		if err := tbl.Insert(e.Prefix, e.Tag); err != nil {
			return nil, fmt.Errorf("queryio: loading %s: %w", e.Prefix, err)
		}
	}
	return tbl, nil
}
