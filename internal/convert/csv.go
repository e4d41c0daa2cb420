package convert

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// rowCancelCheckInterval is how often the row loop polls for cancellation.
const rowCancelCheckInterval = 10_000

// csvStats is the single-pass scan summary of a tabular file.
type csvStats struct {
	header    string
	totalRows int // data rows, header excluded
	head      []string
	tail      []string
}

// scanCSV streams the file once, keeping the header plus up to keep head
// rows and the trailing keep rows in a ring buffer. Cancellation is checked
// at row granularity so a cancelled upload does not scan a multi-gigabyte
// file to the end.
func (s *Service) scanCSV(ctx context.Context, path string, keep int) (csvStats, error) {
	f, err := s.fs.Open(path)
	if err != nil {
		return csvStats{}, &ReadError{Path: path, Err: err}
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	stats := csvStats{}
	ring := make([]string, keep)
	ringLen := 0
	headerSeen := false

	for scanner.Scan() {
		line := scanner.Text()
		if !headerSeen {
			stats.header = line
			headerSeen = true
			continue
		}

		if len(stats.head) < keep {
			stats.head = append(stats.head, line)
		}
		ring[stats.totalRows%keep] = line
		if ringLen < keep {
			ringLen++
		}
		stats.totalRows++

		if stats.totalRows%rowCancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return csvStats{}, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return csvStats{}, &ReadError{Path: path, Err: err}
	}

	// Unroll the ring into file order.
	stats.tail = make([]string, 0, ringLen)
	start := stats.totalRows - ringLen
	for i := 0; i < ringLen; i++ {
		stats.tail = append(stats.tail, ring[(start+i)%keep])
	}

	return stats, nil
}

// convertCSV summarizes a tabular file using a size/row-count tier:
// verbatim for small files, head+tail samples for medium ones, and a
// stratified ML-style summary for anything at or beyond 50 MB / 50k rows.
func (s *Service) convertCSV(ctx context.Context, path string) (*Result, error) {
	info, err := s.fs.Stat(path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	size := info.Size()

	// The ring must be able to hold the largest per-tier sample.
	keep := s.tun.CSVMediumSampleRows
	if s.tun.CSVLargeSampleRows > keep {
		keep = s.tun.CSVLargeSampleRows
	}
	stats, err := s.scanCSV(ctx, path, keep)
	if err != nil {
		return nil, err
	}

	var body string
	switch {
	case size < s.tun.CSVFullMaxBytes && stats.totalRows < s.tun.CSVFullMaxRows:
		data, err := s.fs.ReadFile(path)
		if err != nil {
			return nil, &ReadError{Path: path, Err: err}
		}
		body = string(data)

	case size < s.tun.CSVMediumMaxBytes && stats.totalRows < s.tun.CSVMediumMaxRows:
		body = headTailSample(stats, s.tun.CSVMediumSampleRows)

	case size < s.tun.CSVLargeMaxBytes && stats.totalRows < s.tun.CSVLargeMaxRows:
		body = headTailSample(stats, s.tun.CSVLargeSampleRows)

	default:
		body, err = s.mlSummary(ctx, path, stats)
		if err != nil {
			return nil, err
		}
	}

	// Floor: if even the summary exceeds the ceiling, collapse to the
	// ultra-compressed form, which fits regardless of original size.
	if int64(len(body)) > s.tun.MaxFileSize {
		body = ultraCompress(stats, int(s.tun.MaxFileSize))
	}

	return &Result{
		ConvertedData:    []byte(body),
		Filename:         convertedName(path, "CSV", ".txt"),
		OriginalFilename: baseName(path),
		Method:           MethodCSVSummary,
		WasConverted:     true,
	}, nil
}

// headTailSample keeps the first and last n rows around an omission marker.
// When the file has fewer than 2n rows the two windows overlap; the overlap
// is trimmed from the tail so every row prints exactly once and the sample
// still ends with the file's last row.
func headTailSample(stats csvStats, n int) string {
	head := stats.head
	if len(head) > n {
		head = head[:n]
	}
	tail := stats.tail
	if len(tail) > n {
		tail = tail[len(tail)-n:]
	}
	if overlap := len(head) + len(tail) - stats.totalRows; overlap > 0 {
		if overlap >= len(tail) {
			tail = nil
		} else {
			tail = tail[overlap:]
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "=== CSV SAMPLE: first %d and last %d of %d rows ===\n", len(head), len(tail), stats.totalRows)
	b.WriteString(stats.header)
	b.WriteByte('\n')
	for _, row := range head {
		b.WriteString(row)
		b.WriteByte('\n')
	}
	if omitted := stats.totalRows - len(head) - len(tail); omitted > 0 {
		fmt.Fprintf(&b, "... [%d rows omitted] ...\n", omitted)
	}
	for _, row := range tail {
		b.WriteString(row)
		b.WriteByte('\n')
	}
	return b.String()
}

// mlSummary produces the stratified-sample structure summary for very large
// files: delimiter detection, per-column type classification, an evenly
// strided sample spanning the whole file, and a prose summary line.
func (s *Service) mlSummary(ctx context.Context, path string, stats csvStats) (string, error) {
	delim := detectDelimiter(stats.header)

	sample, stride, err := s.stratifiedSample(ctx, path, stats.totalRows)
	if err != nil {
		return "", err
	}

	columns := splitRow(stats.header, delim)
	types := classifyColumns(sample, delim, len(columns))

	var b strings.Builder
	b.WriteString("=== CSV STRUCTURE ===\n")
	fmt.Fprintf(&b, "Rows: %d\n", stats.totalRows)
	fmt.Fprintf(&b, "Columns: %d\n", len(columns))
	fmt.Fprintf(&b, "Delimiter: %s\n", delimiterName(delim))
	b.WriteString("Column types:\n")
	for i, col := range columns {
		colType := "text"
		if i < len(types) {
			colType = types[i]
		}
		fmt.Fprintf(&b, "  %d. %s: %s\n", i+1, strings.TrimSpace(col), colType)
	}

	fmt.Fprintf(&b, "\n=== STRATIFIED SAMPLE (%d of %d rows, stride %d) ===\n", len(sample), stats.totalRows, stride)
	b.WriteString(stats.header)
	b.WriteByte('\n')
	for _, row := range sample {
		b.WriteString(row)
		b.WriteByte('\n')
	}

	fmt.Fprintf(&b, "\n=== SUMMARY ===\n%s contains %d rows and %d columns; %d rows were sampled at stride %d to span the entire file.\n",
		baseName(path), stats.totalRows, len(columns), len(sample), stride)

	return b.String(), nil
}

// stratifiedSample re-reads the file, keeping rows at a fixed stride so the
// sample spans the whole file instead of clustering at the start.
func (s *Service) stratifiedSample(ctx context.Context, path string, totalRows int) ([]string, int, error) {
	stride := 1
	if s.tun.CSVSampleSize > 0 && totalRows > 1 {
		stride = (totalRows - 1) / s.tun.CSVSampleSize
		if stride < 1 {
			stride = 1
		}
	}

	f, err := s.fs.Open(path)
	if err != nil {
		return nil, 0, &ReadError{Path: path, Err: err}
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	var sample []string
	row := -1 // header is row -1
	for scanner.Scan() {
		if row >= 0 && row%stride == 0 {
			sample = append(sample, scanner.Text())
		}
		row++

		if row%rowCancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, 0, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, &ReadError{Path: path, Err: err}
	}

	return sample, stride, nil
}

// ultraCompress is the floor representation: header, column types, five
// rows from each end, and an explicit omission note. It must always fit.
func ultraCompress(stats csvStats, ceiling int) string {
	delim := detectDelimiter(stats.header)
	columns := splitRow(stats.header, delim)

	sample := stats.head
	if len(sample) > 10 {
		sample = sample[:10]
	}
	types := classifyColumns(sample, delim, len(columns))

	var b strings.Builder
	fmt.Fprintf(&b, "=== CSV ULTRA-COMPRESSED SUMMARY (%d rows, %d columns) ===\n", stats.totalRows, len(columns))
	b.WriteString(stats.header)
	b.WriteByte('\n')
	b.WriteString("Column types: " + strings.Join(types, ", ") + "\n")

	head := stats.head
	if len(head) > 5 {
		head = head[:5]
	}
	tail := stats.tail
	if len(tail) > 5 {
		tail = tail[len(tail)-5:]
	}
	for _, row := range head {
		b.WriteString(row)
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "... [content omitted: %d rows not shown] ...\n", stats.totalRows-len(head)-len(tail))
	for _, row := range tail {
		b.WriteString(row)
		b.WriteByte('\n')
	}

	return Compress(b.String(), ceiling, 5)
}

// detectDelimiter scans the header for the most frequent candidate
// delimiter; comma wins ties.
func detectDelimiter(header string) rune {
	candidates := []rune{',', '\t', ';', '|'}
	best := ','
	bestCount := 0
	for _, c := range candidates {
		n := strings.Count(header, string(c))
		if n > bestCount {
			best = c
			bestCount = n
		}
	}
	return best
}

func delimiterName(d rune) string {
	switch d {
	case ',':
		return "comma"
	case '\t':
		return "tab"
	case ';':
		return "semicolon"
	case '|':
		return "pipe"
	default:
		return string(d)
	}
}

// splitRow parses one raw line with the CSV reader so quoted fields are
// handled correctly.
func splitRow(line string, delim rune) []string {
	r := csv.NewReader(strings.NewReader(line))
	r.Comma = delim
	r.LazyQuotes = true
	fields, err := r.Read()
	if err != nil {
		return strings.Split(line, string(delim))
	}
	return fields
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

var booleanVocab = map[string]bool{
	"true": true, "false": true, "yes": true, "no": true, "1": true, "0": true,
}

// classifyColumns samples values per column and buckets each as numeric,
// date, boolean, or text (sub-bucketed by average length).
func classifyColumns(rows []string, delim rune, columnCount int) []string {
	values := make([][]string, columnCount)
	for _, row := range rows {
		fields := splitRow(row, delim)
		for i := 0; i < columnCount && i < len(fields); i++ {
			v := strings.TrimSpace(fields[i])
			if v != "" {
				values[i] = append(values[i], v)
			}
		}
	}

	types := make([]string, columnCount)
	for i, vals := range values {
		types[i] = classifyValues(vals)
	}
	return types
}

func classifyValues(vals []string) string {
	if len(vals) == 0 {
		return "text"
	}

	numeric, date, boolean := 0, 0, 0
	totalLen := 0
	for _, v := range vals {
		totalLen += len(v)
		if _, err := strconv.ParseFloat(v, 64); err == nil {
			numeric++
		}
		for _, layout := range dateLayouts {
			if _, err := time.Parse(layout, v); err == nil {
				date++
				break
			}
		}
		if booleanVocab[strings.ToLower(v)] {
			boolean++
		}
	}

	threshold := (len(vals)*8 + 9) / 10 // ceil(80%)
	switch {
	case numeric >= threshold:
		return "numeric"
	case date >= threshold:
		return "date"
	case boolean >= threshold:
		return "boolean"
	}

	avg := totalLen / len(vals)
	switch {
	case avg <= 20:
		return "text (short)"
	case avg <= 100:
		return "text (medium)"
	default:
		return "text (long)"
	}
}
