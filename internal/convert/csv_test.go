package convert

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openresponses/fileprep/internal/classify"
)

// writeCSV builds a synthetic file with a header and n data rows, each row
// carrying its own index so sampling tests can check which rows survived.
func writeCSV(t *testing.T, fx *serviceFixture, path string, n int) {
	t.Helper()
	var b strings.Builder
	b.WriteString("id,name,amount\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "%d,row%d,%d.50\n", i, i, i)
	}
	fx.write(t, path, b.String())
}

func TestConvertCSV_SmallVerbatim(t *testing.T) {
	fx := newFixture(t, Tunables{})
	writeCSV(t, fx, "/in/orders.csv", 10)

	res, err := fx.service.Convert(context.Background(), "/in/orders.csv", classify.DestinationVectorStore)
	require.NoError(t, err)

	assert.Equal(t, "orders_CSV.txt", res.Filename)
	assert.Equal(t, MethodCSVSummary, res.Method)
	assert.True(t, res.WasConverted)

	text := string(res.ConvertedData)
	assert.True(t, strings.HasPrefix(text, "id,name,amount\n"))
	assert.Contains(t, text, "9,row9,9.50")
	assert.NotContains(t, text, "omitted")
}

func TestConvertCSV_MediumHeadTail(t *testing.T) {
	fx := newFixture(t, Tunables{CSVFullMaxRows: 100})
	writeCSV(t, fx, "/in/events.csv", 2000)

	res, err := fx.service.Convert(context.Background(), "/in/events.csv", classify.DestinationVectorStore)
	require.NoError(t, err)

	text := string(res.ConvertedData)
	assert.Contains(t, text, "first 500 and last 500 of 2000 rows")
	assert.Contains(t, text, "id,name,amount")
	assert.Contains(t, text, "0,row0,0.50")
	assert.Contains(t, text, "1999,row1999,1999.50")
	assert.Contains(t, text, "[1000 rows omitted]")
	assert.NotContains(t, text, "row1000,")
}

func TestConvertCSV_LargeHeadTail(t *testing.T) {
	fx := newFixture(t, Tunables{CSVFullMaxRows: 100, CSVMediumMaxRows: 1000})
	writeCSV(t, fx, "/in/events.csv", 5000)

	res, err := fx.service.Convert(context.Background(), "/in/events.csv", classify.DestinationVectorStore)
	require.NoError(t, err)

	text := string(res.ConvertedData)
	assert.Contains(t, text, "first 1000 and last 1000 of 5000 rows")
	assert.Contains(t, text, "[3000 rows omitted]")
	assert.Contains(t, text, "4999,row4999,4999.50")
}

// Row counts between n and 2n make the head and tail windows overlap. The
// overlap is trimmed from the tail: every row prints exactly once and the
// sample still ends with the file's last row.
func TestConvertCSV_HeadTailOverlap(t *testing.T) {
	fx := newFixture(t, Tunables{CSVFullMaxRows: 100})
	writeCSV(t, fx, "/in/short.csv", 800)

	res, err := fx.service.Convert(context.Background(), "/in/short.csv", classify.DestinationVectorStore)
	require.NoError(t, err)

	text := string(res.ConvertedData)
	assert.Contains(t, text, "first 500 and last 300 of 800 rows")
	assert.Contains(t, text, "600,row600,600.50")
	assert.True(t, strings.HasSuffix(text, "799,row799,799.50\n"))
	assert.Equal(t, 1, strings.Count(text, "499,row499,499.50"))
	assert.Equal(t, 1, strings.Count(text, "500,row500,500.50"))
	assert.NotContains(t, text, "omitted")
}

func TestConvertCSV_TunableSampleRows(t *testing.T) {
	fx := newFixture(t, Tunables{CSVFullMaxRows: 10, CSVMediumSampleRows: 50})
	writeCSV(t, fx, "/in/events.csv", 400)

	res, err := fx.service.Convert(context.Background(), "/in/events.csv", classify.DestinationVectorStore)
	require.NoError(t, err)

	text := string(res.ConvertedData)
	assert.Contains(t, text, "first 50 and last 50 of 400 rows")
	assert.Contains(t, text, "[300 rows omitted]")
	assert.Contains(t, text, "49,row49,49.50")
	assert.Contains(t, text, "350,row350,350.50")
	assert.Contains(t, text, "399,row399,399.50")
	assert.NotContains(t, text, "row100,")
}

func TestConvertCSV_MLSummary(t *testing.T) {
	fx := newFixture(t, Tunables{
		CSVFullMaxRows:   1,
		CSVMediumMaxRows: 1,
		CSVLargeMaxRows:  1,
		CSVSampleSize:    10,
	})
	writeCSV(t, fx, "/in/metrics.csv", 100)

	res, err := fx.service.Convert(context.Background(), "/in/metrics.csv", classify.DestinationVectorStore)
	require.NoError(t, err)

	text := string(res.ConvertedData)
	assert.Contains(t, text, "=== CSV STRUCTURE ===")
	assert.Contains(t, text, "Rows: 100")
	assert.Contains(t, text, "Columns: 3")
	assert.Contains(t, text, "Delimiter: comma")
	assert.Contains(t, text, "1. id: numeric")
	assert.Contains(t, text, "2. name: text (short)")
	assert.Contains(t, text, "3. amount: numeric")
	assert.Contains(t, text, "=== STRATIFIED SAMPLE")
	assert.Contains(t, text, "=== SUMMARY ===")

	// The sample must span the file: both the first row and a row from the
	// final stride are present.
	assert.Contains(t, text, "0,row0,0.50")
	assert.Contains(t, text, "99,row99,99.50")
}

func TestStratifiedSample_SpansFile(t *testing.T) {
	fx := newFixture(t, Tunables{CSVSampleSize: 100})
	writeCSV(t, fx, "/in/big.csv", 10_000)

	sample, stride, err := fx.service.stratifiedSample(context.Background(), "/in/big.csv", 10_000)
	require.NoError(t, err)

	assert.Equal(t, 99, stride)
	require.NotEmpty(t, sample)
	assert.Equal(t, "0,row0,0.50", sample[0])

	var lastIdx int
	_, err = fmt.Sscanf(sample[len(sample)-1], "%d,", &lastIdx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, lastIdx, 9900, "sample does not reach the last 1%% of the file")
}

func TestScanCSV_HeadTailRing(t *testing.T) {
	fx := newFixture(t, Tunables{})
	writeCSV(t, fx, "/in/rows.csv", 2500)

	stats, err := fx.service.scanCSV(context.Background(), "/in/rows.csv", 1000)
	require.NoError(t, err)

	assert.Equal(t, "id,name,amount", stats.header)
	assert.Equal(t, 2500, stats.totalRows)
	require.Len(t, stats.head, 1000)
	require.Len(t, stats.tail, 1000)
	assert.Equal(t, "0,row0,0.50", stats.head[0])
	assert.Equal(t, "999,row999,999.50", stats.head[999])
	assert.Equal(t, "1500,row1500,1500.50", stats.tail[0])
	assert.Equal(t, "2499,row2499,2499.50", stats.tail[999])
}

func TestScanCSV_Cancelled(t *testing.T) {
	fx := newFixture(t, Tunables{})
	writeCSV(t, fx, "/in/rows.csv", 30_000)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fx.service.scanCSV(ctx, "/in/rows.csv", 1000)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestUltraCompress_FitsCeiling(t *testing.T) {
	rows := make([]string, 1000)
	for i := range rows {
		rows[i] = fmt.Sprintf("%d,row%d,true", i, i)
	}
	stats := csvStats{
		header:    "id,name,flag",
		totalRows: 1_000_000,
		head:      rows,
		tail:      rows,
	}

	out := ultraCompress(stats, 2048)

	assert.LessOrEqual(t, len(out), 2048)
	assert.Contains(t, out, "ULTRA-COMPRESSED")
	assert.Contains(t, out, "id,name,flag")
}

func TestDetectDelimiter(t *testing.T) {
	tests := []struct {
		header string
		want   rune
	}{
		{"a,b,c", ','},
		{"a\tb\tc", '\t'},
		{"a;b;c", ';'},
		{"a|b|c", '|'},
		{"one;two,three,four", ','},
		{"nodelimiter", ','},
	}
	for _, tt := range tests {
		assert.Equalf(t, tt.want, detectDelimiter(tt.header), "header %q", tt.header)
	}
}

func TestSplitRow_QuotedFields(t *testing.T) {
	fields := splitRow(`1,"Smith, Jane",active`, ',')
	assert.Equal(t, []string{"1", "Smith, Jane", "active"}, fields)
}

func TestClassifyValues(t *testing.T) {
	tests := []struct {
		name string
		vals []string
		want string
	}{
		{"numeric", []string{"1", "2.5", "-3", "4e2"}, "numeric"},
		{"date", []string{"2024-01-01", "2024-06-15", "2025-12-31"}, "date"},
		{"boolean", []string{"true", "false", "yes", "no"}, "boolean"},
		{"short text", []string{"alpha", "beta", "gamma"}, "text (short)"},
		{"medium text", []string{strings.Repeat("a", 50), strings.Repeat("b", 60)}, "text (medium)"},
		{"long text", []string{strings.Repeat("a", 200)}, "text (long)"},
		{"empty", nil, "text"},
		// Exactly 80% numeric meets the ceil threshold.
		{"numeric at threshold", []string{"1", "2", "3", "4", "x"}, "numeric"},
		// Below 80% falls through to text.
		{"numeric below threshold", []string{"1", "2", "3", "x", "y"}, "text (short)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyValues(tt.vals))
		})
	}
}
