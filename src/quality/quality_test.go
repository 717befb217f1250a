package quality

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var checkmTab = `Bin Id	Marker lineage	# genomes	# markers	# marker sets	0	1	2	3	4	5+	Completeness	Contamination	Strain heterogeneity
genomeA	k__Bacteria (UID203)	5449	104	58	0	104	0	0	0	0	100.00	0.00	0.00
genomeB	k__Bacteria (UID203)	5449	104	58	1	103	0	0	0	0	98.28	1.72	0.00
genomeC	k__Bacteria (UID203)	5449	104	58	30	74	0	0	0	0	55.00	3.00	0.00
genomeD	k__Bacteria (UID203)	5449	104	58	0	90	14	0	0	0	97.00	12.00	0.00
`

var checkm2Report = `Name	Completeness	Contamination	Completeness_Model_Used
genomeA	99.5	0.1	Neural Network (Specific Model)
`

func TestParseCheckMTabTable(t *testing.T) {
	table, err := ParseCheckMTabTable(strings.NewReader(checkmTab))
	require.NoError(t, err)
	assert.Equal(t, 4, table.Len())
	q, ok := table.Retrieve("genomeB")
	require.True(t, ok)
	assert.Equal(t, Quality{Completeness: 98.28, Contamination: 1.72}, q)

	table, err = ParseCheckMTabTable(strings.NewReader(checkm2Report))
	require.NoError(t, err)
	q, ok = table.RetrieveViaFastaPath("/data/mags/genomeA.fna.gz")
	require.True(t, ok)
	assert.Equal(t, 99.5, q.Completeness)
}

func TestParseCheckMTabTableErrors(t *testing.T) {
	_, err := ParseCheckMTabTable(strings.NewReader(""))
	assert.Error(t, err)
	_, err = ParseCheckMTabTable(strings.NewReader("Bin Id\tCompleteness\ngenomeA\t100\n"))
	assert.Error(t, err)
	_, err = ParseCheckMTabTable(strings.NewReader("Bin Id\tCompleteness\tContamination\ngenomeA\tlots\t0\n"))
	assert.Error(t, err)
}

func TestReadCheckMTabTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkm.tsv")
	require.NoError(t, os.WriteFile(path, []byte(checkmTab), 0644))
	table, err := ReadCheckMTabTable(path)
	require.NoError(t, err)
	assert.Equal(t, 4, table.Len())

	_, err = ReadCheckMTabTable(path + ".missing")
	assert.Error(t, err)
}

func TestBinID(t *testing.T) {
	assert.Equal(t, "genomeA", BinID("genomeA.fna"))
	assert.Equal(t, "genomeA", BinID("/a/b/genomeA.fna.gz"))
	assert.Equal(t, "genome.v2", BinID("dir/genome.v2.fa"))
	assert.Equal(t, "genomeA", BinID("genomeA"))
}

func TestResolveMissing(t *testing.T) {
	table, err := ParseCheckMTabTable(strings.NewReader(checkmTab))
	require.NoError(t, err)

	qualities, err := Resolve([]string{"x/genomeA.fna", "x/genomeD.fna"}, table)
	require.NoError(t, err)
	assert.Len(t, qualities, 2)

	_, err = Resolve([]string{"x/genomeA.fna", "x/genomeZ.fna"}, table)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingQuality))
	assert.Contains(t, err.Error(), "genomeZ.fna")
}

func TestFilter(t *testing.T) {
	qualities := []Quality{
		{Completeness: 100, Contamination: 0},
		{Completeness: 98.28, Contamination: 1.72},
		{Completeness: 55, Contamination: 3},
		{Completeness: 97, Contamination: 12},
	}

	// defaults keep everything
	assert.Equal(t, []int{0, 1, 2, 3}, Filter(4, qualities, DefaultThresholds()))

	// completeness only
	assert.Equal(t, []int{0, 1, 3}, Filter(4, qualities, Thresholds{MinCompleteness: 60, MaxContamination: NoMaxContamination}))

	// both
	assert.Equal(t, []int{0, 1}, Filter(4, qualities, Thresholds{MinCompleteness: 60, MaxContamination: 10}))

	// the contamination limit is inclusive
	assert.Equal(t, []int{0, 1, 2}, Filter(4, qualities, Thresholds{MaxContamination: 3}))

	// no table means no filtering
	assert.Equal(t, []int{0, 1, 2}, Filter(3, nil, Thresholds{MinCompleteness: 99, MaxContamination: 0}))
}

func TestRank(t *testing.T) {
	formula, err := GetFormula(DefaultFormula)
	require.NoError(t, err)

	qualities := []Quality{
		{Completeness: 60, Contamination: 0},  // 60
		{Completeness: 90, Contamination: 0},  // 90
		{Completeness: 80, Contamination: 2},  // 70
		{Completeness: 95, Contamination: 5},  // 70
		{Completeness: 100, Contamination: 6}, // 70
	}
	ranked := Rank([]int{0, 1, 2, 3, 4}, qualities, formula)

	// ties (2, 3 and 4 all score 70) stay in input order
	assert.Equal(t, []int{1, 2, 3, 4, 0}, ranked)

	// ranking a filtered subset only ever returns that subset
	assert.Equal(t, []int{3, 0}, Rank([]int{0, 3}, qualities, formula))

	// no qualities keeps input order
	assert.Equal(t, []int{2, 0, 1}, Rank([]int{2, 0, 1}, nil, formula))
}

func TestFormulas(t *testing.T) {
	q := Quality{Completeness: 90, Contamination: 2}
	four, err := GetFormula("completeness-4contamination")
	require.NoError(t, err)
	assert.Equal(t, 82.0, four(q))
	five, err := GetFormula("completeness-5contamination")
	require.NoError(t, err)
	assert.Equal(t, 80.0, five(q))
	_, err = GetFormula("dRep")
	assert.Error(t, err)
}
