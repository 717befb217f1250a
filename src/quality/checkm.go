package quality

import (
	"bufio"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shenwei356/xopen"
)

// column headers recognised in CheckM (--tab_table) and CheckM2 quality reports
var (
	idHeaders           = []string{"Bin Id", "Name"}
	completenessHeader  = "Completeness"
	contaminationHeader = "Contamination"
)

// CheckMTable holds genome quality records keyed by bin ID
type CheckMTable struct {
	records map[string]Quality
}

// ReadCheckMTabTable loads a CheckM tab table (or CheckM2 quality report) from disk
func ReadCheckMTabTable(path string) (*CheckMTable, error) {
	fh, err := xopen.Ropen(path)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	defer fh.Close()
	table, err := ParseCheckMTabTable(fh)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return table, nil
}

// ParseCheckMTabTable reads a tab separated quality table with a header line
func ParseCheckMTabTable(r io.Reader) (*CheckMTable, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, err
		}
		return nil, errors.New("quality table is empty")
	}
	header := strings.Split(strings.TrimRight(scanner.Text(), "\r"), "\t")
	idCol, compCol, contCol := -1, -1, -1
	for i, field := range header {
		field = strings.TrimSpace(field)
		for _, h := range idHeaders {
			if field == h && idCol == -1 {
				idCol = i
			}
		}
		switch field {
		case completenessHeader:
			compCol = i
		case contaminationHeader:
			contCol = i
		}
	}
	if idCol == -1 || compCol == -1 || contCol == -1 {
		return nil, errors.Errorf("quality table header is missing one of %v/%s/%s columns", idHeaders, completenessHeader, contaminationHeader)
	}

	table := &CheckMTable{records: make(map[string]Quality)}
	lineNum := 1
	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) <= idCol || len(fields) <= compCol || len(fields) <= contCol {
			return nil, errors.Errorf("line %d of quality table has %d fields", lineNum, len(fields))
		}
		completeness, err := strconv.ParseFloat(strings.TrimSpace(fields[compCol]), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d: completeness", lineNum)
		}
		contamination, err := strconv.ParseFloat(strings.TrimSpace(fields[contCol]), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d: contamination", lineNum)
		}
		table.records[strings.TrimSpace(fields[idCol])] = Quality{Completeness: completeness, Contamination: contamination}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return table, nil
}

// Len is the number of genomes in the table
func (CheckMTable *CheckMTable) Len() int {
	return len(CheckMTable.records)
}

// Retrieve looks up a genome by bin ID
func (CheckMTable *CheckMTable) Retrieve(binID string) (Quality, bool) {
	q, ok := CheckMTable.records[binID]
	return q, ok
}

// RetrieveViaFastaPath looks up a genome by the path to its FASTA file
func (CheckMTable *CheckMTable) RetrieveViaFastaPath(path string) (Quality, bool) {
	return CheckMTable.Retrieve(BinID(path))
}

// BinID converts a FASTA path into the bin ID CheckM would have reported for it, i.e. the file
// name without its directory or final extension (a trailing .gz is dropped first)
func BinID(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), ".gz")
	return strings.TrimSuffix(name, filepath.Ext(name))
}
