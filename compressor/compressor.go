package compressor

import (
	"encoding/binary"
	"fmt"
	"sort"
)

type OriginalTable struct {
	entries  []int
	rowCount int
	colCount int
}

func NewOriginalTable(entries []int, colCount int) (*OriginalTable, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("enries is empty")
	}
	if colCount <= 0 {
		return nil, fmt.Errorf("colCount must be >=1")
	}
	if len(entries)%colCount != 0 {
		return nil, fmt.Errorf("entries length or column count are incorrect; entries length: %v, column count: %v", len(entries), colCount)
	}

	return &OriginalTable{
		entries:  entries,
		rowCount: len(entries) / colCount,
		colCount: colCount,
	}, nil
}

type Compressor interface {
	Compress(orig *OriginalTable) error
	Lookup(row, col int) (int, error)
	OriginalTableSize() (int, int)
}

var (
	_ Compressor = &UniqueEntriesTable{}
	_ Compressor = &RowDisplacementTable{}
)

// UniqueEntriesTable stores each distinct row once. Rows sharing the same entries share the same
// row number.
type UniqueEntriesTable struct {
	UniqueEntries    []int `json:"unique_entries"`
	RowNums          []int `json:"row_nums"`
	OriginalRowCount int   `json:"original_row_count"`
	OriginalColCount int   `json:"original_col_count"`
}

func NewUniqueEntriesTable() *UniqueEntriesTable {
	return &UniqueEntriesTable{}
}

func (tab *UniqueEntriesTable) Lookup(row, col int) (int, error) {
	if row < 0 || row >= tab.OriginalRowCount || col < 0 || col >= tab.OriginalColCount {
		return 0, fmt.Errorf("indexes are out of range: [%v, %v]", row, col)
	}
	return tab.UniqueEntries[tab.RowNums[row]*tab.OriginalColCount+col], nil
}

// Row returns a whole row. The caller must not modify the result.
func (tab *UniqueEntriesTable) Row(row int) ([]int, error) {
	if row < 0 || row >= tab.OriginalRowCount {
		return nil, fmt.Errorf("a row index is out of range: %v", row)
	}
	start := tab.RowNums[row] * tab.OriginalColCount
	return tab.UniqueEntries[start : start+tab.OriginalColCount], nil
}

func (tab *UniqueEntriesTable) OriginalTableSize() (int, int) {
	return tab.OriginalRowCount, tab.OriginalColCount
}

func (tab *UniqueEntriesTable) Compress(orig *OriginalTable) error {
	var uniqueEntries []int
	rowNums := make([]int, orig.rowCount)
	hash2RowNum := map[string]int{}
	nextRowNum := 0
	for row := 0; row < orig.rowCount; row++ {
		start := row * orig.colCount
		var rowHash string
		{
			buf := make([]byte, 0, orig.colCount*binary.MaxVarintLen64)
			b := make([]byte, binary.MaxVarintLen64)
			for _, v := range orig.entries[start : start+orig.colCount] {
				n := binary.PutVarint(b, int64(v))
				buf = append(buf, b[:n]...)
			}
			rowHash = string(buf)
		}
		rowNum, ok := hash2RowNum[rowHash]
		if !ok {
			rowNum = nextRowNum
			nextRowNum++
			hash2RowNum[rowHash] = rowNum
			uniqueEntries = append(uniqueEntries, orig.entries[start:start+orig.colCount]...)
		}
		rowNums[row] = rowNum
	}

	tab.UniqueEntries = uniqueEntries
	tab.RowNums = rowNums
	tab.OriginalRowCount = orig.rowCount
	tab.OriginalColCount = orig.colCount

	return nil
}

// ForbiddenValue marks an unused slot of the check array and the base of an empty row.
const ForbiddenValue = -1

// RowDisplacementTable packs the rows of a sparse table into one shared array pair. The entry
// (row, col) lives at Value[Base[row]+col] and is valid only when Check[Base[row]+col] == col.
// No two non-empty rows share a base, so a matching column in the check array identifies the row.
type RowDisplacementTable struct {
	OriginalRowCount int   `json:"original_row_count"`
	OriginalColCount int   `json:"original_col_count"`
	EmptyValue       int   `json:"empty_value"`
	Base             []int `json:"base"`
	Check            []int `json:"check"`
	Value            []int `json:"value"`
}

func NewRowDisplacementTable(emptyValue int) *RowDisplacementTable {
	return &RowDisplacementTable{
		EmptyValue: emptyValue,
	}
}

func (tab *RowDisplacementTable) Lookup(row int, col int) (int, error) {
	if row < 0 || row >= tab.OriginalRowCount || col < 0 || col >= tab.OriginalColCount {
		return tab.EmptyValue, fmt.Errorf("indexes are out of range: [%v, %v]", row, col)
	}
	b := tab.Base[row]
	if b == ForbiddenValue || b+col >= len(tab.Check) || tab.Check[b+col] != col {
		return tab.EmptyValue, nil
	}
	return tab.Value[b+col], nil
}

func (tab *RowDisplacementTable) OriginalTableSize() (int, int) {
	return tab.OriginalRowCount, tab.OriginalColCount
}

type rowInfo struct {
	rowNum        int
	nonEmptyCount int
	nonEmptyCol   []int
}

// Compress places rows densest first. Each row takes the smallest base that is not used by
// another row and whose slots are all free (first fit).
func (tab *RowDisplacementTable) Compress(orig *OriginalTable) error {
	rowInfo := make([]rowInfo, orig.rowCount)
	for row := 0; row < orig.rowCount; row++ {
		rowInfo[row].rowNum = row
		for col := 0; col < orig.colCount; col++ {
			if orig.entries[row*orig.colCount+col] == tab.EmptyValue {
				continue
			}
			rowInfo[row].nonEmptyCount++
			rowInfo[row].nonEmptyCol = append(rowInfo[row].nonEmptyCol, col)
		}
	}
	sort.SliceStable(rowInfo, func(i int, j int) bool {
		return rowInfo[i].nonEmptyCount > rowInfo[j].nonEmptyCount
	})

	base := make([]int, orig.rowCount)
	for i := range base {
		base[i] = ForbiddenValue
	}
	var check []int
	var value []int
	usedBase := map[int]struct{}{}
	for _, rInfo := range rowInfo {
		if rInfo.nonEmptyCount == 0 {
			continue
		}

		b := 0
		for {
			if _, used := usedBase[b]; !used && fits(check, b, rInfo.nonEmptyCol) {
				break
			}
			b++
		}

		last := b + rInfo.nonEmptyCol[len(rInfo.nonEmptyCol)-1]
		for len(check) <= last {
			check = append(check, ForbiddenValue)
			value = append(value, tab.EmptyValue)
		}
		for _, col := range rInfo.nonEmptyCol {
			check[b+col] = col
			value[b+col] = orig.entries[rInfo.rowNum*orig.colCount+col]
		}
		base[rInfo.rowNum] = b
		usedBase[b] = struct{}{}
	}

	tab.OriginalRowCount = orig.rowCount
	tab.OriginalColCount = orig.colCount
	tab.Base = base
	tab.Check = check
	tab.Value = value

	return nil
}

func fits(check []int, base int, cols []int) bool {
	for _, col := range cols {
		if base+col < len(check) && check[base+col] != ForbiddenValue {
			return false
		}
	}
	return true
}
