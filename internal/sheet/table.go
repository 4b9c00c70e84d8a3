package sheet

// Row is one timestamped sample set keyed by sensor name, as handed back by
// the query backend.
type Row struct {
	Timestamp string
	Values    map[string]any
}

// Table is a rectangular block of cell values ready to spill into a sheet.
type Table [][]any

const missingCell = "N/A"

var noDataLines = []string{
	"No data found for the given sensors and time range.",
	"Check the sensor names and widen the time range if needed.",
}

// NoData builds the block returned when a query succeeds without samples.
// It has no header row, so callers can tell it apart from a result grid.
func NoData() Table {
	return MessageTable(noDataLines...)
}

// IsNoData reports whether t is the shape produced by NoData.
func (t Table) IsNoData() bool {
	return len(t) > 0 && len(t[0]) == 1 && t[0][0] == noDataLines[0]
}

// MessageTable renders free-form lines as single-cell rows.
func MessageTable(lines ...string) Table {
	t := make(Table, len(lines))
	for i, line := range lines {
		t[i] = []any{line}
	}
	return t
}

// Reshape pivots backend rows into a spill block: a header of "Timestamp"
// plus the declared sensor columns, then one row per sample in arrival
// order. Columns follow the declared order, never the payload's. Sensors
// absent from a row render as "N/A".
func Reshape(rows []Row, columns []string, codec Codec) Table {
	if len(rows) == 0 {
		return NoData()
	}
	header := make([]any, 0, len(columns)+1)
	header = append(header, "Timestamp")
	for _, column := range columns {
		header = append(header, column)
	}
	table := make(Table, 0, len(rows)+1)
	table = append(table, header)
	parser := Parser{Location: codec.location()}
	for _, row := range rows {
		cells := make([]any, 0, len(columns)+1)
		cells = append(cells, timestampCell(row.Timestamp, parser, codec))
		for _, column := range columns {
			value, ok := row.Values[column]
			if !ok || value == nil {
				value = missingCell
			}
			cells = append(cells, value)
		}
		table = append(table, cells)
	}
	return table
}

// timestampCell converts the backend's wall-clock stamp to a serial so the
// sheet can format it as a date. Unparseable stamps pass through as text.
func timestampCell(stamp string, parser Parser, codec Codec) any {
	t, naive, err := parser.Parse(stamp)
	if err != nil {
		return stamp
	}
	return codec.ToSerial(t, naive)
}
