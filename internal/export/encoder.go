package export

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/daylogapp/daylog-server/internal/domain"
	domainerrors "github.com/daylogapp/daylog-server/internal/errors"
)

// Encoder serializes a Table in a single format.
// Output must be deterministic: the same table always encodes to the same
// bytes.
type Encoder interface {
	// Encode writes the header and every row of t to w.
	Encode(w io.Writer, t *Table) error

	// Format returns the export format this encoder produces.
	Format() domain.ExportFormat

	// Extension returns the file extension without the leading dot.
	Extension() string

	// MediaType returns the MIME type of the encoded output.
	MediaType() string
}

// encoders is the closed set of supported formats. Adding a format means
// adding an Encoder type and an entry here.
var encoders = map[domain.ExportFormat]Encoder{
	domain.ExportFormatCSV:  CSVEncoder{},
	domain.ExportFormatJSON: JSONEncoder{},
	domain.ExportFormatYAML: YAMLEncoder{},
}

// EncoderFor returns the encoder registered for format.
func EncoderFor(format domain.ExportFormat) (Encoder, error) {
	enc, ok := encoders[format]
	if !ok {
		return nil, domainerrors.ValidationWithDetails("validation failed",
			map[string]string{"format": "unsupported export format " + string(format)})
	}
	return enc, nil
}

// CSVEncoder writes RFC 4180 comma-separated values with a header row.
// Fields containing commas, quotes or newlines are quoted; embedded
// newlines are kept inside the quotes.
type CSVEncoder struct{}

func (CSVEncoder) Format() domain.ExportFormat { return domain.ExportFormatCSV }
func (CSVEncoder) Extension() string           { return "csv" }
func (CSVEncoder) MediaType() string           { return "text/csv" }

// Encode writes t as CSV.
func (CSVEncoder) Encode(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeEncodingFailure, "write csv header")
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return domainerrors.EncodingFailuref("row %d has %d fields, want %d", i, len(row), len(t.Columns))
		}
		if err := cw.Write(row); err != nil {
			return domainerrors.Wrapf(err, domainerrors.CodeEncodingFailure, "write csv row %d", i)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeEncodingFailure, "flush csv")
	}
	return nil
}

// JSONEncoder writes a JSON array with one object per row. Object keys are
// the lowercased column names, in column order.
type JSONEncoder struct{}

func (JSONEncoder) Format() domain.ExportFormat { return domain.ExportFormatJSON }
func (JSONEncoder) Extension() string           { return "json" }
func (JSONEncoder) MediaType() string           { return "application/json" }

// Encode writes t as JSON. Keys are emitted by hand because map ordering
// would not preserve the column layout.
func (JSONEncoder) Encode(w io.Writer, t *Table) error {
	keys := make([][]byte, len(t.Columns))
	for i, col := range t.Columns {
		k, err := json.Marshal(strings.ToLower(col))
		if err != nil {
			return domainerrors.Wrapf(err, domainerrors.CodeEncodingFailure, "encode column %q", col)
		}
		keys[i] = k
	}

	bw := bufio.NewWriter(w)
	bw.WriteString("[")
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return domainerrors.EncodingFailuref("row %d has %d fields, want %d", i, len(row), len(t.Columns))
		}
		if i > 0 {
			bw.WriteString(",")
		}
		bw.WriteString("\n  {")
		for j, field := range row {
			v, err := json.Marshal(field)
			if err != nil {
				return domainerrors.Wrapf(err, domainerrors.CodeEncodingFailure, "encode row %d", i)
			}
			if j > 0 {
				bw.WriteString(",")
			}
			bw.Write(keys[j])
			bw.WriteString(":")
			bw.Write(v)
		}
		bw.WriteString("}")
	}
	if len(t.Rows) > 0 {
		bw.WriteString("\n")
	}
	bw.WriteString("]\n")

	if err := bw.Flush(); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeEncodingFailure, "write json")
	}
	return nil
}

// YAMLEncoder writes a sequence with one mapping per row. Keys are the
// lowercased column names in column order.
type YAMLEncoder struct{}

func (YAMLEncoder) Format() domain.ExportFormat { return domain.ExportFormatYAML }
func (YAMLEncoder) Extension() string           { return "yaml" }
func (YAMLEncoder) MediaType() string           { return "application/yaml" }

// Encode writes t as a YAML document. Mappings are built as nodes so key
// order follows the columns; every value is a string scalar.
func (YAMLEncoder) Encode(w io.Writer, t *Table) error {
	keys := make([]*yaml.Node, len(t.Columns))
	for i, col := range t.Columns {
		keys[i] = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: strings.ToLower(col)}
	}

	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	if len(t.Rows) == 0 {
		seq.Style = yaml.FlowStyle
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return domainerrors.EncodingFailuref("row %d has %d fields, want %d", i, len(row), len(t.Columns))
		}
		m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map", Content: make([]*yaml.Node, 0, 2*len(row))}
		for j, field := range row {
			m.Content = append(m.Content, keys[j], &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: field})
		}
		seq.Content = append(seq.Content, m)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(seq); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeEncodingFailure, "write yaml")
	}
	if err := enc.Close(); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeEncodingFailure, "write yaml")
	}
	return nil
}
