package flowlog

// This package only turns flow log lines into records. Tag lookup and
// counting live in internal/aggregate.

// FieldCount is the number of whitespace-separated fields in a record.
const FieldCount = 11

// Positions of the fields used for classification. The layout follows the
// AWS VPC flow log ordering.
const (
	DstPortField  = 6
	ProtocolField = 7
)

// Record is one flow log line split into fields.
//
// Fields keeps every token verbatim; DstPort and Protocol hold the
// lower-cased, trimmed values of the two classification fields.
type Record struct {
	Fields   [FieldCount]string
	DstPort  string
	Protocol string
}
