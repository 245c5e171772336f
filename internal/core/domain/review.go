package domain

// Review record field names as the review tool stores them.
const (
	ReviewFieldStatus      = "status"
	ReviewFieldExportPath  = "exportPath"
	ReviewFieldEntryID     = "entryId"
	ReviewFieldAmount      = "amount"
	ReviewFieldDate        = "date"
	ReviewFieldAccountCode = "accountCode"
	ReviewFieldDescription = "description"
	ReviewFieldDirection   = "direction"
	ReviewFieldCategory    = "category"
	ReviewFieldClientID    = "clientId"
)

// ReviewRecordApproved is the status value that makes a record exportable.
const ReviewRecordApproved = "approved"

// ReviewRecord is a row from the external review tool. Fields is the raw
// field map; the tool's schema is loose, so typed access goes through the
// helper methods.
type ReviewRecord struct {
	ID     string
	Fields map[string]any
}

// StringField returns the named field as a string, or "" when absent or of
// another type.
func (r ReviewRecord) StringField(name string) string {
	s, _ := r.Fields[name].(string)
	return s
}

// NumberField returns the named field as a float64 together with whether it
// was present as a number.
func (r ReviewRecord) NumberField(name string) (float64, bool) {
	f, ok := r.Fields[name].(float64)
	return f, ok
}

// IsApproved reports whether the record's status marks it exportable.
func (r ReviewRecord) IsApproved() bool {
	return r.StringField(ReviewFieldStatus) == ReviewRecordApproved
}
