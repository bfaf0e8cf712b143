package ir

// Record is one user-editable key/value entry of an account.
type Record struct {
	Type  string `json:"type" yaml:"type"`
	Key   string `json:"key" yaml:"key"`
	Label string `json:"label" yaml:"label"`
	Value string `json:"value" yaml:"value"`
	TTL   uint32 `json:"ttl" yaml:"ttl"`
}

// Records is the ordered record list of an account.
type Records []Record

// IR returns the records as an IRArray preserving order.
func (rs Records) IR() IRArray {
	arr := make(IRArray, len(rs))
	for i, r := range rs {
		arr[i] = IRObject{
			"type":  IRString(r.Type),
			"key":   IRString(r.Key),
			"label": IRString(r.Label),
			"value": IRString(r.Value),
			"ttl":   IRInt(r.TTL),
		}
	}
	return arr
}

// Size returns the number of bytes the records occupy once encoded:
// field contents plus a 4-byte length header per field.
func (rs Records) Size() int {
	n := 0
	for _, r := range rs {
		n += len(r.Type) + len(r.Key) + len(r.Label) + len(r.Value) + 4 + 4*4
	}
	return n
}
