package compact

// CString is a compact UTF-8 string with the same inline/spilled
// tracking as CVec[byte]. It is used for a handful of debug-only
// fields (e.g. construction action failure messages); the hot path of
// this module never allocates strings per tick.
type CString struct {
	data    string
	inlineCap int
	spilled bool
}

func NewCString(s string, inlineCap int) CString {
	return CString{data: s, inlineCap: inlineCap, spilled: len(s) > inlineCap}
}

func (s CString) String() string { return s.data }
func (s CString) Len() int        { return len(s.data) }

func (s CString) DynamicSizeBytes() int {
	if s.spilled {
		return 0
	}
	return s.inlineCap
}

func (s CString) IsStillCompact() bool { return !s.spilled }
