package mmcif

// Export some internal functions for testing

func (s *cmmtScanner) Cbytes() []byte   { return s.cbytes() }
func (s *cmmtScanner) Cscan() (ok bool) { return s.cscan() }

var NewCmmtScanner = newCmmtScanner
var AppendValues = appendValues
var ErrUntermQuote = errUntermQuote
var SplitTag = splitTag

type BSlice = bSlice
