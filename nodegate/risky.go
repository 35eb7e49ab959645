package nodegate

import "unsafe"

// constBytes returns a []byte view of s without copying.
//
// WARNING: do not mutate the returned slice; s may be interned.
func constBytes(s string) []byte {
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

// weakString returns a string view of p without copying.
//
// WARNING: do not mutate p while the returned string is in use.
func weakString(p []byte) string {
	return unsafe.String(unsafe.SliceData(p), len(p))
}
