package encoding

import "vgrid/internal/textutil"

// dictionary interns strings in first-seen order. One is built per Encode
// call and never shared.
type dictionary struct {
	index   map[string]int
	entries []string
}

func newDictionary() *dictionary {
	return &dictionary{index: make(map[string]int)}
}

// ref returns the index of s, adding it on first sight. Strings are NFC
// normalized so canonically equivalent keys share an entry.
func (d *dictionary) ref(s string) int {
	s = textutil.NFC(s)
	if idx, ok := d.index[s]; ok {
		return idx
	}
	idx := len(d.entries)
	d.index[s] = idx
	d.entries = append(d.entries, s)
	return idx
}

func (d *dictionary) list() []string {
	if d.entries == nil {
		return []string{}
	}
	return d.entries
}
