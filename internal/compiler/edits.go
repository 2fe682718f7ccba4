package compiler

import (
	"sort"
	"strings"
)

// edit replaces src[start:end].
type edit struct {
	start, end uint32
	text       string
}

// printer is a copy-on-write view of the source. The parse tree is never
// touched; edits are recorded against byte spans and applied when text is
// requested. An edit covering another one supersedes it.
type printer struct {
	src   []byte
	edits []edit
}

func newPrinter(src []byte) *printer {
	return &printer{src: src}
}

func (p *printer) replace(start, end uint32, text string) {
	p.edits = append(p.edits, edit{start: start, end: end, text: text})
}

func (p *printer) insert(at uint32, text string) {
	p.replace(at, at, text)
}

// text renders src[start:end] with every edit inside the span applied.
func (p *printer) text(start, end uint32) string {
	var inside []edit
	for _, e := range p.edits {
		if e.start >= start && e.end <= end {
			inside = append(inside, e)
		}
	}
	// outer spans first
	sort.SliceStable(inside, func(i, j int) bool {
		if inside[i].start != inside[j].start {
			return inside[i].start < inside[j].start
		}
		return inside[i].end > inside[j].end
	})

	var b strings.Builder
	cursor := start
	for _, e := range inside {
		if e.start < cursor {
			continue
		}
		b.Write(p.src[cursor:e.start])
		b.WriteString(e.text)
		cursor = e.end
	}
	b.Write(p.src[cursor:end])
	return b.String()
}

func (p *printer) String() string {
	return p.text(0, uint32(len(p.src)))
}
