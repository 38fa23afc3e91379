package vista

import "sort"

// Block is one content block of the page: an ID, its markup, and inline
// style properties.
type Block struct {
	ID      string            `yaml:"id"`
	Content string            `yaml:"content"`
	Style   map[string]string `yaml:"style,omitempty"`
}

func (b Block) clone() Block {
	out := b
	if b.Style != nil {
		out.Style = make(map[string]string, len(b.Style))
		for k, v := range b.Style {
			out.Style[k] = v
		}
	}
	return out
}

// Document is the page content side effects act on.
type Document interface {
	// Block returns the attached block with the given ID.
	Block(id string) (Block, bool)
	// Detach removes a block from the page and returns it.
	Detach(id string) (Block, bool)
	// Attach appends a block to the end of the page.
	Attach(b Block)
	// SetStyle sets one style property on an attached block. Reports
	// whether the block exists.
	SetStyle(id, property, value string) bool
}

// MemoryDocument is an ordered, in-memory Document.
type MemoryDocument struct {
	blocks []Block
}

// NewMemoryDocument creates a document holding copies of blocks in order.
func NewMemoryDocument(blocks ...Block) *MemoryDocument {
	d := &MemoryDocument{}
	for _, b := range blocks {
		d.blocks = append(d.blocks, b.clone())
	}
	return d
}

func (d *MemoryDocument) index(id string) int {
	for i := range d.blocks {
		if d.blocks[i].ID == id {
			return i
		}
	}
	return -1
}

func (d *MemoryDocument) Block(id string) (Block, bool) {
	i := d.index(id)
	if i < 0 {
		return Block{}, false
	}
	return d.blocks[i].clone(), true
}

func (d *MemoryDocument) Detach(id string) (Block, bool) {
	i := d.index(id)
	if i < 0 {
		return Block{}, false
	}
	b := d.blocks[i]
	d.blocks = append(d.blocks[:i], d.blocks[i+1:]...)
	return b, true
}

func (d *MemoryDocument) Attach(b Block) {
	d.blocks = append(d.blocks, b.clone())
}

func (d *MemoryDocument) SetStyle(id, property, value string) bool {
	i := d.index(id)
	if i < 0 {
		return false
	}
	if d.blocks[i].Style == nil {
		d.blocks[i].Style = make(map[string]string)
	}
	d.blocks[i].Style[property] = value
	return true
}

// Blocks returns copies of the attached blocks in page order.
func (d *MemoryDocument) Blocks() []Block {
	out := make([]Block, len(d.blocks))
	for i, b := range d.blocks {
		out[i] = b.clone()
	}
	return out
}

// IDs returns the attached block IDs in page order.
func (d *MemoryDocument) IDs() []string {
	ids := make([]string, len(d.blocks))
	for i, b := range d.blocks {
		ids[i] = b.ID
	}
	return ids
}

// ContentStash detaches blocks from a Document and keeps them so they can
// be put back later, content intact.
type ContentStash struct {
	doc    Document
	stored []Block
}

// NewContentStash creates an empty stash over doc.
func NewContentStash(doc Document) *ContentStash {
	return &ContentStash{doc: doc}
}

// Hide detaches every listed block that is currently attached and stashes
// it. Missing IDs are skipped. Returns the number of blocks hidden.
func (s *ContentStash) Hide(ids ...string) int {
	n := 0
	for _, id := range ids {
		if b, ok := s.doc.Detach(id); ok {
			s.stored = append(s.stored, b)
			n++
		}
	}
	return n
}

// Restore re-attaches every stashed block in the order it was hidden and
// empties the stash. Returns the number of blocks restored.
func (s *ContentStash) Restore() int {
	n := len(s.stored)
	for _, b := range s.stored {
		s.doc.Attach(b)
	}
	s.stored = s.stored[:0]
	return n
}

// Stashed returns the IDs currently held, sorted.
func (s *ContentStash) Stashed() []string {
	ids := make([]string, len(s.stored))
	for i, b := range s.stored {
		ids[i] = b.ID
	}
	sort.Strings(ids)
	return ids
}
