// Package parser compiles strand notation into the IR: it runs the
// indentation scanner, classifies each rewritten line, and builds nodes,
// relationships, and states through an explicit context threaded through
// the recursive descent, with no shared mutable parser state.
package parser

import (
	"fmt"
	"strings"
	"time"

	"strand/loom/internal/ir"
	"strand/loom/internal/scanner"
)

// ParseError is a fatal grammar failure. No partial IR is returned.
type ParseError struct {
	File string
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: parse error: %s", e.File, e.Line, e.Msg)
}

// Parse compiles source into an unlinked IR document. Run the linker before
// handing the document to the linter or query engine.
func Parse(source, filename string) (*ir.Document, error) {
	return ParseAt(source, filename, time.Now().UTC())
}

// ParseAt is Parse with an injected clock for provenance timestamps.
func ParseAt(source, filename string, now time.Time) (*ir.Document, error) {
	res, err := scanner.Process(source)
	if err != nil {
		return nil, err
	}
	p := &parser{
		file:    filename,
		stamp:   now.Format(time.RFC3339),
		lines:   strings.Split(res.Rewritten, "\n"),
		lineMap: res.LineMap,
		doc: &ir.Document{
			Version:       ir.Version,
			Nodes:         []*ir.Node{},
			Relationships: []*ir.Relationship{},
			States:        []*ir.State{},
		},
		nodeByID: make(map[string]*ir.Node),
		relByID:  make(map[string]*ir.Relationship),
		claimed:  make(map[string]bool),
	}
	if err := p.parseBody(nil); err != nil {
		return nil, err
	}
	if p.pos < len(p.lines) {
		return nil, p.errAt("unexpected closing brace")
	}
	return p.doc, nil
}

// blockFrame carries per-block parse state: the continuation anchor, cached
// so repeated operator-leading lines all chain off the block's first node.
type blockFrame struct {
	anchor *ir.Node
}

type parser struct {
	file    string
	stamp   string
	lines   []string
	lineMap map[int]int
	pos     int

	doc      *ir.Document
	nodeByID map[string]*ir.Node
	relByID  map[string]*ir.Relationship
	// claimed marks ids already owned by a nested block's children list,
	// so an enclosing block does not claim them again.
	claimed map[string]bool
}

// origLine maps the current rewritten line back to the original source.
func (p *parser) origLine() int {
	if l, ok := p.lineMap[p.pos+1]; ok {
		return l
	}
	return p.pos + 1
}

func (p *parser) errAt(msg string) *ParseError {
	return &ParseError{File: p.file, Line: p.origLine(), Msg: msg}
}

// parseBody consumes lines until a closing brace (when frame is non-nil) or
// end of input (top level, frame nil).
func (p *parser) parseBody(frame *blockFrame) error {
	for p.pos < len(p.lines) {
		kind, rest, openAfter := classify(p.lines[p.pos])
		switch kind {
		case lineBlank:
			p.pos++
		case lineClose:
			if frame == nil {
				return nil // caller reports the stray brace
			}
			p.pos++
			return nil
		case lineOpen:
			p.pos++
			if _, err := p.parseBlock(frame, ir.NodeBlock, nil); err != nil {
				return err
			}
		case lineConstruct:
			if err := p.parseLine(frame, rest, openAfter); err != nil {
				return err
			}
		}
	}
	if frame != nil {
		return p.errAt("unclosed block")
	}
	return nil
}

// parseBlock parses a block body after its opening delimiter has been
// consumed. retag re-types the resulting block node when a marker
// introduced it; mods become the block node's modifiers.
func (p *parser) parseBlock(outer *blockFrame, retag ir.NodeType, mods []ir.Modifier) (*ir.Node, error) {
	openLine := p.origLine()
	frame := &blockFrame{}
	start := len(p.doc.Nodes)

	if err := p.parseBody(frame); err != nil {
		return nil, err
	}

	// Direct children: everything the body appended that a nested block
	// has not already claimed.
	var direct []string
	for _, n := range p.doc.Nodes[start:] {
		if !p.claimed[n.ID] {
			direct = append(direct, n.ID)
		}
	}
	for _, id := range direct {
		p.claimed[id] = true
	}

	id := ir.BlockID(direct, mods)
	if existing, ok := p.nodeByID[id]; ok {
		p.anchorTo(outer, existing)
		return existing, nil
	}
	node := &ir.Node{
		ID:        id,
		Type:      retag,
		Content:   "",
		Children:  append([]string{}, direct...),
		Modifiers: mods,
		Provenance: ir.Provenance{
			File:      p.file,
			Line:      openLine,
			Timestamp: p.stamp,
		},
	}
	p.doc.Nodes = append(p.doc.Nodes, node)
	p.nodeByID[id] = node
	p.anchorTo(outer, node)
	return node, nil
}

// parseLine handles one construct line inside frame (nil at top level).
func (p *parser) parseLine(frame *blockFrame, text string, openAfter bool) error {
	line := p.origLine()
	c, err := parseConstruct(text)
	if err != nil {
		return p.errAt(err.Error())
	}
	p.pos++

	if c.stateOnly {
		p.addState(c.state, line)
		return nil
	}

	if c.markerOnly {
		retag := c.marker
		if retag == ir.NodeStatement {
			retag = ir.NodeBlock
		}
		if openAfter || p.peekOpen() {
			if !openAfter {
				p.pos++ // consume the `{` line
			}
			if _, err := p.parseBlock(frame, retag, c.leadMods); err != nil {
				return err
			}
		} else {
			p.addNode(c.marker, "", c.leadMods, line, frame)
		}
		if c.state != nil {
			p.addState(c.state, line)
		}
		return nil
	}

	var current *ir.Node
	next := 0
	if c.leadOp {
		if frame == nil || frame.anchor == nil {
			// No implicit source to chain from: prose fallthrough,
			// flagged later by the linter.
			p.addNode(ir.NodeStatement, c.raw, nil, line, frame)
			if c.state != nil {
				p.addState(c.state, line)
			}
			return nil
		}
		current = frame.anchor
	} else {
		seg := c.operands[0]
		current = p.addNode(seg.typ, seg.content, seg.mods, line, frame)
		next = 1
	}

	for k, op := range c.ops {
		seg := c.operands[next+k]
		target := p.addNode(seg.typ, seg.content, seg.mods, line, frame)
		p.addRel(op.typ, current.ID, target.ID, op.axis, line)
		current = target
	}

	if c.state != nil {
		p.addState(c.state, line)
	}
	if openAfter {
		if _, err := p.parseBlock(frame, ir.NodeBlock, nil); err != nil {
			return err
		}
	}
	return nil
}

// peekOpen reports whether the next non-blank line opens a block.
func (p *parser) peekOpen() bool {
	for i := p.pos; i < len(p.lines); i++ {
		kind, _, _ := classify(p.lines[i])
		if kind == lineBlank {
			continue
		}
		return kind == lineOpen
	}
	return false
}

func (p *parser) anchorTo(frame *blockFrame, n *ir.Node) {
	if frame != nil && frame.anchor == nil {
		frame.anchor = n
	}
}

// addNode creates or reuses a content-addressed node. Identical
// (type, content, modifiers) triples collapse to the first record.
func (p *parser) addNode(typ ir.NodeType, content string, mods []ir.Modifier, line int, frame *blockFrame) *ir.Node {
	id := ir.NodeID(typ, content, mods)
	if n, ok := p.nodeByID[id]; ok {
		p.anchorTo(frame, n)
		return n
	}
	n := &ir.Node{
		ID:        id,
		Type:      typ,
		Content:   content,
		Children:  []string{},
		Modifiers: mods,
		Provenance: ir.Provenance{
			File:      p.file,
			Line:      line,
			Timestamp: p.stamp,
		},
	}
	p.doc.Nodes = append(p.doc.Nodes, n)
	p.nodeByID[id] = n
	p.anchorTo(frame, n)
	return n
}

func (p *parser) addRel(typ ir.RelType, source, target string, axis *string, line int) *ir.Relationship {
	id := ir.RelationshipID(typ, source, target, axis)
	if r, ok := p.relByID[id]; ok {
		return r
	}
	r := &ir.Relationship{
		ID:        id,
		Type:      typ,
		Source:    source,
		Target:    target,
		AxisLabel: axis,
		Provenance: ir.Provenance{
			File:      p.file,
			Line:      line,
			Timestamp: p.stamp,
		},
	}
	p.doc.Relationships = append(p.doc.Relationships, r)
	p.relByID[id] = r
	return r
}

func (p *parser) addState(st *stateLit, line int) {
	p.doc.States = append(p.doc.States, &ir.State{
		Type:   st.typ,
		Fields: st.fields,
		NodeID: "",
		Provenance: ir.Provenance{
			File:      p.file,
			Line:      line,
			Timestamp: p.stamp,
		},
	})
}
