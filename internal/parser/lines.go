package parser

import (
	"strings"

	"strand/loom/internal/ir"
)

// markerTypes maps line-start markers to the node type they introduce.
var markerTypes = map[string]ir.NodeType{
	"?":  ir.NodeQuestion,
	"||": ir.NodeAlternative,
	"..": ir.NodeThought,
	">>": ir.NodeAction,
	"!!": ir.NodeBlocker,
	"**": ir.NodeInsight,
	"<<": ir.NodeCompletion,
	"::": ir.NodeDecision,
	"~~": ir.NodeExploring,
	"##": ir.NodeParking,
}

// opTypes maps relationship operators to edge types. Tokens are
// whitespace-delimited, so `<-` and `<->` never collide.
var opTypes = map[string]ir.RelType{
	"->":  ir.RelCauses,
	"<-":  ir.RelDerivesFrom,
	"<->": ir.RelBidirectional,
	"=>":  ir.RelTemporal,
	"><":  ir.RelTension,
	"==":  ir.RelEquivalent,
	"<>":  ir.RelDifferent,
	"||=": ir.RelAlternative,
	"||-": ir.RelAlternativeWorse,
	"||+": ir.RelAlternativeBetter,
}

// modTokens maps standalone prefix tokens to modifiers.
var modTokens = map[string]ir.Modifier{
	"!":  ir.ModUrgent,
	"++": ir.ModStrongPositive,
	"*":  ir.ModHighConfidence,
	"~":  ir.ModLowConfidence,
}

var stateNames = map[string]ir.StateType{
	"decided":   ir.StateDecided,
	"exploring": ir.StateExploring,
	"blocked":   ir.StateBlocked,
	"parking":   ir.StateParking,
}

type lineKind int

const (
	lineBlank lineKind = iota
	lineOpen
	lineClose
	lineConstruct
)

// classify buckets a rewritten line. A construct line may end with an
// opening brace (explicit-block source), reported via openAfter.
func classify(line string) (kind lineKind, rest string, openAfter bool) {
	t := strings.TrimSpace(line)
	switch t {
	case "":
		return lineBlank, "", false
	case "{":
		return lineOpen, "", false
	case "}":
		return lineClose, "", false
	}
	if strings.HasSuffix(t, "{") {
		return lineConstruct, strings.TrimSpace(t[:len(t)-1]), true
	}
	return lineConstruct, t, false
}

// segment is one operand of a chain: its node type (from a marker, default
// statement), accumulated modifier prefixes, and trimmed content.
type segment struct {
	typ     ir.NodeType
	mods    []ir.Modifier
	content string
}

// opUse is one relationship operator occurrence, with its tension axis if
// the operator carried one.
type opUse struct {
	typ  ir.RelType
	axis *string
}

// stateLit is a parsed state marker before linking.
type stateLit struct {
	typ    ir.StateType
	fields map[string]string
}

// construct is the tokenized form of one content line.
// Invariant: len(operands) == len(ops)+1, except leadOp lines where
// len(operands) == len(ops), and marker-only lines where both are empty.
type construct struct {
	marker    ir.NodeType
	leadOp    bool
	operands  []segment
	ops       []opUse
	state     *stateLit
	stateOnly bool
	// markerOnly: a marker (or bare modifiers) with no operands; the
	// following block, if any, is re-tagged to the marker type.
	markerOnly bool
	leadMods   []ir.Modifier
	raw        string
}

// lineError is a grammar failure local to one line; the caller converts it
// into a positioned ParseError.
type lineError struct{ msg string }

func (e *lineError) Error() string { return e.msg }

// parseConstruct tokenizes one content line. A nil construct with a nil
// error means the text did not match any production and falls through to
// prose handling by the caller.
func parseConstruct(text string) (*construct, error) {
	c := &construct{marker: ir.NodeStatement, raw: text}

	// A state marker is either the entire line or its tail.
	if st, ok := parseStateLit(text); ok {
		c.state = st
		c.stateOnly = true
		return c, nil
	}
	if rest, st := splitTrailingState(text); st != nil {
		c.state = st
		text = rest
		// raw feeds the prose fallthrough; the state text must not be
		// duplicated into node content once it is recorded separately.
		c.raw = rest
	}

	toks := strings.Fields(text)
	i := 0

	readMods := func() []ir.Modifier {
		var mods []ir.Modifier
		for i < len(toks) {
			m, ok := modTokens[toks[i]]
			if !ok {
				break
			}
			mods = append(mods, m)
			i++
		}
		return mods
	}
	// readContent accumulates tokens up to the next operator.
	readContent := func() string {
		start := i
		for i < len(toks) {
			if _, ok := opTypes[toks[i]]; ok {
				break
			}
			i++
		}
		return strings.Join(toks[start:i], " ")
	}
	readOp := func() (opUse, error) {
		u := opUse{typ: opTypes[toks[i]]}
		i++
		if u.typ == ir.RelTension && i < len(toks) && strings.HasPrefix(toks[i], "[") {
			axis, n, ok := readBracketed(toks[i:])
			if !ok {
				return u, &lineError{msg: "unclosed tension axis label"}
			}
			u.axis = &axis
			i += n
		}
		return u, nil
	}

	c.leadMods = readMods()
	if i < len(toks) {
		if mt, ok := markerTypes[toks[i]]; ok {
			c.marker = mt
			i++
		}
	}

	if i >= len(toks) {
		// Marker or bare modifiers and nothing else.
		c.markerOnly = true
		return c, nil
	}

	if _, ok := opTypes[toks[i]]; ok && c.marker == ir.NodeStatement {
		c.leadOp = true
	} else {
		content := readContent()
		c.operands = append(c.operands, segment{typ: c.marker, mods: c.leadMods, content: content})
	}

	for i < len(toks) {
		u, err := readOp()
		if err != nil {
			return nil, err
		}
		c.ops = append(c.ops, u)
		mods := readMods()
		typ := ir.NodeStatement
		if i < len(toks) {
			if mt, ok := markerTypes[toks[i]]; ok {
				typ = mt
				i++
			}
		}
		content := readContent()
		if content == "" {
			return nil, &lineError{msg: "relationship operator has no right operand"}
		}
		c.operands = append(c.operands, segment{typ: typ, mods: mods, content: content})
	}

	return c, nil
}

// readBracketed consumes `[...]` spanning one or more whitespace tokens and
// returns the inner text.
func readBracketed(toks []string) (inner string, consumed int, ok bool) {
	for n := 1; n <= len(toks); n++ {
		if strings.HasSuffix(toks[n-1], "]") {
			joined := strings.Join(toks[:n], " ")
			return strings.TrimSpace(joined[1 : len(joined)-1]), n, true
		}
	}
	return "", 0, false
}

// splitTrailingState detects a state marker at the end of a content line and
// splits it off. Candidate starts are scanned left to right so quoted
// brackets inside field values do not confuse the split.
func splitTrailingState(text string) (string, *stateLit) {
	if !strings.HasSuffix(text, "]") {
		return text, nil
	}
	for i := 0; i < len(text); i++ {
		if text[i] != '[' {
			continue
		}
		if i > 0 && text[i-1] != ' ' {
			continue
		}
		if st, ok := parseStateLit(text[i:]); ok {
			return strings.TrimSpace(text[:i]), st
		}
	}
	return text, nil
}

// parseStateLit parses `[name]` or `[name(key: value, ...)]`. An unknown
// state name or malformed field list fails the production; the caller falls
// through to prose and the linter reports it.
func parseStateLit(text string) (*stateLit, bool) {
	if len(text) < 2 || text[0] != '[' || text[len(text)-1] != ']' {
		return nil, false
	}
	inner := text[1 : len(text)-1]
	name := inner
	rest := ""
	hasFields := false
	if p := strings.Index(inner, "("); p >= 0 {
		if !strings.HasSuffix(inner, ")") {
			return nil, false
		}
		name = inner[:p]
		rest = inner[p+1 : len(inner)-1]
		hasFields = true
	}
	st, ok := stateNames[strings.TrimSpace(name)]
	if !ok {
		return nil, false
	}
	fields := map[string]string{}
	if hasFields {
		fields, ok = parseFieldList(rest)
		if !ok {
			return nil, false
		}
	}
	return &stateLit{typ: st, fields: fields}, true
}

// parseFieldList parses order-independent `key: value` pairs. Values are
// quoted strings or bare words.
func parseFieldList(s string) (map[string]string, bool) {
	fields := make(map[string]string)
	i := 0
	skip := func() {
		for i < len(s) && (s[i] == ' ' || s[i] == ',') {
			i++
		}
	}
	for {
		skip()
		if i >= len(s) {
			return fields, true
		}
		colon := strings.IndexByte(s[i:], ':')
		if colon < 0 {
			return nil, false
		}
		key := strings.TrimSpace(s[i : i+colon])
		if key == "" {
			return nil, false
		}
		i += colon + 1
		for i < len(s) && s[i] == ' ' {
			i++
		}
		var val string
		if i < len(s) && s[i] == '"' {
			end := strings.IndexByte(s[i+1:], '"')
			if end < 0 {
				return nil, false
			}
			val = s[i+1 : i+1+end]
			i += end + 2
		} else {
			end := strings.IndexByte(s[i:], ',')
			if end < 0 {
				end = len(s) - i
			}
			val = strings.TrimSpace(s[i : i+end])
			i += end
		}
		fields[key] = val
	}
}
