package catalog

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/koustreak/calcat/internal/errs"
)

// The line format, one directive per line:
//
//	TABLE <name> [DISPLAY=<s>] [PLURAL=<s>] [DOC=<s>]
//	FIELD <name> <kind> [COLUMN=<col>] [LEN=<n>] [NULL] [BLANK] [INDEXED] [CHOICES=<k=v,...>] [VERBOSE=<s>] [DOC=<s>]
//	KEY <none | name | (name,name,...)>
//	ORDER <name ASC|DESC, ...>
//	SOURCE <document-id> <start> [<end>]
//
// Values holding whitespace, commas, equals signs or quotes are written as
// Go string literals. Blank lines and lines starting with # are ignored.

// Encode writes tables in the line format, separated by blank lines.
func Encode(w io.Writer, tables ...TableSchema) error {
	bw := bufio.NewWriter(w)
	for i, t := range tables {
		if i > 0 {
			bw.WriteString("\n")
		}
		writeTable(bw, t)
	}
	return bw.Flush()
}

func writeTable(w *bufio.Writer, t TableSchema) {
	w.WriteString("TABLE " + quote(t.Name))
	if t.DisplayName != "" && t.DisplayName != t.Name {
		w.WriteString(" DISPLAY=" + quote(t.DisplayName))
	}
	display := t.DisplayName
	if display == "" {
		display = t.Name
	}
	if t.DisplayNamePlural != "" && t.DisplayNamePlural != display {
		w.WriteString(" PLURAL=" + quote(t.DisplayNamePlural))
	}
	if t.Documentation != "" {
		w.WriteString(" DOC=" + quote(t.Documentation))
	}
	w.WriteString("\n")

	for _, f := range t.Fields {
		w.WriteString(EncodeField(f))
		w.WriteString("\n")
	}

	w.WriteString("KEY " + encodeKey(t.UniqueKey) + "\n")

	if len(t.DefaultOrdering) > 0 {
		terms := make([]string, len(t.DefaultOrdering))
		for i, o := range t.DefaultOrdering {
			terms[i] = quote(o.Field) + " " + o.Direction.String()
		}
		w.WriteString("ORDER " + strings.Join(terms, ", ") + "\n")
	}

	for _, p := range t.Provenance {
		fmt.Fprintf(w, "SOURCE %s %d", quote(p.DocumentID), p.StartPage)
		if p.EndPage != 0 {
			fmt.Fprintf(w, " %d", p.EndPage)
		}
		w.WriteString("\n")
	}
}

// EncodeField renders a single FIELD line without the trailing newline.
func EncodeField(f FieldSpec) string {
	parts := []string{"FIELD", quote(f.Name), f.Kind.String()}
	if f.Column != "" && f.Column != strings.ToUpper(f.Name) {
		parts = append(parts, "COLUMN="+quote(f.Column))
	}
	if f.MaxLength != 0 {
		parts = append(parts, "LEN="+strconv.Itoa(f.MaxLength))
	}
	if f.Nullable {
		parts = append(parts, "NULL")
	}
	if f.Blankable {
		parts = append(parts, "BLANK")
	}
	if f.Indexed {
		parts = append(parts, "INDEXED")
	}
	if len(f.Choices) > 0 {
		pairs := make([]string, len(f.Choices))
		for i, c := range f.Choices {
			pairs[i] = encodeChoiceValue(c.Value) + "=" + quote(c.Label)
		}
		parts = append(parts, "CHOICES="+strings.Join(pairs, ","))
	}
	if f.VerboseName != "" {
		parts = append(parts, "VERBOSE="+quote(f.VerboseName))
	}
	if f.Documentation != "" {
		parts = append(parts, "DOC="+quote(f.Documentation))
	}
	return strings.Join(parts, " ")
}

func encodeKey(k UniqueKey) string {
	switch k.Shape() {
	case KeyNone:
		return "none"
	case KeySingle:
		return quote(k.fields[0])
	}
	names := make([]string, len(k.fields))
	for i, n := range k.fields {
		names[i] = quote(n)
	}
	return "(" + strings.Join(names, ",") + ")"
}

func encodeChoiceValue(v ChoiceValue) string {
	if v.IsNull() {
		return "NULL"
	}
	return quote(v.raw)
}

// quote returns s unchanged when it survives tokenizing, otherwise as a Go
// string literal.
func quote(s string) string {
	if s == "" || s == "NULL" || s == "none" || strings.ContainsAny(s, " \t\r\n,=\"()#\\") || !strconv.CanBackquote(s) {
		return strconv.Quote(s)
	}
	return s
}

// Decode parses the line format. Tables are returned in file order and are
// not validated; pass them to Catalog.Register for that.
func Decode(r io.Reader) ([]TableSchema, error) {
	var (
		tables []TableSchema
		cur    *TableSchema
		keySet bool
		lineNo int
	)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fail := func(format string, args ...any) error {
			return errs.Newf(errs.ErrKindInvalidInput, "line %d: %s", lineNo, fmt.Sprintf(format, args...))
		}

		directive, rest, _ := strings.Cut(line, " ")
		rest = strings.TrimSpace(rest)

		if directive != "TABLE" && cur == nil {
			return nil, fail("%s before TABLE", directive)
		}

		switch directive {
		case "TABLE":
			t, err := parseTable(rest)
			if err != nil {
				return nil, fail("%v", err)
			}
			tables = append(tables, t)
			cur = &tables[len(tables)-1]
			keySet = false

		case "FIELD":
			f, err := parseField(rest)
			if err != nil {
				return nil, fail("%v", err)
			}
			cur.Fields = append(cur.Fields, f)

		case "KEY":
			if keySet {
				return nil, fail("duplicate KEY for table %s", cur.Name)
			}
			k, err := parseKey(rest)
			if err != nil {
				return nil, fail("%v", err)
			}
			cur.UniqueKey = k
			keySet = true

		case "ORDER":
			o, err := parseOrder(rest)
			if err != nil {
				return nil, fail("%v", err)
			}
			cur.DefaultOrdering = append(cur.DefaultOrdering, o...)

		case "SOURCE":
			p, err := parseSource(rest)
			if err != nil {
				return nil, fail("%v", err)
			}
			cur.Provenance = append(cur.Provenance, p)

		default:
			return nil, fail("unknown directive %q", directive)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "read catalog text", err)
	}
	return tables, nil
}

func parseTable(rest string) (TableSchema, error) {
	toks, err := tokenize(rest)
	if err != nil {
		return TableSchema{}, err
	}
	if len(toks) == 0 {
		return TableSchema{}, fmt.Errorf("TABLE needs a name")
	}
	name, err := unquote(toks[0])
	if err != nil {
		return TableSchema{}, err
	}
	t := TableSchema{Name: name}

	for _, tok := range toks[1:] {
		key, val, ok := cutOutsideQuotes(tok, '=')
		if !ok {
			return TableSchema{}, fmt.Errorf("unexpected TABLE attribute %q", tok)
		}
		s, err := unquote(val)
		if err != nil {
			return TableSchema{}, err
		}
		switch key {
		case "DISPLAY":
			t.DisplayName = s
		case "PLURAL":
			t.DisplayNamePlural = s
		case "DOC":
			t.Documentation = s
		default:
			return TableSchema{}, fmt.Errorf("unknown TABLE attribute %q", key)
		}
	}
	return t, nil
}

func parseField(rest string) (FieldSpec, error) {
	toks, err := tokenize(rest)
	if err != nil {
		return FieldSpec{}, err
	}
	if len(toks) < 2 {
		return FieldSpec{}, fmt.Errorf("FIELD needs a name and a kind")
	}
	name, err := unquote(toks[0])
	if err != nil {
		return FieldSpec{}, err
	}
	kind, ok := ParseFieldKind(toks[1])
	if !ok {
		return FieldSpec{}, fmt.Errorf("unknown kind %q for field %s", toks[1], name)
	}
	f := FieldSpec{Name: name, Kind: kind}

	for _, tok := range toks[2:] {
		switch tok {
		case "NULL":
			f.Nullable = true
			continue
		case "BLANK":
			f.Blankable = true
			continue
		case "INDEXED":
			f.Indexed = true
			continue
		}

		key, val, ok := cutOutsideQuotes(tok, '=')
		if !ok {
			return FieldSpec{}, fmt.Errorf("unexpected FIELD attribute %q", tok)
		}
		switch key {
		case "LEN":
			n, err := strconv.Atoi(val)
			if err != nil {
				return FieldSpec{}, fmt.Errorf("bad LEN %q", val)
			}
			f.MaxLength = n
		case "CHOICES":
			cs, err := parseChoices(kind, val)
			if err != nil {
				return FieldSpec{}, err
			}
			f.Choices = cs
		case "COLUMN", "VERBOSE", "DOC":
			s, err := unquote(val)
			if err != nil {
				return FieldSpec{}, err
			}
			switch key {
			case "COLUMN":
				f.Column = s
			case "VERBOSE":
				f.VerboseName = s
			default:
				f.Documentation = s
			}
		default:
			return FieldSpec{}, fmt.Errorf("unknown FIELD attribute %q", key)
		}
	}
	return f, nil
}

func parseChoices(kind FieldKind, s string) (Choices, error) {
	var cs Choices
	for _, pair := range splitOutsideQuotes(s, ',') {
		rawTok, labelTok, ok := cutOutsideQuotes(pair, '=')
		if !ok {
			return nil, fmt.Errorf("choice %q lacks a label", pair)
		}
		label, err := unquote(labelTok)
		if err != nil {
			return nil, err
		}

		var v ChoiceValue
		switch {
		case rawTok == "NULL":
			v = NullChoice()
		case kind == KindInteger:
			n, err := strconv.ParseInt(rawTok, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("choice %q is not an integer", rawTok)
			}
			v = IntChoice(n)
		default:
			raw, err := unquote(rawTok)
			if err != nil {
				return nil, err
			}
			v = TextChoice(raw)
		}
		cs = append(cs, Choice{Value: v, Label: label})
	}
	return cs, nil
}

func parseKey(rest string) (UniqueKey, error) {
	if rest == "" || rest == "none" {
		return NoKey(), nil
	}

	if strings.HasPrefix(rest, "(") {
		if !strings.HasSuffix(rest, ")") {
			return UniqueKey{}, fmt.Errorf("unterminated key tuple %q", rest)
		}
		var names []string
		for _, tok := range splitOutsideQuotes(rest[1:len(rest)-1], ',') {
			tok = strings.TrimSpace(tok)
			if tok == "" {
				return UniqueKey{}, fmt.Errorf("empty name in key tuple %q", rest)
			}
			name, err := unquote(tok)
			if err != nil {
				return UniqueKey{}, err
			}
			names = append(names, name)
		}
		return CompositeKey(names...), nil
	}

	toks, err := tokenize(rest)
	if err != nil {
		return UniqueKey{}, err
	}
	if len(toks) != 1 || len(splitOutsideQuotes(toks[0], ',')) > 1 {
		return UniqueKey{}, fmt.Errorf("bad key %q", rest)
	}
	name, err := unquote(toks[0])
	if err != nil {
		return UniqueKey{}, err
	}
	return SingleKey(name), nil
}

func parseOrder(rest string) ([]OrderBy, error) {
	var out []OrderBy
	for _, term := range splitOutsideQuotes(rest, ',') {
		toks, err := tokenize(term)
		if err != nil {
			return nil, err
		}
		if len(toks) < 1 || len(toks) > 2 {
			return nil, fmt.Errorf("bad ordering term %q", strings.TrimSpace(term))
		}
		name, err := unquote(toks[0])
		if err != nil {
			return nil, err
		}
		o := OrderBy{Field: name, Direction: Asc}
		if len(toks) == 2 {
			switch strings.ToUpper(toks[1]) {
			case "ASC":
			case "DESC":
				o.Direction = Desc
			default:
				return nil, fmt.Errorf("bad direction %q", toks[1])
			}
		}
		out = append(out, o)
	}
	return out, nil
}

func parseSource(rest string) (Provenance, error) {
	toks, err := tokenize(rest)
	if err != nil {
		return Provenance{}, err
	}
	if len(toks) < 2 || len(toks) > 3 {
		return Provenance{}, fmt.Errorf("SOURCE needs a document id and one or two pages")
	}
	id, err := unquote(toks[0])
	if err != nil {
		return Provenance{}, err
	}
	p := Provenance{DocumentID: id}
	if p.StartPage, err = strconv.Atoi(toks[1]); err != nil {
		return Provenance{}, fmt.Errorf("bad start page %q", toks[1])
	}
	if len(toks) == 3 {
		if p.EndPage, err = strconv.Atoi(toks[2]); err != nil {
			return Provenance{}, fmt.Errorf("bad end page %q", toks[2])
		}
	}
	return p, nil
}

// tokenize splits on whitespace outside double-quoted literals.
func tokenize(s string) ([]string, error) {
	var (
		toks    []string
		cur     strings.Builder
		inQuote bool
		escaped bool
	)
	for _, r := range s {
		switch {
		case escaped:
			escaped = false
		case inQuote && r == '\\':
			escaped = true
		case r == '"':
			inQuote = !inQuote
		case !inQuote && (r == ' ' || r == '\t'):
			if cur.Len() > 0 {
				toks = append(toks, cur.String())
				cur.Reset()
			}
			continue
		}
		cur.WriteRune(r)
	}
	if inQuote {
		return nil, fmt.Errorf("unterminated quote in %q", s)
	}
	if cur.Len() > 0 {
		toks = append(toks, cur.String())
	}
	return toks, nil
}

// splitOutsideQuotes splits s on sep where sep is not inside a literal.
func splitOutsideQuotes(s string, sep rune) []string {
	var (
		parts   []string
		start   int
		inQuote bool
		escaped bool
	)
	for i, r := range s {
		switch {
		case escaped:
			escaped = false
		case inQuote && r == '\\':
			escaped = true
		case r == '"':
			inQuote = !inQuote
		case !inQuote && r == sep:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}

// cutOutsideQuotes cuts s around the first sep outside a literal.
func cutOutsideQuotes(s string, sep rune) (before, after string, found bool) {
	parts := splitOutsideQuotes(s, sep)
	if len(parts) < 2 {
		return s, "", false
	}
	return parts[0], s[len(parts[0])+1:], true
}

func unquote(s string) (string, error) {
	if strings.HasPrefix(s, `"`) {
		u, err := strconv.Unquote(s)
		if err != nil {
			return "", fmt.Errorf("bad literal %s", s)
		}
		return u, nil
	}
	return s, nil
}
