package rdf

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

var ErrSyntax = errors.New("syntax error")

var literalEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`)

// ParseNTriples reads one statement per line. Blank lines and comments are
// skipped. Only the line-based subset shared by N-Triples and simple Turtle
// documents is understood.
func ParseNTriples(r io.Reader) ([]Triple, error) {
	triples := make([]Triple, 0)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++

		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") || strings.HasPrefix(text, "@prefix") {
			continue
		}

		t, err := parseStatement(text)
		if err != nil {
			return nil, fmt.Errorf("%w at line %d: %w", ErrSyntax, line, err)
		}

		triples = append(triples, t)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return triples, nil
}

func parseStatement(text string) (Triple, error) {
	text = stripComment(text)
	if !strings.HasSuffix(text, ".") {
		return Triple{}, errors.New("statement must end with '.'")
	}

	text = strings.TrimSpace(strings.TrimSuffix(text, "."))

	subject, rest, err := nextIRI(text)
	if err != nil {
		return Triple{}, fmt.Errorf("subject: %w", err)
	}

	predicate, rest, err := nextIRI(rest)
	if err != nil {
		return Triple{}, fmt.Errorf("predicate: %w", err)
	}

	object := strings.TrimSpace(rest)
	if object == "" {
		return Triple{}, errors.New("missing object")
	}

	if strings.HasPrefix(object, "<") {
		iri, tail, err := nextIRI(object)
		if err != nil {
			return Triple{}, fmt.Errorf("object: %w", err)
		}

		if strings.TrimSpace(tail) != "" {
			return Triple{}, errors.New("unexpected content after object")
		}

		object = iri
	} else if _, _, ok := SplitLiteral(object); !ok && !strings.HasPrefix(object, "_:") {
		return Triple{}, errors.New("object must be an IRI, literal or blank node")
	}

	return Triple{Subject: subject, Predicate: predicate, Object: object}, nil
}

// stripComment drops a trailing '#' comment that sits outside IRIs and
// literals.
func stripComment(text string) string {
	inIRI, inLiteral, escaped := false, false, false

	for i, r := range text {
		switch {
		case escaped:
			escaped = false
		case inLiteral:
			switch r {
			case '\\':
				escaped = true
			case '"':
				inLiteral = false
			}
		case inIRI:
			inIRI = r != '>'
		case r == '<':
			inIRI = true
		case r == '"':
			inLiteral = true
		case r == '#':
			return strings.TrimSpace(text[:i])
		}
	}

	return text
}

// nextIRI consumes a leading blank node or <iri> and returns the bare value.
func nextIRI(text string) (string, string, error) {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "_:") {
		end := strings.IndexAny(text, " \t")
		if end < 0 {
			return "", "", errors.New("unterminated blank node")
		}

		return text[:end], text[end:], nil
	}

	if !strings.HasPrefix(text, "<") {
		return "", "", errors.New("expected '<'")
	}

	end := strings.Index(text, ">")
	if end < 0 {
		return "", "", errors.New("unterminated IRI")
	}

	return text[1:end], text[end+1:], nil
}

// WriteNTriples serialises triples, one statement per line.
func WriteNTriples(w io.Writer, triples []Triple) error {
	bw := bufio.NewWriter(w)

	for _, t := range triples {
		_, err := fmt.Fprintf(bw, "%s %s %s .\n", formatTerm(t.Subject), formatTerm(t.Predicate), formatObject(t.Object))
		if err != nil {
			return err
		}
	}

	return bw.Flush()
}

func formatTerm(term string) string {
	if strings.HasPrefix(term, "_:") {
		return term
	}

	return "<" + term + ">"
}

func formatObject(object string) string {
	if strings.HasPrefix(object, `"`) {
		return object
	}

	return formatTerm(object)
}

// ParseCSV reads subject,predicate,object rows. A header row whose first cell
// is "subject" is skipped. Objects that are not absolute IRIs become plain
// literals.
func ParseCSV(r io.Reader) ([]Triple, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 3
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSyntax, err)
	}

	triples := make([]Triple, 0, len(records))

	for i, record := range records {
		if i == 0 && strings.EqualFold(record[0], "subject") {
			continue
		}

		object := record[2]
		if !strings.Contains(object, "://") {
			object = `"` + literalEscaper.Replace(object) + `"`
		}

		triples = append(triples, Triple{Subject: record[0], Predicate: record[1], Object: object})
	}

	return triples, nil
}
