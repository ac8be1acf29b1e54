package rdf

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `# a solution
<http://example.org/s1> <http://purl.org/dc/terms/title> "  Interop Toolkit  "@en .

<http://example.org/s1> <http://purl.org/adms/status> <http://example.org/status/completed> .
_:b0 <http://purl.org/dc/terms/description> "ends with a dot." .
`

func TestParseNTriples(t *testing.T) {
	t.Parallel()

	triples, err := ParseNTriples(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, triples, 3)

	assert.Equal(t, Triple{
		Subject:   "http://example.org/s1",
		Predicate: "http://purl.org/dc/terms/title",
		Object:    `"  Interop Toolkit  "@en`,
	}, triples[0])
	assert.True(t, triples[0].IsLiteral())
	assert.Equal(t, "http://example.org/status/completed", triples[1].Object)
	assert.False(t, triples[1].IsLiteral())
	assert.Equal(t, "_:b0", triples[2].Subject)
	assert.Equal(t, `"ends with a dot."`, triples[2].Object)
}

func TestParseNTriples_Errors(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"missing dot":      `<http://a> <http://b> <http://c>`,
		"bare subject":     `http://a <http://b> <http://c> .`,
		"unterminated iri": `<http://a <http://b> <http://c> .`,
		"missing object":   `<http://a> <http://b> .`,
		"bare object":      `<http://a> <http://b> c .`,
		"trailing garbage": `<http://a> <http://b> <http://c> <http://d> .`,
	}

	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := ParseNTriples(strings.NewReader(input))
			require.ErrorIs(t, err, ErrSyntax)
			assert.Contains(t, err.Error(), "line 1")
		})
	}
}

func TestWriteNTriples_RoundTrip(t *testing.T) {
	t.Parallel()

	triples, err := ParseNTriples(strings.NewReader(sample))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteNTriples(&buf, triples))

	again, err := ParseNTriples(&buf)
	require.NoError(t, err)
	assert.Equal(t, triples, again)
}

func TestParseNTriples_TrailingComments(t *testing.T) {
	t.Parallel()

	input := "<http://s> <http://p> <http://o> . # note\n" +
		"<http://s> <http://p#frag> \"a # not a comment\"@en .# note\n" +
		"<http://s> <http://p> \"say \\\"hi\\\" # still literal\" . # \"quoted\" note\n"

	triples, err := ParseNTriples(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, triples, 3)
	assert.Equal(t, "http://o", triples[0].Object)
	assert.Equal(t, "http://p#frag", triples[1].Predicate)
	assert.Equal(t, `"a # not a comment"@en`, triples[1].Object)
	assert.Equal(t, `"say \"hi\" # still literal"`, triples[2].Object)
}

func TestParseCSV_EscapesLiterals(t *testing.T) {
	t.Parallel()

	input := "http://s,http://p,C:\\data\n" +
		"http://s,http://p,\"say \"\"hi\"\"\"\n" +
		"http://s,http://p,\"two\nlines\"\n"

	triples, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, triples, 3)
	assert.Equal(t, `"C:\\data"`, triples[0].Object)
	assert.Equal(t, `"say \"hi\""`, triples[1].Object)
	assert.Equal(t, `"two\nlines"`, triples[2].Object)

	var buf bytes.Buffer
	require.NoError(t, WriteNTriples(&buf, triples))

	again, err := ParseNTriples(&buf)
	require.NoError(t, err)
	assert.Equal(t, triples, again)
}

func TestParseCSV(t *testing.T) {
	t.Parallel()

	input := "subject,predicate,object\n" +
		"http://example.org/s1,http://purl.org/dc/terms/title,Interop Toolkit\n" +
		"http://example.org/s1,http://purl.org/adms/status,http://example.org/status/completed\n"

	triples, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, triples, 2)
	assert.Equal(t, `"Interop Toolkit"`, triples[0].Object)
	assert.Equal(t, "http://example.org/status/completed", triples[1].Object)

	_, err = ParseCSV(strings.NewReader("a,b\n"))
	require.ErrorIs(t, err, ErrSyntax)
}

func TestFromContext(t *testing.T) {
	t.Parallel()

	triple := Triple{Subject: "http://s", Predicate: "http://p", Object: `"o"`}

	t.Run("missing", func(t *testing.T) {
		t.Parallel()

		got, ok, err := FromContext(map[string]any{})
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, got)
	})

	t.Run("in process", func(t *testing.T) {
		t.Parallel()

		data := map[string]any{}
		ToContext(data, []Triple{triple})

		got, ok, err := FromContext(data)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []Triple{triple}, got)
	})

	t.Run("after json round trip", func(t *testing.T) {
		t.Parallel()

		encoded, err := json.Marshal(map[string]any{ContextKey: []Triple{triple}})
		require.NoError(t, err)

		var data map[string]any
		require.NoError(t, json.Unmarshal(encoded, &data))

		got, ok, err := FromContext(data)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []Triple{triple}, got)
	})

	t.Run("invalid", func(t *testing.T) {
		t.Parallel()

		_, ok, err := FromContext(map[string]any{ContextKey: "nope"})
		assert.True(t, ok)
		require.ErrorIs(t, err, ErrInvalidTriples)

		_, _, err = FromContext(map[string]any{ContextKey: []any{map[string]any{"subject": "x"}}})
		require.ErrorIs(t, err, ErrInvalidTriples)
	})
}

func TestSplitLiteral(t *testing.T) {
	t.Parallel()

	value, suffix, ok := SplitLiteral(`"hello"@en`)
	assert.True(t, ok)
	assert.Equal(t, "hello", value)
	assert.Equal(t, "@en", suffix)

	_, _, ok = SplitLiteral("http://example.org")
	assert.False(t, ok)
}
