package query_test

import (
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/donaldgifford/constructorio-go/internal/query"
)

func TestEscape(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: "corn", want: "corn"},
		{name: "space", input: "Sold Out", want: "Sold%20Out"},
		{name: "percent", input: "2% cheese", want: "2%25%20cheese"},
		{name: "brackets", input: "filters[Brand]", want: "filters%5BBrand%5D"},
		{name: "unreserved kept", input: "a-b_c.d~e", want: "a-b_c.d~e"},
		{name: "plus", input: "a+b", want: "a%2Bb"},
		{name: "slash", input: "a/b", want: "a%2Fb"},
		{name: "reserved", input: "&=?#", want: "%26%3D%3F%23"},
		{name: "utf8", input: "café", want: "caf%C3%A9"},
		{name: "empty", input: "", want: ""},
		{name: "json", input: `{"a":1}`, want: "%7B%22a%22%3A1%7D"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, query.Escape(tt.input))
		})
	}
}

func TestEscape_RoundTripsThroughURLUnescape(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"Del Monte", "2% cheese", "filters[group_id]", "ü/ö?&"} {
		got, err := url.QueryUnescape(query.Escape(s))
		assert.NoError(t, err)
		assert.Equal(t, s, got)
	}
}

func TestParams_EncodePreservesOrderAndRepeats(t *testing.T) {
	t.Parallel()

	var p query.Params
	p.Add("filters[Brand]", "Signature Farms")
	p.Add("filters[Brand]", "Del Monte")
	p.Add("filters[Nutrition]", "Organic")
	p.AddIfSet("section", "")
	p.AddAll("us", []string{"a", "b"})

	assert.Equal(t,
		"filters%5BBrand%5D=Signature%20Farms&filters%5BBrand%5D=Del%20Monte&filters%5BNutrition%5D=Organic&us=a&us=b",
		p.Encode(),
	)

	want := []string{"filters[Brand]", "filters[Brand]", "filters[Nutrition]", "us", "us"}
	if diff := cmp.Diff(want, p.Keys()); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"Signature Farms", "Del Monte"}, p.Values("filters[Brand]"))
}

func TestParams_EmptyEncode(t *testing.T) {
	t.Parallel()

	var p query.Params
	assert.Empty(t, p.Encode())
	assert.Empty(t, p.Keys())
}

func TestParams_Append(t *testing.T) {
	t.Parallel()

	var a, b query.Params
	a.Add("term", "x")
	b.Add("key", "k")
	b.Add("c", "ciogo-1.0.0")
	a.Append(b)

	assert.Equal(t, []string{"term", "key", "c"}, a.Keys())
	assert.Equal(t, "term=x&key=k&c=ciogo-1.0.0", a.Encode())
}
