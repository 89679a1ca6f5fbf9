package dictation

import (
	"strings"
	"testing"
)

func seg(kind SegmentKind, content string) Segment {
	return Segment{Kind: kind, Content: content}
}

func checkSegments(t *testing.T, got, want []Segment) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("ParseText() returned %d segments; want %d\ngot: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i].Kind != want[i].Kind || got[i].Content != want[i].Content {
			t.Errorf("segment %d = (%s, %q); want (%s, %q)", i, got[i].Kind, got[i].Content, want[i].Kind, want[i].Content)
		}
		if got[i].Order != i+1 {
			t.Errorf("segment %d order = %d; want %d", i, got[i].Order, i+1)
		}
	}
}

func TestParseText(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []Segment
	}{
		{name: "empty", text: "", want: nil},
		{
			name: "no blanks",
			text: "O cachorro late.",
			want: []Segment{seg(FixedText, "O cachorro late.")},
		},
		{
			name: "two blanks",
			text: "O [cachorro] late muito alto. A [gata] mia baixinho.",
			want: []Segment{
				seg(FixedText, "O "),
				seg(Blank, "cachorro"),
				seg(FixedText, " late muito alto. A "),
				seg(Blank, "gata"),
				seg(FixedText, " mia baixinho."),
			},
		},
		{
			name: "punctuation inside brackets moves out",
			text: "bla[. Nova] palavra e [Gato.] final",
			want: []Segment{
				seg(FixedText, "bla. "),
				seg(Blank, "Nova"),
				seg(FixedText, " palavra e "),
				seg(Blank, "Gato"),
				seg(FixedText, ". final"),
			},
		},
		{
			name: "blank at start",
			text: "[Olá] mundo",
			want: []Segment{
				seg(Blank, "Olá"),
				seg(FixedText, " mundo"),
			},
		},
		{
			name: "blank at end",
			text: "fim [aqui]",
			want: []Segment{
				seg(FixedText, "fim "),
				seg(Blank, "aqui"),
			},
		},
		{
			name: "trailing suffix with no following text",
			text: "acabou [agora.]",
			want: []Segment{
				seg(FixedText, "acabou "),
				seg(Blank, "agora"),
				seg(FixedText, "."),
			},
		},
		{
			name: "unmatched bracket is literal",
			text: "abc [def",
			want: []Segment{seg(FixedText, "abc [def")},
		},
		{
			name: "adjacent blanks",
			text: "[um][dois]",
			want: []Segment{
				seg(Blank, "um"),
				seg(Blank, "dois"),
			},
		},
		{
			name: "hyphenated word kept whole",
			text: "o [guarda-chuva] azul",
			want: []Segment{
				seg(FixedText, "o "),
				seg(Blank, "guarda-chuva"),
				seg(FixedText, " azul"),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkSegments(t, ParseText(tt.text), tt.want)
		})
	}
}

// concatenating segment contents in order must reproduce the authored text
// with the bracket markup stripped, whatever the punctuation placement.
func TestParseText_roundTrip(t *testing.T) {
	texts := []string{
		"O [cachorro] late muito alto. A [gata] mia baixinho.",
		"bla[. Nova] palavra e [Gato.] final",
		"[Começa] no início e acaba no [fim.]",
		"sem blanks nenhum",
	}
	for _, text := range texts {
		var b strings.Builder
		for _, s := range ParseText(text) {
			b.WriteString(s.Content)
		}
		stripped := strings.NewReplacer("[", "", "]", "").Replace(text)
		if got := b.String(); got != stripped {
			t.Errorf("round trip of %q = %q; want %q", text, got, stripped)
		}
	}
}
