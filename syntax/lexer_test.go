package syntax

import (
	"testing"

	"fortc/report"
)

func initTestReporter() {
	report.ResetReporter()
	report.InitReporter(report.LogLevelSilent)
}

type toktuple struct {
	kind  int
	value string
}

func lexAll(t *testing.T, src string, opts LangOptions) []*Token {
	t.Helper()
	initTestReporter()

	l := NewLexer("test.f90", src, opts)
	var toks []*Token
	for {
		tok := l.NextToken()
		if tok.Is(TokEOF) {
			return toks
		}
		toks = append(toks, tok)
		if len(toks) > 1000 {
			t.Fatal("lexer did not terminate")
		}
	}
}

func checkTokens(t *testing.T, got []*Token, want []toktuple) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d tokens, got %d", len(want), len(got))
	}
	for i, w := range want {
		if got[i].Kind != w.kind {
			t.Errorf("token %d: expected kind %d, got %d (value %q)", i, w.kind, got[i].Kind, got[i].Value())
		}
		if w.value != "" && got[i].Value() != w.value {
			t.Errorf("token %d: expected value %q, got %q", i, w.value, got[i].Value())
		}
	}
}

func TestLexerFreeFormTokens(t *testing.T) {
	cases := []struct {
		src    string
		expect []toktuple
	}{
		0: {
			src: "X = Y + 2*Z",
			expect: []toktuple{
				{TokIdentifier, "X"},
				{TokEqual, "="},
				{TokIdentifier, "Y"},
				{TokPlus, "+"},
				{TokIntConst, "2"},
				{TokStar, "*"},
				{TokIdentifier, "Z"},
			},
		},
		1: {
			src: "IF(ILY.EQ.1.OR.ID.LT.366) GO TO 5",
			expect: []toktuple{
				{TokIdentifier, "IF"},
				{TokLParen, "("},
				{TokIdentifier, "ILY"},
				{TokEQ, ".EQ."},
				{TokIntConst, "1"},
				{TokOR, ".OR."},
				{TokIdentifier, "ID"},
				{TokLT, ".LT."},
				{TokIntConst, "366"},
				{TokRParen, ")"},
				{TokIdentifier, "GO"},
				{TokIdentifier, "TO"},
				{TokIntConst, "5"},
			},
		},
		2: {
			src: "D = 100.D0 + 1.5E-3 + .25",
			expect: []toktuple{
				{TokIdentifier, "D"},
				{TokEqual, "="},
				{TokDblPrecConst, "100.D0"},
				{TokPlus, "+"},
				{TokRealConst, "1.5E-3"},
				{TokPlus, "+"},
				{TokRealConst, ".25"},
			},
		},
		3: {
			src: "C = 'IT''S' // \"OK\"",
			expect: []toktuple{
				{TokIdentifier, "C"},
				{TokEqual, "="},
				{TokCharConst, "IT'S"},
				{TokSlashSlash, "//"},
				{TokCharConst, "OK"},
			},
		},
		4: {
			src: "L = .TRUE. .AND. .NOT. M",
			expect: []toktuple{
				{TokIdentifier, "L"},
				{TokEqual, "="},
				{TokTRUE, ".TRUE."},
				{TokAND, ".AND."},
				{TokNOT, ".NOT."},
				{TokIdentifier, "M"},
			},
		},
		5: {
			src: "A = (/1, 2, 3/)",
			expect: []toktuple{
				{TokIdentifier, "A"},
				{TokEqual, "="},
				{TokLArrayCon, "(/"},
				{TokIntConst, "1"},
				{TokComma, ","},
				{TokIntConst, "2"},
				{TokComma, ","},
				{TokIntConst, "3"},
				{TokRArrayCon, "/)"},
			},
		},
		6: {
			// A free-form continuation joins one statement over two lines.
			src: "X = Y + &\n    Z",
			expect: []toktuple{
				{TokIdentifier, "X"},
				{TokEqual, "="},
				{TokIdentifier, "Y"},
				{TokPlus, "+"},
				{TokIdentifier, "Z"},
			},
		},
	}

	for i, c := range cases {
		toks := lexAll(t, c.src, LangOptions{})
		if t.Failed() {
			t.Fatalf("case %d failed", i)
		}
		checkTokens(t, toks, c.expect)
	}
}

func TestLexerFreeFormStatementLabel(t *testing.T) {
	toks := lexAll(t, "10 CONTINUE\nGOTO 10", LangOptions{})
	want := []toktuple{
		{TokStatementLabel, "10"},
		{TokIdentifier, "CONTINUE"},
		{TokIdentifier, "GOTO"},
		{TokIntConst, "10"},
	}
	checkTokens(t, toks, want)

	if !toks[0].StartOfStatement {
		t.Error("statement label must start a statement")
	}
	if toks[2].StartOfStatement != true {
		t.Error("GOTO must start the second statement")
	}
	if toks[3].StartOfStatement {
		t.Error("10 after GOTO must not start a statement")
	}
}

func TestLexerFixedFormComments(t *testing.T) {
	src := "C THIS IS A COMMENT\n* SO IS THIS\n      X = 1\n"
	toks := lexAll(t, src, LangOptions{FixedForm: true})
	checkTokens(t, toks, []toktuple{
		{TokIdentifier, "X"},
		{TokEqual, "="},
		{TokIntConst, "1"},
	})
}

func TestLexerFixedFormLabelArea(t *testing.T) {
	src := "   10 X = 2\n      GOTO 10\n"
	toks := lexAll(t, src, LangOptions{FixedForm: true})
	checkTokens(t, toks, []toktuple{
		{TokStatementLabel, "10"},
		{TokIdentifier, "X"},
		{TokEqual, "="},
		{TokIntConst, "2"},
		{TokIdentifier, "GOTO"},
		{TokIntConst, "10"},
	})
}

func TestLexerFixedFormContinuationSegments(t *testing.T) {
	// Column six of the second line is non-blank: the identifier continues
	// and the token keeps one spelling segment per line.
	src := "      RESUL\n     &T = 1\n"
	toks := lexAll(t, src, LangOptions{FixedForm: true})
	if len(toks) < 1 {
		t.Fatal("no tokens")
	}
	if toks[0].Value() != "RESULT" {
		t.Fatalf("expected merged spelling RESULT, got %q", toks[0].Value())
	}
	if len(toks[0].Spelling) != 2 {
		t.Fatalf("expected 2 spelling segments, got %d", len(toks[0].Spelling))
	}
	checkTokens(t, toks, []toktuple{
		{TokIdentifier, "RESULT"},
		{TokEqual, "="},
		{TokIntConst, "1"},
	})
}

func TestClassifyTokenIdempotent(t *testing.T) {
	initTestReporter()

	p := NewParser("test.f90", "", LangOptions{}, nil)

	tok := &Token{Kind: TokIdentifier, Spelling: []string{"PROGRAM"}}
	p.ClassifyToken(tok)
	if tok.Kind != KWProgram {
		t.Fatalf("PROGRAM must classify as a keyword, got %d", tok.Kind)
	}
	if tok.ID == nil {
		t.Fatal("a classified keyword keeps its identifier payload")
	}

	id := tok.ID
	p.ClassifyToken(tok)
	if tok.Kind != KWProgram || tok.ID != id {
		t.Error("classifying an already-classified token must be a no-op")
	}

	builtin := &Token{Kind: TokIdentifier, Spelling: []string{"sqrt"}}
	p.ClassifyToken(builtin)
	if builtin.Kind != TokBuiltin {
		t.Errorf("SQRT must classify as a builtin, got %d", builtin.Kind)
	}

	plain := &Token{Kind: TokIdentifier, Spelling: []string{"XYZ"}}
	p.ClassifyToken(plain)
	if plain.Kind != TokIdentifier || plain.ID == nil {
		t.Error("a plain identifier stays an identifier with an interned entry")
	}

	// Interning: one entry per spelling.
	again := &Token{Kind: TokIdentifier, Spelling: []string{"xyz"}}
	p.ClassifyToken(again)
	if again.ID != plain.ID {
		t.Error("identifiers intern case-insensitively to one entry")
	}
}

func TestLexerRetainComments(t *testing.T) {
	toks := lexAll(t, "X = 1 ! trailing\n", LangOptions{ReturnComments: true})
	last := toks[len(toks)-1]
	if last.Kind != TokComment {
		t.Fatalf("expected a comment token, got kind %d", last.Kind)
	}
	if last.Value() != " trailing" {
		t.Errorf("unexpected comment spelling %q", last.Value())
	}
}
